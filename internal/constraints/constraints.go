// Package constraints implements a disjoint-set-union over arbitrary
// comparable keys, used to group constrained leaves into connected
// components for the rule engine.
//
// The rule graph is undirected (an Equal rule relates its paths
// symmetrically), unlike the directed dependency graphs a Tarjan-style
// strongly-connected-components algorithm targets, so a DSU is both
// sufficient and simpler here; the iter.Seq-based [Group.Members]
// iteration mirrors the style of a Tarjan-SCC API without needing its
// machinery.
package constraints

import "iter"

// Group is a disjoint-set-union keyed by comparable identifiers.
type Group[K comparable] struct {
	parent map[K]K
	rank   map[K]int
}

// New creates an empty group.
func New[K comparable]() *Group[K] {
	return &Group[K]{parent: map[K]K{}, rank: map[K]int{}}
}

func (g *Group[K]) ensure(k K) {
	if _, ok := g.parent[k]; !ok {
		g.parent[k] = k
		g.rank[k] = 0
	}
}

// Find returns the representative element of k's component, registering
// k as a singleton component if it has not been seen before.
func (g *Group[K]) Find(k K) K {
	g.ensure(k)
	if g.parent[k] != k {
		g.parent[k] = g.Find(g.parent[k])
	}
	return g.parent[k]
}

// Union merges the components containing a and b.
func (g *Group[K]) Union(a, b K) {
	ra, rb := g.Find(a), g.Find(b)
	if ra == rb {
		return
	}
	if g.rank[ra] < g.rank[rb] {
		ra, rb = rb, ra
	}
	g.parent[rb] = ra
	if g.rank[ra] == g.rank[rb] {
		g.rank[ra]++
	}
}

// Components returns every distinct component as a slice of its members.
func (g *Group[K]) Components() [][]K {
	byRoot := map[K][]K{}
	for k := range g.parent {
		r := g.Find(k)
		byRoot[r] = append(byRoot[r], k)
	}
	out := make([][]K, 0, len(byRoot))
	for _, members := range byRoot {
		out = append(out, members)
	}
	return out
}

// Members iterates every key registered in the group, in no particular
// order.
func (g *Group[K]) Members() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range g.parent {
			if !yield(k) {
				return
			}
		}
	}
}
