// Package tree23 implements a 2-3 search tree: a balanced ordered container
// keyed by any ordered type, supporting stable in-order insertion,
// equality/predecessor/successor lookups, and ascending iteration.
//
// It is the ordered key-map described as component A of the cell-tree
// engine: the sparse binary buffer in package binrepr stores its chunks in
// one of these, keyed by byte offset.
package tree23

import "iter"

// Tree is a 2-3 search tree over keys of type K.
//
// The zero value is an empty, ready-to-use tree.
type Tree[K cmp] struct {
	root node[K]
}

// cmp is the constraint on keys: anything with a natural less-than order.
type cmp interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// node is either an empty node, a leaf (1 or 2 keys), or a 2-node/3-node
// internal node (2 or 3 children separated by 1 or 2 keys). We represent
// both shapes with the same struct: a leaf has len(children) == 0.
type node[K cmp] struct {
	keys     []K
	children []*node[K]
}

func (n *node[K]) isLeaf() bool { return len(n.children) == 0 }
func (n *node[K]) isEmpty() bool { return len(n.keys) == 0 && len(n.children) == 0 }

// Depth returns the height of the tree: the number of internal-node levels
// above the leaves. An empty tree has depth 0.
func (t *Tree[K]) Depth() int {
	return depth(&t.root)
}

func depth[K cmp](n *node[K]) int {
	if n.isLeaf() {
		return 0
	}
	return 1 + depth(n.children[0])
}

// Find returns the first element equal to key, and whether it was found.
func (t *Tree[K]) Find(key K) (K, bool) {
	return find(&t.root, key)
}

func find[K cmp](n *node[K], key K) (K, bool) {
	if n.isEmpty() {
		var zero K
		return zero, false
	}
	if n.isLeaf() {
		for _, k := range n.keys {
			if k == key {
				return k, true
			}
		}
		var zero K
		return zero, false
	}
	for i, k := range n.keys {
		if key < k {
			return find(n.children[i], key)
		}
		if key == k {
			return k, true
		}
	}
	return find(n.children[len(n.children)-1], key)
}

// Predecessor returns the greatest element <= key, and whether one exists.
func (t *Tree[K]) Predecessor(key K) (K, bool) {
	var zero K
	found := false
	lfind(&t.root, key, &zero, &found)
	return zero, found
}

// lfind mirrors _lfind in the original 2-3 tree: it walks down tracking the
// best candidate seen so far in (dft, hasDft).
func lfind[K cmp](n *node[K], key K, dft *K, hasDft *bool) {
	if n.isEmpty() {
		return
	}
	if n.isLeaf() {
		for _, k := range n.keys {
			if k > key {
				return
			}
			*dft, *hasDft = k, true
		}
		return
	}
	for i, k := range n.keys {
		if key < k {
			lfind(n.children[i], key, dft, hasDft)
			return
		}
		if key == k {
			*dft, *hasDft = k, true
			return
		}
		*dft, *hasDft = k, true
	}
	lfind(n.children[len(n.children)-1], key, dft, hasDft)
}

// Successor returns the least element strictly greater than key, and
// whether one exists.
func (t *Tree[K]) Successor(key K) (K, bool) {
	var zero K
	found := false
	rfind(&t.root, key, &zero, &found)
	return zero, found
}

func rfind[K cmp](n *node[K], key K, dft *K, hasDft *bool) {
	if n.isEmpty() {
		return
	}
	if n.isLeaf() {
		for _, k := range n.keys {
			if k > key {
				*dft, *hasDft = k, true
				return
			}
		}
		return
	}
	for i, k := range n.keys {
		if key < k {
			*dft, *hasDft = k, true
			rfind(n.children[i], key, dft, hasDft)
			return
		}
	}
	rfind(n.children[len(n.children)-1], key, dft, hasDft)
}

// Insert inserts key in order. If other elements compare equal, the new key
// is inserted after them (stable insertion order for equal keys).
func (t *Tree[K]) Insert(key K) {
	insert(&t.root, key)
	if len(t.root.keys) == 3 {
		if t.root.isLeaf() {
			splitLeaf(&t.root)
		} else {
			old := t.root
			t.root = node[K]{children: []*node[K]{&old}}
			promote(&t.root, 0)
		}
	}
}

// insert descends to the right leaf and inserts the key there. Any child
// left with 3 keys on the way back up is split by promote, which moves its
// middle key into n; Insert splits an overflowing root the same way, so
// every leaf stays at the same depth.
func insert[K cmp](n *node[K], key K) {
	if n.isEmpty() {
		n.keys = []K{key}
		return
	}
	if n.isLeaf() {
		n.keys = insertSorted(n.keys, key)
		return
	}
	i := childIndex(n.keys, key)
	insert(n.children[i], key)
	if len(n.children[i].keys) == 3 {
		promote(n, i)
	}
}

// insertSorted inserts key into a sorted slice, after any equal keys.
func insertSorted[K cmp](keys []K, key K) []K {
	i := 0
	for i < len(keys) && keys[i] <= key {
		i++
	}
	keys = append(keys, key)
	copy(keys[i+1:], keys[i:len(keys)-1])
	keys[i] = key
	return keys
}

// childIndex returns which child of an internal node a key with value key
// should descend into. A key equal to a separator goes to its right, so a
// new key lands after the existing equal keys.
func childIndex[K cmp](keys []K, key K) int {
	for i, k := range keys {
		if key < k {
			return i
		}
	}
	return len(keys)
}

// splitLeaf splits an overflowing 3-key leaf into a 2-node: [left] mid [right].
func splitLeaf[K cmp](n *node[K]) {
	left := &node[K]{keys: []K{n.keys[0]}}
	right := &node[K]{keys: []K{n.keys[2]}}
	mid := n.keys[1]
	n.keys = []K{mid}
	n.children = []*node[K]{left, right}
}

// promote splits an overflowing child (a 3-key leaf, or a 3-key internal
// node with 4 children after its own child split) into two 1-key nodes and
// moves its middle key up into parent.
func promote[K cmp](parent *node[K], i int) {
	child := parent.children[i]
	mid := child.keys[1]
	left := &node[K]{keys: []K{child.keys[0]}}
	right := &node[K]{keys: []K{child.keys[2]}}
	if !child.isLeaf() {
		left.children, right.children = child.children[:2], child.children[2:]
	}

	newKeys := make([]K, 0, len(parent.keys)+1)
	newChildren := make([]*node[K], 0, len(parent.children)+1)
	newKeys = append(newKeys, parent.keys[:i]...)
	newKeys = append(newKeys, mid)
	newKeys = append(newKeys, parent.keys[i:]...)
	newChildren = append(newChildren, parent.children[:i]...)
	newChildren = append(newChildren, left, right)
	newChildren = append(newChildren, parent.children[i+1:]...)
	parent.keys = newKeys
	parent.children = newChildren
}

// All returns an ascending iterator over every element in the tree.
// It is restartable: calling All again produces a fresh traversal.
func (t *Tree[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		walk(&t.root, yield)
	}
}

func walk[K cmp](n *node[K], yield func(K) bool) bool {
	if n.isEmpty() {
		return true
	}
	if n.isLeaf() {
		for _, k := range n.keys {
			if !yield(k) {
				return false
			}
		}
		return true
	}
	for i, child := range n.children {
		if !walk(child, yield) {
			return false
		}
		if i < len(n.keys) {
			if !yield(n.keys[i]) {
				return false
			}
		}
	}
	return true
}
