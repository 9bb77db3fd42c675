package constraints

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFindGroups(t *testing.T) {
	g := New[string]()
	g.Union("a", "b")
	g.Union("b", "c")
	g.Union("x", "y")

	assert.Equal(t, g.Find("a"), g.Find("c"))
	assert.NotEqual(t, g.Find("a"), g.Find("x"))

	comps := g.Components()
	sizes := make([]int, len(comps))
	for i, c := range comps {
		sizes[i] = len(c)
	}
	sort.Ints(sizes)
	assert.Equal(t, []int{2, 3}, sizes)
}

func TestSingletonComponent(t *testing.T) {
	g := New[int]()
	assert.Equal(t, 0, g.Find(0))
	comps := g.Components()
	assert.Len(t, comps, 1)
	assert.Equal(t, []int{0}, comps[0])
}
