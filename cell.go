// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cellforge

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"cellforge/internal/binrepr"
	"cellforge/internal/debug"
)

// noParent marks a cell with no parent: the root of its arena.
const noParent = -1

// arena owns every cell in one tree, indexed by a stable integer handle.
// A handle stays valid while its node is in the arena; handles dropped by
// truncate (the rollback of a failed trial parse) are reused by later
// allocations. Storing the parent link as an index rather than a
// pointer avoids a reference cycle between parent and child while still
// giving O(1) ancestor walks; see the "Cell arena" section of
// SPEC_FULL.md.
type arena struct {
	// nodes holds one heap-allocated cellNode per handle, so that a
	// *cellNode obtained via node() stays valid across later allocations
	// even though the nodes slice itself may reallocate as it grows.
	nodes []*cellNode
}

type cellNode struct {
	parent   int
	name     string  // record field name, or "" for array elements/root
	index    int     // array index, or -1 for record fields/root
	desc     *Descriptor
	defined  bool
	children []int // child handles, in declaration/element order

	// Per-kind payload.
	leafVal    any    // decoded work value for leaf kinds
	tail       *binrepr.BinRepr // unparsed bytes retained for with-holes packing
	tailOff    int
	wrapChoice int // index into desc.Options, or -1 if fallback/unresolved
	varCount   *int
	varPacklen *int
}

func newArena() *arena {
	return &arena{}
}

func (a *arena) alloc(parent int, name string, index int, desc *Descriptor) int {
	h := len(a.nodes)
	a.nodes = append(a.nodes, &cellNode{
		parent: parent, name: name, index: index, desc: desc, wrapChoice: -1,
	})
	return h
}

// truncate discards every handle allocated from mark onward, used to
// roll back a failed trial-parse attempt in a wrap (see wrap.go).
func (a *arena) truncate(mark int) {
	a.nodes = a.nodes[:mark]
}

// Cell is a handle into an [arena]: a node in a parsed or constructed
// format tree. Cell values are cheap to copy; all mutation goes through
// the arena they reference.
type Cell struct {
	a *arena
	h int
}

// node returns the underlying storage for c. Panics if c is the zero
// value.
func (c *Cell) node() *cellNode {
	if c.a == nil {
		panic("cellforge: use of zero Cell")
	}
	return c.a.nodes[c.h]
}

// Empty creates a new, undefined cell instance of desc with no parent:
// the root of a fresh tree.
func Empty(desc *Descriptor) *Cell {
	a := newArena()
	h := a.alloc(noParent, "", -1, desc)
	return &Cell{a: a, h: h}
}

func (c *Cell) child(name string, index int, desc *Descriptor) *Cell {
	h := c.a.alloc(c.h, name, index, desc)
	c.node().children = append(c.node().children, h)
	return &Cell{a: c.a, h: h}
}

// Descriptor returns the descriptor this cell was created from.
func (c *Cell) Descriptor() *Descriptor { return c.node().desc }

// Kind returns the cell's kind.
func (c *Cell) Kind() CellKind { return c.node().desc.Kind }

// Parent returns this cell's parent, or nil if c is a tree root.
func (c *Cell) Parent() *Cell {
	p := c.node().parent
	if p == noParent {
		return nil
	}
	return &Cell{a: c.a, h: p}
}

// Root walks to the top of c's tree.
func (c *Cell) Root() *Cell {
	cur := c
	for {
		p := cur.Parent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// Path returns the dotted path from the root cell to c, and the root
// itself — used by the rule manager and by diagnostics (§6).
func (c *Cell) Path() (*Cell, string) {
	var segs []string
	cur := c
	for {
		n := cur.node()
		if n.parent == noParent {
			break
		}
		if n.index >= 0 {
			segs = append(segs, strconv.Itoa(n.index))
		} else {
			segs = append(segs, n.name)
		}
		cur = cur.Parent()
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return cur, strings.Join(segs, ".")
}

// IsDef reports whether this cell's content has been explicitly set.
func (c *Cell) IsDef() bool { return c.node().defined }

// endian resolves the byte order in effect for c: its descriptor's own,
// or the nearest ancestor's.
func (c *Cell) endian() binary.ByteOrder {
	for cur := c; cur != nil; cur = cur.Parent() {
		if e := cur.node().desc.Endian; e != nil {
			return e
		}
	}
	return binary.LittleEndian
}

// ptrSize resolves the pointer width in effect for c, in bytes.
func (c *Cell) ptrSize() int {
	for cur := c; cur != nil; cur = cur.Parent() {
		if sz := cur.node().desc.PtrSize; sz != 0 {
			return sz / 8
		}
	}
	return 8
}

// Field returns c's child field named name, for a record cell, or nil if
// no such field exists (including when c is not a record).
func (c *Cell) Field(name string) *Cell { return c.field(name) }

// Elem returns c's child element at index, for an array or varwrap cell,
// or nil if index is out of range.
func (c *Cell) Elem(index int) *Cell { return c.elem(index) }

func (c *Cell) field(name string) *Cell {
	n := c.node()
	for _, h := range n.children {
		ch := c.a.nodes[h]
		if ch.name == name {
			return &Cell{a: c.a, h: h}
		}
	}
	return nil
}

func (c *Cell) elem(index int) *Cell {
	n := c.node()
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return &Cell{a: c.a, h: n.children[index]}
}

// errPath builds a [CellError] anchored at c.
func (c *Cell) errPath(kind Kind, cause error) *CellError {
	_, path := c.Path()
	return cellErr(kind, path, cause)
}

// debugLog is a thin wrapper so every cell operation logs under the
// same operation-context convention the teacher's parser uses.
func (c *Cell) debugLog(op, format string, args ...any) {
	_, path := c.Path()
	debug.Log([]any{"%s", path}, op, format, args...)
}

func (c *Cell) String() string {
	return fmt.Sprintf("Cell(%s)", c.node().desc.Name)
}
