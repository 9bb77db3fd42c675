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
	"fmt"

	"cellforge/internal/binrepr"
)

// wrapOptions returns the candidate option list in trial order, options
// first and the fallback last.
func (c *Cell) wrapOptions() []*Descriptor {
	d := c.node().desc
	return append(append([]*Descriptor{}, d.Options...), d.Fallback)
}

// unpackWrap tries each option in order, rolling back the arena after
// every failed attempt so a bad parse cannot leave stray state behind
// (the design note on trial-parse with rollback).
func (c *Cell) unpackWrap(data []byte, offset int, o unpackOptions) error {
	n := c.node()
	opts := c.wrapOptions()
	var lastErr error
	for i, opt := range opts {
		mark := len(c.a.nodes)
		child := c.child("", -1, opt)
		if err := child.Unpack(data, offset); err != nil {
			n.children = n.children[:len(n.children)-1]
			c.a.truncate(mark)
			lastErr = err
			continue
		}
		if i < len(n.desc.Options) {
			n.wrapChoice = i
		} else {
			n.wrapChoice = -1
		}
		n.defined = true
		return nil
	}
	return c.errPath(KindCellDefinition, fmt.Errorf("no wrap option matched: %w", lastErr))
}

func (c *Cell) resolvedChild() *Cell {
	n := c.node()
	if len(n.children) == 0 {
		return nil
	}
	return &Cell{a: c.a, h: n.children[0]}
}

func (c *Cell) packWrap(buf *binrepr.BinRepr, base int, o packOptions) error {
	child := c.resolvedChild()
	if child == nil {
		return nil
	}
	return child.packInto(buf, base, o)
}

func (c *Cell) wrapWork() any {
	child := c.resolvedChild()
	if child == nil {
		return nil
	}
	return child.Work()
}

func (c *Cell) wrapRepr() any {
	child := c.resolvedChild()
	if child == nil {
		return nil
	}
	return child.Repr()
}

// unworkWrap adopts a copy of v directly if v is a *Cell, whatever its
// descriptor (it is not checked against the options), otherwise iterates
// the options and fallback, invoking each one's Unwork in turn; the first
// that does not fail wins, mirroring unpackWrap's trial order.
func (c *Cell) unworkWrap(v any) error { return c.adoptWrap(v, false) }

func (c *Cell) unreprWrap(v any) error { return c.adoptWrap(v, true) }

// adoptWrap implements unworkWrap and unreprWrap: if v is a *Cell, a copy
// of its subtree is adopted directly, whatever its descriptor (it is not
// checked against the options, and wrapChoice is left unchanged);
// otherwise each option and the fallback are tried in order via Unwork or
// Unrepr, mirroring unpackWrap's trial order.
func (c *Cell) adoptWrap(v any, repr bool) error {
	n := c.node()
	if asCell, ok := v.(*Cell); ok {
		h := c.copySubtree(asCell, c.h, "", -1)
		n.children = append(n.children, h)
		n.defined = true
		return nil
	}
	opts := c.wrapOptions()
	var lastErr error
	for i, opt := range opts {
		mark := len(c.a.nodes)
		child := c.child("", -1, opt)
		var err error
		if repr {
			err = child.Unrepr(v)
		} else {
			err = child.Unwork(v)
		}
		if err != nil {
			n.children = n.children[:len(n.children)-1]
			c.a.truncate(mark)
			lastErr = err
			continue
		}
		if i < len(n.desc.Options) {
			n.wrapChoice = i
		} else {
			n.wrapChoice = -1
		}
		n.defined = true
		return nil
	}
	return c.errPath(KindCellDefinition, fmt.Errorf("no wrap option accepted value: %w", lastErr))
}

// copySubtree recursively copies src's subtree — which may live in a
// different arena than c's — into c's arena, rooted under parent, and
// returns the new root handle. A plain struct copy of a *cellNode would
// carry over child handles that still index into src's own arena; this
// walks the subtree and remaps every handle as it goes, so the adopted
// cell is fully independent of whatever arena it came from.
func (c *Cell) copySubtree(src *Cell, parent int, name string, index int) int {
	srcNode := src.node()
	h := c.a.alloc(parent, name, index, srcNode.desc)
	dst := c.a.nodes[h]
	dst.defined = srcNode.defined
	dst.leafVal = srcNode.leafVal
	dst.tail = srcNode.tail
	dst.tailOff = srcNode.tailOff
	dst.wrapChoice = srcNode.wrapChoice
	if srcNode.varCount != nil {
		v := *srcNode.varCount
		dst.varCount = &v
	}
	if srcNode.varPacklen != nil {
		v := *srcNode.varPacklen
		dst.varPacklen = &v
	}
	dst.children = make([]int, len(srcNode.children))
	for i, sh := range srcNode.children {
		child := &Cell{a: src.a, h: sh}
		cn := child.node()
		dst.children[i] = c.copySubtree(child, h, cn.name, cn.index)
	}
	return h
}

func (c *Cell) wrapPackLen() int {
	child := c.resolvedChild()
	if child == nil {
		return 0
	}
	by, _ := child.PackLen()
	return by
}
