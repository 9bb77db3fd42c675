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
	"strings"

	"cellforge/internal/binrepr"
)

// varWrapState is one of the four states described in §3.1/§4.C.6.
type varWrapState int

const (
	varUndefined varWrapState = iota
	varVirtual
	varDefined
	varInvalid
)

func (c *Cell) varState() varWrapState {
	n := c.node()
	switch {
	case !n.defined && len(n.children) == 0 && n.leafVal != nil:
		return varInvalid
	case n.defined:
		return varDefined
	case n.varCount != nil || n.varPacklen != nil:
		return varVirtual
	default:
		return varUndefined
	}
}

// VirtualCount returns the varwrap's declared or imputed element count,
// the virtual count subcell of §3.1.
func (c *Cell) VirtualCount() (int, bool) {
	n := c.node()
	if n.varCount != nil {
		return *n.varCount, true
	}
	if n.desc.Count != nil {
		return n.desc.Count(c)
	}
	return c.imputedCount()
}

// SetVirtualCount declares an external count for an as-yet-unmaterialised
// varwrap. Mutating the count of an already-defined (materialised)
// varwrap is rejected: per the design notes' Open Question decision,
// this implementation rejects any mutation on a defined varwrap,
// uniformly for both virtual subcells.
func (c *Cell) SetVirtualCount(n int) error {
	if c.varState() == varDefined {
		return c.errPath(KindCellDefinition, fmt.Errorf("cannot mutate count of a defined varwrap"))
	}
	c.node().varCount = &n
	return nil
}

// VirtualPackLen returns the varwrap's declared or imputed byte length,
// the virtual packlen subcell of §3.1.
func (c *Cell) VirtualPackLen() (int, bool) {
	node := c.node()
	if node.varPacklen != nil {
		return *node.varPacklen, true
	}
	if node.desc.Budget != nil {
		return node.desc.Budget(c)
	}
	return c.imputedPackLen()
}

// SetVirtualPackLen declares an external byte budget; see
// [Cell.SetVirtualCount] for the mutation-rejection rule.
func (c *Cell) SetVirtualPackLen(n int) error {
	if c.varState() == varDefined {
		return c.errPath(KindCellDefinition, fmt.Errorf("cannot mutate packlen of a defined varwrap"))
	}
	c.node().varPacklen = &n
	return nil
}

func (c *Cell) unpackVarWrap(data []byte, offset int, o unpackOptions) error {
	n := c.node()

	count, hasCount := c.VirtualCount()
	budget, hasBudget := c.VirtualPackLen()

	maxAvail := len(data) - offset
	if o.hasSize && o.size < maxAvail {
		maxAvail = o.size
	}
	if hasBudget && budget < maxAvail {
		maxAvail = budget
	}

	mark0 := len(c.a.nodes)
	childrenMark := len(n.children)
	pos := offset
	parsed := 0
	for {
		if hasCount && parsed >= count {
			break
		}
		if pos-offset >= maxAvail {
			break
		}
		mark := len(c.a.nodes)
		child := c.child("", parsed, n.desc.Elem)
		if err := child.Unpack(data, pos); err != nil {
			n.children = n.children[:len(n.children)-1]
			c.a.truncate(mark)
			break
		}
		by, _ := child.PackLen()
		pos += by
		parsed++
	}
	consumed := pos - offset

	fallback := func(kind Kind, msg string) error {
		n.children = n.children[:childrenMark]
		c.a.truncate(mark0)
		raw := make([]byte, consumed)
		copy(raw, data[offset:offset+consumed])
		n.leafVal = raw
		n.defined = false
		return c.errPath(kind, fmt.Errorf("%s", msg))
	}

	switch {
	case hasCount && hasBudget:
		if parsed < count {
			return fallback(KindLengthMismatch, "wrong count")
		}
		if consumed != budget {
			return fallback(KindLengthMismatch, "wrong packlen")
		}
	case hasCount && !hasBudget:
		if parsed < count {
			return fallback(KindLengthMismatch, "wrong packlen")
		}
	case !hasCount && hasBudget:
		if consumed < budget {
			return fallback(KindLengthMismatch, "wrong packlen")
		}
	}

	n.varCount = &parsed
	n.varPacklen = &consumed
	n.defined = true
	return nil
}

func (c *Cell) packVarWrap(buf *binrepr.BinRepr, base int, o packOptions) error {
	n := c.node()
	if c.varState() == varInvalid {
		if raw, ok := n.leafVal.([]byte); ok {
			buf.Write(base, raw)
		}
		return nil
	}
	pos := base
	for _, h := range n.children {
		child := &Cell{a: c.a, h: h}
		if err := child.packInto(buf, pos, o); err != nil {
			return err
		}
		by, _ := child.PackLen()
		pos += by
	}
	return nil
}

func (c *Cell) varWrapWork() any {
	n := c.node()
	if c.varState() == varInvalid {
		return n.leafVal
	}
	if c.isVarStringLike() {
		return c.varWrapRepr()
	}
	out := make(map[int]any, len(n.children))
	for i, h := range n.children {
		out[i] = (&Cell{a: c.a, h: h}).Work()
	}
	return out
}

func (c *Cell) isVarStringLike() bool {
	d := c.node().desc
	return d.Elem != nil && d.Elem.Leaf == LeafChar
}

func (c *Cell) varWrapRepr() any {
	n := c.node()
	if c.varState() == varInvalid {
		return n.leafVal
	}
	if c.isVarStringLike() {
		var b strings.Builder
		for _, h := range n.children {
			if s, ok := (&Cell{a: c.a, h: h}).Repr().(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	}
	out := make([]any, len(n.children))
	for i, h := range n.children {
		out[i] = (&Cell{a: c.a, h: h}).Repr()
	}
	return out
}

func (c *Cell) unworkVarWrap(v any) error {
	return c.unreprOrUnworkVarWrap(v, false)
}

func (c *Cell) unreprVarWrap(v any) error {
	return c.unreprOrUnworkVarWrap(v, true)
}

func (c *Cell) unreprOrUnworkVarWrap(v any, repr bool) error {
	n := c.node()
	if c.isVarStringLike() {
		if s, ok := v.(string); ok {
			n.children = n.children[:0]
			for i, r := range []byte(s) {
				child := c.child("", i, n.desc.Elem)
				if err := child.setLeafChecked(r); err != nil {
					return err
				}
			}
			cnt := len(s)
			n.varCount = &cnt
			plen := c.varWrapPackLen()
			n.varPacklen = &plen
			n.defined = true
			return nil
		}
	}
	vs, ok := v.([]any)
	if !ok {
		return c.errPath(KindValueType, fmt.Errorf("varwrap expects a sequence, got %T", v))
	}
	n.children = n.children[:0]
	for i, e := range vs {
		child := c.child("", i, n.desc.Elem)
		var err error
		if repr {
			err = child.Unrepr(e)
		} else {
			err = child.Unwork(e)
		}
		if err != nil {
			return err
		}
	}
	cnt := len(vs)
	n.varCount = &cnt
	plen := c.varWrapPackLen()
	n.varPacklen = &plen
	n.defined = true
	return nil
}

func (c *Cell) varWrapPackLen() int {
	n := c.node()
	if c.varState() == varInvalid {
		if raw, ok := n.leafVal.([]byte); ok {
			return len(raw)
		}
	}
	total := 0
	for _, h := range n.children {
		by, _ := (&Cell{a: c.a, h: h}).PackLen()
		total += by
	}
	return total
}
