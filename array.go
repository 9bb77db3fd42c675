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

func (c *Cell) isStringLike() bool {
	d := c.node().desc
	return d.Elem != nil && d.Elem.Leaf == LeafChar
}

func (c *Cell) unpackArray(data []byte, offset int, o unpackOptions) error {
	n := c.node()
	count, ok := n.desc.Count(c)
	if !ok {
		return c.errPath(KindCellDefinition, fmt.Errorf("array has no resolvable count"))
	}
	pos := offset
	for i := 0; i < count; i++ {
		child := c.child("", i, n.desc.Elem)
		if err := child.Unpack(data, pos); err != nil {
			return err
		}
		by, _ := child.PackLen()
		pos += by
	}
	n.defined = true
	c.captureTail(data, offset, pos-offset, o)
	return nil
}

func (c *Cell) packArray(buf *binrepr.BinRepr, base int, o packOptions) error {
	n := c.node()
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

func (c *Cell) arrayWork() any {
	if c.isStringLike() {
		return c.arrayRepr()
	}
	n := c.node()
	out := make(map[int]any, len(n.children))
	for i, h := range n.children {
		out[i] = (&Cell{a: c.a, h: h}).Work()
	}
	return out
}

func (c *Cell) arrayRepr() any {
	n := c.node()
	if c.isStringLike() {
		var b strings.Builder
		for _, h := range n.children {
			v := (&Cell{a: c.a, h: h}).Repr()
			if s, ok := v.(string); ok {
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

func (c *Cell) unworkArray(v any) error {
	if c.isStringLike() {
		if s, ok := v.(string); ok {
			return c.unreprArray(s)
		}
	}
	switch vs := v.(type) {
	case []any:
		return c.setArrayElements(vs, false)
	case map[int]any:
		n := c.node()
		count, _ := n.desc.Count(c)
		seq := make([]any, count)
		for i := 0; i < count; i++ {
			seq[i] = vs[i]
		}
		return c.setArrayElements(seq, false)
	default:
		return c.errPath(KindValueType, fmt.Errorf("array expects a sequence, got %T", v))
	}
}

func (c *Cell) unreprArray(v any) error {
	if c.isStringLike() {
		s, ok := v.(string)
		if !ok {
			return c.errPath(KindValueType, fmt.Errorf("string array expects a string, got %T", v))
		}
		n := c.node()
		count, ok := n.desc.Count(c)
		if !ok {
			count = len(s)
		}
		if len(s) != count {
			return c.errPath(KindLengthMismatch, fmt.Errorf("got %d chars, want %d", len(s), count))
		}
		seq := make([]any, count)
		for i := 0; i < count; i++ {
			seq[i] = string(s[i])
		}
		return c.setArrayElements(seq, true)
	}
	vs, ok := v.([]any)
	if !ok {
		return c.errPath(KindValueType, fmt.Errorf("array expects a sequence, got %T", v))
	}
	return c.setArrayElements(vs, true)
}

func (c *Cell) setArrayElements(vs []any, repr bool) error {
	n := c.node()
	count, ok := n.desc.Count(c)
	if ok && len(vs) != count {
		return c.errPath(KindLengthMismatch, fmt.Errorf("got %d elements, want %d", len(vs), count))
	}
	n.children = n.children[:0]
	for i, v := range vs {
		child := c.child("", i, n.desc.Elem)
		var err error
		if repr {
			err = child.Unrepr(v)
		} else {
			err = child.Unwork(v)
		}
		if err != nil {
			return err
		}
	}
	n.defined = true
	return nil
}

func (c *Cell) arrayPackLen() int {
	n := c.node()
	total := 0
	for _, h := range n.children {
		by, _ := (&Cell{a: c.a, h: h}).PackLen()
		total += by
	}
	return total
}
