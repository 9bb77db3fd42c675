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

// fieldOffset is a position relative to a record's origin, as the
// rational (bytes, bits) pair described in §3.2 invariant 2 and the
// design note on fractional pack lengths.
type fieldOffset struct {
	bytes, bits int
}

func (o fieldOffset) advance(by, bi int) fieldOffset {
	total := o.bits + bi
	return fieldOffset{bytes: o.bytes + by + total/8, bits: total % 8}
}

func (c *Cell) unpackRecord(data []byte, offset int, o unpackOptions) error {
	n := c.node()
	pos := fieldOffset{}
	for _, f := range n.desc.Fields {
		if f.Offset != nil {
			by, bi := f.Offset(c)
			pos = fieldOffset{bytes: by, bits: bi}
		}
		child := c.child(f.Name, -1, f.resolve(c))
		if child.node().desc.Leaf == LeafBits {
			if err := child.unpackBitfield(data, offset+pos.bytes, pos.bits); err != nil {
				return err
			}
		} else {
			if err := child.Unpack(data, offset+pos.bytes); err != nil {
				return err
			}
		}
		by, bi := child.PackLen()
		pos = pos.advance(by, bi)
	}
	consumed := pos.bytes
	if pos.bits > 0 {
		consumed++
	}
	c.captureTail(data, offset, consumed, o)
	return nil
}

// unpackBitfield reads a bit-field starting bitOffset bits into the byte
// at byteOffset, per §4.C.2: little-endian reads low-to-high byte then
// shifts and masks; big-endian mirrors this. A bit-field may span up to
// two bytes.
func (c *Cell) unpackBitfield(data []byte, byteOffset, bitOffset int) error {
	n := c.node()
	width := n.desc.Width
	spanBytes := (bitOffset + width + 7) / 8
	if byteOffset+spanBytes > len(data) {
		return c.errPath(KindUnpackShort, fmt.Errorf("need %d bytes at %d for bitfield, have %d", spanBytes, byteOffset, len(data)))
	}
	raw := data[byteOffset : byteOffset+spanBytes]
	v := getUint(raw, c.endian())
	v = (v >> uint(bitOffset)) & ((1 << uint(width)) - 1)
	return c.leafDecode(uintBytes(v, (width+7)/8))
}

func uintBytes(v uint64, n int) []byte {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}

func (c *Cell) packRecord(buf *binrepr.BinRepr, base int, o packOptions) error {
	n := c.node()
	pos := fieldOffset{}
	for _, h := range n.children {
		child := &Cell{a: c.a, h: h}
		f := findField(n.desc, child.node().name)
		if f != nil && f.Offset != nil {
			by, bi := f.Offset(c)
			pos = fieldOffset{bytes: by, bits: bi}
		}
		if child.node().desc.Leaf == LeafBits {
			if err := child.packBitfield(buf, base+pos.bytes, pos.bits); err != nil {
				return err
			}
		} else {
			if err := child.packInto(buf, base+pos.bytes, o); err != nil {
				return err
			}
		}
		by, bi := child.PackLen()
		pos = pos.advance(by, bi)
	}
	return nil
}

func (c *Cell) packBitfield(buf *binrepr.BinRepr, byteOffset, bitOffset int) error {
	n := c.node()
	width := n.desc.Width
	spanBytes := (bitOffset + width + 7) / 8
	if !c.IsDef() {
		if v, ok := c.imputedOrDefault(); ok {
			if err := c.setLeafChecked(v); err != nil {
				return err
			}
		} else {
			return nil
		}
	}
	iv, err := toInt64(n.leafVal)
	if err != nil {
		return c.errPath(KindValueType, err)
	}
	shifted := (uint64(iv) & ((1 << uint(width)) - 1)) << uint(bitOffset)
	run := uintBytes(shifted, spanBytes)
	return buf.Xor(run, byteOffset)
}

func findField(d *Descriptor, name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

func (c *Cell) recordWork() map[string]any {
	n := c.node()
	out := make(map[string]any, len(n.children))
	for _, h := range n.children {
		child := &Cell{a: c.a, h: h}
		out[child.node().name] = child.Work()
	}
	return out
}

func (c *Cell) recordRepr() map[string]any {
	n := c.node()
	out := make(map[string]any, len(n.children))
	for _, h := range n.children {
		child := &Cell{a: c.a, h: h}
		out[child.node().name] = child.Repr()
	}
	return out
}

func (c *Cell) unworkRecord(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return c.errPath(KindValueType, fmt.Errorf("record expects a map, got %T", v))
	}
	return c.populateRecord(m, false)
}

func (c *Cell) unreprRecord(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return c.errPath(KindValueType, fmt.Errorf("record expects a map, got %T", v))
	}
	return c.populateRecord(m, true)
}

func (c *Cell) populateRecord(m map[string]any, repr bool) error {
	n := c.node()
	seen := map[string]bool{}
	for _, f := range n.desc.Fields {
		seen[f.Name] = true
		val, present := m[f.Name]

		var child *Cell
		if existing := c.field(f.Name); existing != nil {
			child = existing
		} else {
			child = c.child(f.Name, -1, f.resolve(c))
		}
		if !present {
			continue
		}
		var err error
		if repr {
			err = child.Unrepr(val)
		} else {
			err = child.Unwork(val)
		}
		if err != nil {
			return err
		}
	}
	for k := range m {
		if !seen[k] {
			return c.errPath(KindUnknownField, fmt.Errorf("field %q", k))
		}
	}
	n.defined = true
	return nil
}

func (c *Cell) recordPackLen() int {
	n := c.node()
	max := 0
	pos := fieldOffset{}
	for _, h := range n.children {
		child := &Cell{a: c.a, h: h}
		f := findField(n.desc, child.node().name)
		if f != nil && f.Offset != nil {
			by, bi := f.Offset(c)
			pos = fieldOffset{bytes: by, bits: bi}
		}
		by, bi := child.PackLen()
		end := pos.advance(by, bi)
		total := end.bytes
		if end.bits > 0 {
			total++
		}
		if total > max {
			max = total
		}
		pos = end
	}
	return max
}

func (c *Cell) show(indent int) string {
	pad := strings.Repeat("  ", indent)
	n := c.node()
	switch c.Kind() {
	case KindRecord:
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s {\n", pad, n.desc.Name)
		pos := fieldOffset{}
		for _, h := range n.children {
			child := &Cell{a: c.a, h: h}
			f := findField(n.desc, child.node().name)
			if f != nil && f.Offset != nil {
				by, bi := f.Offset(c)
				pos = fieldOffset{bytes: by, bits: bi}
			}
			fmt.Fprintf(&b, "%s  [%d.%d] %s:\n", pad, pos.bytes, pos.bits, child.node().name)
			b.WriteString(child.show(indent + 2))
			by, bi := child.PackLen()
			pos = pos.advance(by, bi)
		}
		fmt.Fprintf(&b, "%s}\n", pad)
		return b.String()
	case KindArray:
		var b strings.Builder
		fmt.Fprintf(&b, "%s%s [\n", pad, n.desc.Name)
		for i, h := range n.children {
			child := &Cell{a: c.a, h: h}
			fmt.Fprintf(&b, "%s  [%d]:\n", pad, i)
			b.WriteString(child.show(indent + 2))
		}
		fmt.Fprintf(&b, "%s]\n", pad)
		return b.String()
	case KindWrap, KindVarWrap:
		if len(n.children) == 1 {
			return (&Cell{a: c.a, h: n.children[0]}).show(indent)
		}
		return fmt.Sprintf("%s<unresolved %s>\n", pad, n.desc.Name)
	default:
		return fmt.Sprintf("%s%v = %v\n", pad, n.desc.Name, c.Repr())
	}
}
