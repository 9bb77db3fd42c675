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
	"strconv"

	"github.com/google/uuid"
)

// leafPackLen returns the byte width a leaf descriptor occupies when
// defined. Bit-field widths are reported in bits by the caller via
// packLenFrac; this is only the whole-byte case.
func (c *Cell) leafPackLen() int {
	d := c.node().desc
	switch d.Leaf {
	case LeafInt:
		return d.Width
	case LeafPtr:
		return c.ptrSize()
	case LeafChar:
		return 1
	case LeafData, LeafGUID, LeafText:
		return d.Width
	case LeafBits:
		return (d.Width + 7) / 8
	default:
		return 0
	}
}

// packLenFrac returns the pack length as a (bytes, bits) rational pair,
// per the design note on fractional offsets: bit-fields report a
// fractional part, everything else reports bits=0.
func (c *Cell) packLenFrac() (bytes int, bits int) {
	d := c.node().desc
	if d.Leaf == LeafBits {
		return d.Width / 8, d.Width % 8
	}
	return c.leafPackLen(), 0
}

// leafEncode renders the leaf's current work value to bytes, ignoring
// any sub-byte bit position (the caller composes bit-fields separately).
func (c *Cell) leafEncode() ([]byte, error) {
	n := c.node()
	d := n.desc
	switch d.Leaf {
	case LeafInt, LeafBits:
		v, err := toInt64(n.leafVal)
		if err != nil {
			return nil, c.errPath(KindValueType, err)
		}
		width := d.Width
		if d.Leaf == LeafBits {
			width = (d.Width + 7) / 8
		}
		buf := make([]byte, width)
		putUint(buf, uint64(v), c.endian())
		return buf, nil
	case LeafPtr:
		v, err := toInt64(n.leafVal)
		if err != nil {
			return nil, c.errPath(KindValueType, err)
		}
		buf := make([]byte, c.ptrSize())
		putUint(buf, uint64(v), c.endian())
		return buf, nil
	case LeafChar:
		s, ok := n.leafVal.(byte)
		if !ok {
			b, ok2 := n.leafVal.(int64)
			if !ok2 {
				return nil, c.errPath(KindValueType, fmt.Errorf("char leaf holds %T", n.leafVal))
			}
			s = byte(b)
		}
		return []byte{s}, nil
	case LeafData:
		b, ok := n.leafVal.([]byte)
		if !ok {
			return nil, c.errPath(KindValueType, fmt.Errorf("data leaf holds %T", n.leafVal))
		}
		return b, nil
	case LeafGUID:
		id, ok := n.leafVal.(uuid.UUID)
		if !ok {
			return nil, c.errPath(KindValueType, fmt.Errorf("guid leaf holds %T", n.leafVal))
		}
		out := make([]byte, 16)
		copy(out, id[:])
		return out, nil
	case LeafText:
		s, ok := n.leafVal.(string)
		if !ok {
			return nil, c.errPath(KindValueType, fmt.Errorf("text leaf holds %T", n.leafVal))
		}
		enc, err := d.Encoding.NewEncoder().String(s)
		if err != nil {
			return nil, c.errPath(KindValueType, err)
		}
		out := make([]byte, d.Width)
		copy(out, enc)
		return out, nil
	default:
		return nil, c.errPath(KindCellDefinition, fmt.Errorf("unhandled leaf kind %v", d.Leaf))
	}
}

// leafDecode populates the leaf's work value from raw bytes (exactly
// leafPackLen(), or d.Width bits for a bit-field extracted separately).
func (c *Cell) leafDecode(raw []byte) error {
	n := c.node()
	d := n.desc
	switch d.Leaf {
	case LeafInt:
		v := int64(getUint(raw, c.endian()))
		if d.Signed {
			v = signExtend(v, d.Width)
		}
		return c.setLeafChecked(v)
	case LeafBits:
		v := int64(getUint(raw, c.endian()))
		return c.setLeafChecked(v)
	case LeafPtr:
		return c.setLeafChecked(int64(getUint(raw, c.endian())))
	case LeafChar:
		return c.setLeafChecked(raw[0])
	case LeafData:
		out := make([]byte, len(raw))
		copy(out, raw)
		return c.setLeafChecked(out)
	case LeafGUID:
		var id uuid.UUID
		copy(id[:], raw)
		return c.setLeafChecked(id)
	case LeafText:
		s, err := d.Encoding.NewDecoder().String(string(raw))
		if err != nil {
			return c.errPath(KindValueType, err)
		}
		return c.setLeafChecked(s)
	default:
		return c.errPath(KindCellDefinition, fmt.Errorf("unhandled leaf kind %v", d.Leaf))
	}
}

// setLeafChecked sets a leaf's work value, enforcing the fixed-value
// invariant (§3.2.6).
func (c *Cell) setLeafChecked(v any) error {
	n := c.node()
	if n.desc.HasFixed && !valuesEqual(v, n.desc.Fixed) {
		return c.errPath(KindValueFixed, fmt.Errorf("got %v, want fixed value %v", v, n.desc.Fixed))
	}
	n.leafVal = v
	n.defined = true
	return nil
}

func (c *Cell) leafWork() any {
	n := c.node()
	if !n.defined {
		if v, ok := c.imputedOrDefault(); ok {
			return v
		}
		return nil
	}
	return n.leafVal
}

func (c *Cell) leafRepr() any {
	n := c.node()
	v := c.leafWork()
	if v == nil {
		return nil
	}
	if n.desc.Enum != nil {
		if iv, err := toInt64(v); err == nil {
			if name, ok := n.desc.Enum.Name(iv); ok {
				return name
			}
		}
	}
	switch n.desc.Leaf {
	case LeafChar:
		switch b := v.(type) {
		case byte:
			return string(rune(b))
		case int64:
			return string(rune(b))
		}
	case LeafGUID:
		if id, ok := v.(uuid.UUID); ok {
			return id.String()
		}
	}
	return v
}

func (c *Cell) leafUnrepr(v any) error {
	n := c.node()
	if n.desc.Enum != nil {
		if s, ok := v.(string); ok {
			if iv, ok := n.desc.Enum.Value(s); ok {
				return c.setLeafChecked(coerceToLeafType(n.desc, iv))
			}
		}
	}
	switch n.desc.Leaf {
	case LeafChar:
		if s, ok := v.(string); ok && len(s) > 0 {
			return c.setLeafChecked(s[0])
		}
	case LeafGUID:
		if s, ok := v.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return c.errPath(KindValueType, err)
			}
			return c.setLeafChecked(id)
		}
	case LeafInt, LeafBits, LeafPtr:
		switch x := v.(type) {
		case string:
			iv, err := strconv.ParseInt(x, 0, 64)
			if err != nil {
				return c.errPath(KindValueType, err)
			}
			return c.setLeafChecked(iv)
		default:
			iv, err := toInt64(v)
			if err != nil {
				return c.errPath(KindValueType, err)
			}
			return c.setLeafChecked(iv)
		}
	}
	return c.setLeafChecked(v)
}

func coerceToLeafType(d *Descriptor, iv int64) any {
	switch d.Leaf {
	case LeafChar:
		return byte(iv)
	default:
		return iv
	}
}
