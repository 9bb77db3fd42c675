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

// Unpack parses c starting at offset in data. The unparsed tail (bytes
// past what this cell's fields consumed, up to the enclosing budget) is
// retained so that [WithHoles] can reproduce it on a later Pack.
func (c *Cell) Unpack(data []byte, offset int, opts ...UnpackOption) error {
	o := buildUnpackOptions(opts)
	c.debugLog("unpack", "offset=%d", offset)
	switch c.Kind() {
	case KindLeaf:
		return c.unpackLeaf(data, offset, o)
	case KindRecord:
		return c.unpackRecord(data, offset, o)
	case KindArray:
		return c.unpackArray(data, offset, o)
	case KindWrap:
		return c.unpackWrap(data, offset, o)
	case KindVarWrap:
		return c.unpackVarWrap(data, offset, o)
	default:
		return c.errPath(KindCellDefinition, fmt.Errorf("unhandled kind %v", c.Kind()))
	}
}

// captureTail retains the bytes between consumed (the count this cell's
// own fields actually parsed, relative to offset) and the caller-declared
// budget o.size, so a later Pack with [WithHoles] can splice them back in.
// It only acts when the caller supplied an explicit budget via [WithSize]:
// a record or array's own field unpacks never do, so this only ever fires
// for the outermost Unpack call a caller makes directly.
func (c *Cell) captureTail(data []byte, offset, consumed int, o unpackOptions) {
	if !o.hasSize || o.size <= consumed {
		return
	}
	n := c.node()
	n.tailOff = consumed
	n.tail = binrepr.New()
	n.tail.Write(consumed, data[offset+consumed:offset+o.size])
}

func (c *Cell) unpackLeaf(data []byte, offset int, o unpackOptions) error {
	n := c.node()
	width := c.leafPackLen()
	if n.desc.Leaf == LeafData && o.hasSize {
		width = o.size
	}
	if offset+width > len(data) {
		return c.errPath(KindUnpackShort, fmt.Errorf("need %d bytes at %d, have %d", width, offset, len(data)))
	}
	return c.leafDecode(data[offset : offset+width])
}

// Pack serialises c to bytes. An undefined leaf with no imputed or
// default value is skipped, not reported: a cell with nothing to write
// packs to an empty slice with no error, and a skipped leaf between
// written bytes leaves a gap that fails with [ErrPaddingNeeded] unless
// [WithPad] is given. Pack does not return nil for an undefined cell;
// [Cell.IsDef] reports whether a cell is defined.
func (c *Cell) Pack(opts ...PackOption) ([]byte, error) {
	o := buildPackOptions(opts)
	buf := binrepr.New()
	if err := c.packInto(buf, 0, o); err != nil {
		return nil, err
	}
	if o.withHoles {
		if t := c.node().tail; t != nil {
			holes, err := t.Pack(0, true, true)
			if err == nil {
				merged := binrepr.New()
				merged.Write(0, holes)
				packed, _ := buf.Pack(0, true, true)
				merged.WriteRange(0, len(packed), packed)
				buf = merged
			}
		}
	}
	return buf.Pack(o.pad, o.hasPad, o.overwrite)
}

// packInto writes c's serialisation into buf at pos.
func (c *Cell) packInto(buf *binrepr.BinRepr, pos int, o packOptions) error {
	switch c.Kind() {
	case KindLeaf:
		if !c.IsDef() {
			if v, ok := c.imputedOrDefault(); ok {
				if err := c.setWork(v); err != nil {
					return err
				}
			} else {
				return nil
			}
		}
		raw, err := c.leafEncode()
		if err != nil {
			return err
		}
		buf.Write(pos, raw)
		return nil
	case KindRecord:
		return c.packRecord(buf, pos, o)
	case KindArray:
		return c.packArray(buf, pos, o)
	case KindWrap:
		return c.packWrap(buf, pos, o)
	case KindVarWrap:
		return c.packVarWrap(buf, pos, o)
	default:
		return c.errPath(KindCellDefinition, fmt.Errorf("unhandled kind %v", c.Kind()))
	}
}

// Work returns the native-value projection of c.
func (c *Cell) Work() any {
	switch c.Kind() {
	case KindLeaf:
		return c.leafWork()
	case KindRecord:
		return c.recordWork()
	case KindArray:
		return c.arrayWork()
	case KindWrap:
		return c.wrapWork()
	case KindVarWrap:
		return c.varWrapWork()
	default:
		return nil
	}
}

// Unwork populates c from a native value tree, the inverse of Work.
func (c *Cell) Unwork(v any) error {
	switch c.Kind() {
	case KindLeaf:
		return c.setLeafChecked(v)
	case KindRecord:
		return c.unworkRecord(v)
	case KindArray:
		return c.unworkArray(v)
	case KindWrap:
		return c.unworkWrap(v)
	case KindVarWrap:
		return c.unworkVarWrap(v)
	default:
		return c.errPath(KindCellDefinition, fmt.Errorf("unhandled kind %v", c.Kind()))
	}
}

func (c *Cell) setWork(v any) error { return c.Unwork(v) }

// Repr returns the human-friendly projection of c.
func (c *Cell) Repr() any {
	switch c.Kind() {
	case KindLeaf:
		return c.leafRepr()
	case KindRecord:
		return c.recordRepr()
	case KindArray:
		return c.arrayRepr()
	case KindWrap:
		return c.wrapRepr()
	case KindVarWrap:
		return c.varWrapRepr()
	default:
		return nil
	}
}

// Unrepr populates c from a human-friendly value, the inverse of Repr.
func (c *Cell) Unrepr(v any) error {
	switch c.Kind() {
	case KindLeaf:
		return c.leafUnrepr(v)
	case KindRecord:
		return c.unreprRecord(v)
	case KindArray:
		return c.unreprArray(v)
	case KindWrap:
		return c.unreprWrap(v)
	case KindVarWrap:
		return c.unreprVarWrap(v)
	default:
		return c.errPath(KindCellDefinition, fmt.Errorf("unhandled kind %v", c.Kind()))
	}
}

// PackLen returns c's byte length as a (bytes, bits) rational pair;
// bits is always 0 except for a bare bit-field leaf read in isolation.
func (c *Cell) PackLen() (bytes int, bits int) {
	switch c.Kind() {
	case KindLeaf:
		return c.packLenFrac()
	case KindRecord:
		return c.recordPackLen(), 0
	case KindArray:
		return c.arrayPackLen(), 0
	case KindWrap:
		return c.wrapPackLen(), 0
	case KindVarWrap:
		return c.varWrapPackLen(), 0
	default:
		return 0, 0
	}
}

// Show renders a multi-line labelled dump of c. Not a round-trip view.
func (c *Cell) Show() string {
	return c.show(0)
}
