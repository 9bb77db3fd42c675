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

	"golang.org/x/text/encoding"
)

// CellKind is the fixed-at-declaration-time family a [Descriptor] belongs
// to: leaf, record, array, wrap, or varwrap.
type CellKind int

const (
	KindLeaf CellKind = iota
	KindRecord
	KindArray
	KindWrap
	KindVarWrap
)

func (k CellKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindWrap:
		return "wrap"
	case KindVarWrap:
		return "varwrap"
	default:
		return "unknown"
	}
}

// LeafKind distinguishes the primitive content a leaf descriptor carries.
type LeafKind int

const (
	LeafInt LeafKind = iota
	LeafPtr
	LeafBits
	LeafChar
	LeafData
	LeafGUID
	LeafText
)

// Field is one named, positioned member of a record descriptor.
type Field struct {
	Name string
	Desc *Descriptor
	// DescFn resolves this field's descriptor dynamically from the
	// record cell being unpacked, when Desc is nil — the bind_layers
	// equivalent (§4.E): a payload field whose concrete type depends on
	// an already-parsed sibling header field. See [Bindings.PayloadDescFn].
	DescFn func(rec *Cell) *Descriptor
	// Offset computes this field's position relative to the record's
	// origin, as a (bytes, bits) pair, given the already-unpacked
	// sibling fields that precede it. A nil Offset means "cumulative":
	// immediately after the previous field's packlen.
	Offset func(prior *Cell) (bytes int, bits int)
}

func (f *Field) resolve(rec *Cell) *Descriptor {
	if f.Desc != nil {
		return f.Desc
	}
	return f.DescFn(rec)
}

// CountFn computes a declared element count for an array or varwrap,
// given the cell being unpacked (so the count may reference a sibling
// field already parsed).
type CountFn func(c *Cell) (int, bool)

// BudgetFn computes a declared byte budget for a varwrap.
type BudgetFn func(c *Cell) (int, bool)

// Descriptor is an immutable, class-level blueprint for a cell type.
//
// Descriptors are specialised by returning a shallow clone with one field
// changed (Default, Fixed, Enum, element type, count, ...), never by
// mutating a shared value in place; see clone.go.
type Descriptor struct {
	Kind CellKind
	Name string // type name, for diagnostics and Show

	// Leaf fields.
	Leaf     LeafKind
	Width    int  // byte width for LeafInt/LeafData; bit width for LeafBits; unused for LeafPtr (see PtrSize)
	Signed   bool
	Endian   binary.ByteOrder
	Encoding encoding.Encoding // for LeafText

	// Record fields.
	Fields []Field

	// Array / VarWrap element type.
	Elem *Descriptor

	// Array fixed count; VarWrap declared count/budget (either may be nil).
	Count  CountFn
	Budget BudgetFn

	// Wrap / VarWrap options, tried in order; Fallback is the type used
	// when no option matches (typically raw Data).
	Options  []*Descriptor
	Fallback *Descriptor

	// Specialisations shared by every kind.
	Default    any
	HasDefault bool
	Fixed      any
	HasFixed   bool
	Enum       *NamedConstants

	// Rules declared at this cell's class.
	Rules []Rule

	// PtrSize is inherited by descendant Ptr leaves unless overridden.
	PtrSize int
}

// Leaf constructors.

func Int(width int, signed bool) *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafInt, Width: width, Signed: signed, Name: "Int"}
}

func U8() *Descriptor  { return Int(1, false) }
func U16() *Descriptor { return Int(2, false) }
func U32() *Descriptor { return Int(4, false) }
func U64() *Descriptor { return Int(8, false) }
func I8() *Descriptor  { return Int(1, true) }
func I16() *Descriptor { return Int(2, true) }
func I32() *Descriptor { return Int(4, true) }
func I64() *Descriptor { return Int(8, true) }

func Ptr(size int) *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafPtr, PtrSize: size, Name: "Ptr"}
}

func Bits(width int) *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafBits, Width: width, Name: "Bits"}
}

func Char() *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafChar, Width: 1, Name: "Char"}
}

func Data(length int) *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafData, Width: length, Name: "Data"}
}

func GUID() *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafGUID, Width: 16, Name: "GUID"}
}

// Text is an encoded-string leaf: a fixed-length byte run decoded through
// enc for its repr view. Distinct from Str, which is an array of Char
// cells with no encoding applied.
func Text(length int, enc encoding.Encoding) *Descriptor {
	return &Descriptor{Kind: KindLeaf, Leaf: LeafText, Width: length, Encoding: enc, Name: "Text"}
}

// Struct declares a record with cumulative (struct-like) offsets for any
// field whose Offset func is nil.
func Struct(name string, fields ...Field) *Descriptor {
	return &Descriptor{Kind: KindRecord, Name: name, Fields: fields}
}

// Array declares a fixed-length array of count elements of elem. For a
// count computed from a sibling field, use [ArrayN].
func Array(elem *Descriptor, count int) *Descriptor {
	return &Descriptor{Kind: KindArray, Elem: elem, Count: constCount(count), Name: "Array"}
}

// ArrayN declares a fixed-length array whose count is computed at parse
// time (e.g. from a sibling length field).
func ArrayN(elem *Descriptor, count CountFn) *Descriptor {
	return &Descriptor{Kind: KindArray, Elem: elem, Count: count, Name: "Array"}
}

// Str declares a fixed-length string: an array of Char with a
// glyph-concatenating repr view.
func Str(length int) *Descriptor {
	d := Array(Char(), length)
	d.Name = "Str"
	return d
}

// Wrap declares a tagged-union cell: options are tried in declaration
// order; fallback (default: raw Data) is used when none match.
func Wrap(fallback *Descriptor, options ...*Descriptor) *Descriptor {
	if fallback == nil {
		fallback = Data(0)
	}
	return &Descriptor{Kind: KindWrap, Options: options, Fallback: fallback, Name: "Wrap"}
}

// VarWrap declares a variable-length array wrapped in a union of (count
// or budget)-aware greedy parsing and a raw fallback.
func VarWrap(elem *Descriptor) *Descriptor {
	return &Descriptor{Kind: KindVarWrap, Elem: elem, Fallback: Data(0), Name: "VarWrap"}
}

// VarWrapN declares a VarWrap whose element count is computed at parse
// time (e.g. from a sibling length field), mirroring ArrayN. A VarWrap
// built this way can still be tied to a sibling leaf via [Descriptor.WithRules]
// and [Equal] against its "count" path, so that an undefined sibling
// leaf is imputed from the parsed count as well.
func VarWrapN(elem *Descriptor, count CountFn) *Descriptor {
	d := VarWrap(elem)
	d.Count = count
	return d
}

// WithCount returns a clone of d (a VarWrap descriptor) with its element
// count computed at parse time by fn, mirroring [ArrayN].
func (d *Descriptor) WithCount(fn CountFn) *Descriptor {
	c := d.clone()
	c.Count = fn
	return c
}

// WithBudget returns a clone of d (a VarWrap descriptor) with its byte
// budget computed at parse time by fn — the packlen-side counterpart of
// [Descriptor.WithCount].
func (d *Descriptor) WithBudget(fn BudgetFn) *Descriptor {
	c := d.clone()
	c.Budget = fn
	return c
}

// VarStr is a VarWrap of Char elements, greedily parsed, with a
// glyph-concatenating repr view.
func VarStr() *Descriptor {
	d := VarWrap(Char())
	d.Name = "VarStr"
	return d
}

func constCount(n int) CountFn {
	return func(*Cell) (int, bool) { return n, true }
}

// Default returns a clone of d with a class-level default value: read
// through work while undefined returns v instead of failing.
func (d *Descriptor) Default(v any) *Descriptor {
	c := d.clone()
	c.Default, c.HasDefault = v, true
	return c
}

// FixedTo returns a clone of d constrained so that every set or parse must
// agree with v, or the operation fails with [ErrValueFixed].
func (d *Descriptor) FixedTo(v any) *Descriptor {
	c := d.clone()
	c.Fixed, c.HasFixed = v, true
	return c
}

// WithEnum attaches a named-constants table to a numeric leaf descriptor.
func (d *Descriptor) WithEnum(nc *NamedConstants) *Descriptor {
	c := d.clone()
	c.Enum = nc
	return c
}

// WithEndian overrides the byte order inherited by this descriptor and
// its descendants.
func (d *Descriptor) WithEndian(e binary.ByteOrder) *Descriptor {
	c := d.clone()
	c.Endian = e
	return c
}

// WithRules attaches rules to this descriptor's class.
func (d *Descriptor) WithRules(rules ...Rule) *Descriptor {
	c := d.clone()
	c.Rules = append(append([]Rule{}, c.Rules...), rules...)
	return c
}

// WithPtrSize overrides the inherited pointer width for this descriptor
// and its descendants.
func (d *Descriptor) WithPtrSize(bits int) *Descriptor {
	c := d.clone()
	c.PtrSize = bits
	return c
}
