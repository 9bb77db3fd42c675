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

	"cellforge/internal/cellerr"
)

// Kind identifies the family of error a [CellError] belongs to.
type Kind int

const (
	_ Kind = iota
	// KindCellDefinition marks a malformed descriptor: conflicting
	// defaults, a union with no alternatives, and similar schema bugs. It
	// is also returned when no wrap option accepts a value and when a
	// defined varwrap's count or packlen is changed.
	KindCellDefinition
	// KindUnpackShort marks a buffer too short to satisfy a cell's
	// fixed or minimum pack length.
	KindUnpackShort
	// KindValueFixed marks an attempt to set a fixed leaf to a value
	// other than its fixed value.
	KindValueFixed
	// KindValueType marks a work value of the wrong Go type for its leaf.
	KindValueType
	// KindLengthMismatch marks a repr/pack whose length disagrees with
	// a declared or computed length.
	KindLengthMismatch
	// KindUnknownField marks a lookup of a record field, union
	// alternative, or virtual subcell that does not exist.
	KindUnknownField
	// KindOverlap marks overlapping writes into the pack buffer that
	// were not resolved with an overwrite option.
	KindOverlap
	// KindPaddingNeeded marks sparse data in the pack buffer with no
	// padding byte supplied.
	KindPaddingNeeded
	// KindRuleViolation names constrained leaves whose defined values
	// disagree. No operation in this package returns it: an Equal
	// component with several distinct defined values is left as it is,
	// and Linear rules are skipped.
	KindRuleViolation
)

func (k Kind) String() string {
	switch k {
	case KindCellDefinition:
		return "cell definition"
	case KindUnpackShort:
		return "unpack short"
	case KindValueFixed:
		return "value fixed"
	case KindValueType:
		return "value type"
	case KindLengthMismatch:
		return "length mismatch"
	case KindUnknownField:
		return "unknown field"
	case KindOverlap:
		return "overlap"
	case KindPaddingNeeded:
		return "padding needed"
	case KindRuleViolation:
		return "rule violation"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per [Kind]. Use [errors.Is] against these; use
// [CellError.Kind] and [CellError.Path] for structured handling.
var (
	ErrCellDefinition = fmt.Errorf("cellforge: malformed cell definition")
	ErrUnpackShort    = fmt.Errorf("cellforge: buffer too short to unpack")
	ErrValueFixed     = fmt.Errorf("cellforge: value disagrees with fixed value")
	ErrValueType      = fmt.Errorf("cellforge: value has the wrong type for this leaf")
	ErrLengthMismatch = fmt.Errorf("cellforge: length mismatch")
	ErrUnknownField   = fmt.Errorf("cellforge: unknown field")
	ErrOverlap        = cellerr.ErrOverlap
	ErrPaddingNeeded  = cellerr.ErrPaddingNeeded
	ErrRuleViolation  = fmt.Errorf("cellforge: constrained leaves disagree")
)

var sentinels = [...]error{
	KindCellDefinition: ErrCellDefinition,
	KindUnpackShort:    ErrUnpackShort,
	KindValueFixed:     ErrValueFixed,
	KindValueType:      ErrValueType,
	KindLengthMismatch: ErrLengthMismatch,
	KindUnknownField:   ErrUnknownField,
	KindOverlap:        ErrOverlap,
	KindPaddingNeeded:  ErrPaddingNeeded,
	KindRuleViolation:  ErrRuleViolation,
}

// CellError is the error type returned by every operation in this package
// that can fail for a reason tied to a specific cell.
type CellError struct {
	Kind  Kind
	Path  string // dotted path from the root cell, e.g. "header.length"
	Cause error  // wrapped detail; may be nil
}

// Error implements [error].
func (e *CellError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cellforge: %s at %q: %v", e.Kind, e.Path, e.Cause)
	}
	return fmt.Sprintf("cellforge: %s at %q", e.Kind, e.Path)
}

// Unwrap implements multi-error unwrapping for [errors.Is] and
// [errors.As] ([errors.Unwrap] does not follow it); it exposes both
// the kind's sentinel and, if present, the underlying cause.
func (e *CellError) Unwrap() []error {
	if e.Cause != nil {
		return []error{sentinels[e.Kind], e.Cause}
	}
	return []error{sentinels[e.Kind]}
}

func cellErr(kind Kind, path string, cause error) *CellError {
	return &CellError{Kind: kind, Path: path, Cause: cause}
}
