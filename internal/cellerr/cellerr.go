// Package cellerr holds the sentinel error values shared between the root
// cellforge package and its internal/binrepr dependency.
//
// binrepr needs to report overlap and missing-data conditions using the
// same sentinels the root package exposes as cellforge.ErrOverlap and
// cellforge.ErrPaddingNeeded, but the root package cannot be imported from
// binrepr without creating a cycle. Both sides import this package instead.
package cellerr

import "errors"

var (
	// ErrOverlap is returned when packing a sparse buffer that has more
	// than one write at some offset and the caller did not request
	// overwrite semantics.
	ErrOverlap = errors.New("overlapping chunks")

	// ErrPaddingNeeded is returned when packing a sparse buffer with gaps
	// and the caller did not supply a padding byte.
	ErrPaddingNeeded = errors.New("missing data")
)
