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

// The below are not interfaces: Pack is on the hot
// path of every serialisation, and a wrapper struct around a closure
// avoids an interface dispatch there. PackOption and UnpackOption keep
// the same shape for symmetry.

// PackOption is a configuration setting for [Cell.Pack].
type PackOption struct{ apply func(*packOptions) }

type packOptions struct {
	pad       byte
	hasPad    bool
	overwrite bool
	withHoles bool
}

// WithPad supplies the padding byte used to fill gaps in the pack
// buffer. Without it, a gap fails with [ErrPaddingNeeded].
func WithPad(b byte) PackOption {
	return PackOption{func(o *packOptions) { o.pad, o.hasPad = b, true }}
}

// WithOverwrite resolves overlapping writes by taking the most recent
// one, instead of failing with [ErrOverlap].
func WithOverwrite() PackOption {
	return PackOption{func(o *packOptions) { o.overwrite = true }}
}

// WithHoles splices the unparsed tail retained from the originating
// unpack (if any) into the packed output, so that round-tripping a
// partially understood file reproduces it byte for byte. Per the design
// notes, with-holes bytes are written first and explicit field writes
// are applied after, so explicit writes take precedence over the raw
// original bytes.
func WithHoles() PackOption {
	return PackOption{func(o *packOptions) { o.withHoles = true }}
}

func buildPackOptions(opts []PackOption) packOptions {
	var o packOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// UnpackOption is a configuration setting for [Cell.Unpack].
type UnpackOption struct{ apply func(*unpackOptions) }

type unpackOptions struct {
	size    int
	hasSize bool
}

// WithSize bounds how many bytes of the buffer this unpack may consume,
// used by raw-data leaves and varwraps whose length comes from an
// enclosing container's remaining budget rather than a self-describing
// field.
func WithSize(n int) UnpackOption {
	return UnpackOption{func(o *unpackOptions) { o.size, o.hasSize = n, true }}
}

func buildUnpackOptions(opts []UnpackOption) unpackOptions {
	var o unpackOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}
