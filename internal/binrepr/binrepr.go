// Package binrepr implements a sparse, possibly-overlapping byte buffer.
//
// A BinRepr is addressed by byte offset. Writes at the same offset do not
// overwrite previous data by default; instead the buffer keeps a short
// history of every write that touched a given position, so that later
// callers can choose to either reject the ambiguity (the default) or take
// the most recent write (overwrite mode). Reads of a region with no data
// at all are likewise an error unless the caller supplies a padding byte.
//
// This mirrors elfesteem's BinRepr/BinChunk: a chunk records every write
// that landed at its position, ordered oldest-first, with the most recent
// write last.
package binrepr

import (
	"cellforge/internal/cellerr"
	"cellforge/internal/tree23"
)

// chunk is a run of bytes starting at pos. data holds every distinct write
// that has touched this position, oldest first; data[len(data)-1] is the
// most recent.
type chunk struct {
	pos  int
	data [][]byte
}

// BinRepr is a sparse byte buffer.
//
// The zero value is an empty buffer.
type BinRepr struct {
	chunks tree23.Tree[chunkKey]
	byPos  map[int]*chunk
}

// chunkKey orders chunks in the tree by position; the tree only ever
// stores one key per position (duplicate positions mutate chunk.data
// in place rather than inserting a new tree entry), so equal keys never
// arise here despite tree23 permitting them.
type chunkKey int

func (b *BinRepr) ensure() {
	if b.byPos == nil {
		b.byPos = make(map[int]*chunk)
	}
}

func (b *BinRepr) chunkAt(pos int) (*chunk, bool) {
	if b.byPos == nil {
		return nil, false
	}
	c, ok := b.byPos[pos]
	return c, ok
}

func (b *BinRepr) insertChunk(c *chunk) {
	b.ensure()
	b.byPos[c.pos] = c
	b.chunks.Insert(chunkKey(c.pos))
}

// lfind returns the chunk at or immediately before pos (the original's
// lfind), or nil.
func (b *BinRepr) lfind(pos int) *chunk {
	k, ok := b.chunks.Predecessor(chunkKey(pos))
	if !ok {
		return nil
	}
	c, _ := b.chunkAt(int(k))
	return c
}

// rfind returns the chunk strictly after pos (the original's rfind), or
// nil.
func (b *BinRepr) rfind(pos int) *chunk {
	k, ok := b.chunks.Successor(chunkKey(pos))
	if !ok {
		return nil
	}
	c, _ := b.chunkAt(int(k))
	return c
}

// New creates an empty buffer, optionally pre-populated with data at
// offset 0.
func New(data ...[]byte) *BinRepr {
	b := &BinRepr{}
	if len(data) > 1 {
		panic("binrepr: New accepts at most one initial payload")
	}
	if len(data) == 1 && len(data[0]) > 0 {
		b.writeAt(0, data[0])
	}
	return b
}

// ByteLen returns the length of the buffer: the end of the last chunk.
func (b *BinRepr) ByteLen() int {
	sz := 0
	for k := range b.chunks.All() {
		c, _ := b.chunkAt(int(k))
		end := c.pos + len(c.data[len(c.data)-1])
		if end > sz {
			sz = end
		}
	}
	return sz
}

// Append writes data at the current end of the buffer.
func (b *BinRepr) Append(data []byte) {
	b.writeAt(b.ByteLen(), data)
}

// Write writes data at pos as a new overlapping layer: if other data has
// already been written there, both are kept and any later pack/read must
// resolve the ambiguity.
func (b *BinRepr) Write(pos int, data []byte) {
	b.writeAt(pos, data)
}

// WriteRange replaces the byte range [start, stop) outright, discarding
// any earlier overlapping history in that range.
func (b *BinRepr) WriteRange(start, stop int, data []byte) {
	if stop-start != len(data) {
		panic("binrepr: WriteRange length mismatch")
	}
	b.writeAt(start, data)
	pos := start
	for pos < stop {
		c := b.lfind(pos)
		if c == nil {
			break
		}
		last := c.data[len(c.data)-1]
		c.data = [][]byte{last}
		pos += len(last)
	}
}

func (b *BinRepr) writeAt(pos int, data []byte) {
	if len(data) == 0 {
		return
	}
	if nxt := b.rfind(pos); nxt != nil && pos+len(data) > nxt.pos {
		b.writeAt(pos, data[:nxt.pos-pos])
		b.writeAt(nxt.pos, data[nxt.pos-pos:])
		return
	}
	c := b.splitAt(pos)
	if c == nil {
		b.insertChunk(&chunk{pos: pos, data: [][]byte{clone(data)}})
		return
	}
	l, ld := len(c.data[len(c.data)-1]), len(data)
	switch {
	case ld > l:
		b.insertChunk(&chunk{pos: pos + l, data: [][]byte{clone(data[l:])}})
		data = data[:l]
	case ld < l:
		b.splitAt(pos + ld)
	}
	if !bytesEqual(data, c.data[len(c.data)-1]) {
		c.data = append(c.data, clone(data))
	}
}

// splitAt splits whatever chunk covers pos into two, so that pos becomes
// the start of its own chunk. Returns the (possibly new) chunk starting at
// pos, or nil if pos lies before everything or past the end of its
// covering chunk.
func (b *BinRepr) splitAt(pos int) *chunk {
	prv := b.lfind(pos)
	if prv == nil {
		return nil
	}
	shift := pos - prv.pos
	if shift == 0 {
		return prv
	}
	if shift >= len(prv.data[len(prv.data)-1]) {
		return nil
	}
	tail := make([][]byte, len(prv.data))
	for i, d := range prv.data {
		tail[i] = clone(d[shift:])
	}
	b.insertChunk(&chunk{pos: pos, data: tail})
	for i, d := range prv.data {
		prv.data[i] = d[:shift]
	}
	c, _ := b.chunkAt(pos)
	return c
}

// ReadRange returns the bytes in [start, stop). If overwrite is false and
// any byte in the range has more than one write, ErrOverlap is returned.
// If any byte in the range has no data, pad is used if hasPad is true;
// otherwise ErrPaddingNeeded is returned.
func (b *BinRepr) ReadRange(start, stop int, pad byte, hasPad, overwrite bool) ([]byte, error) {
	res := make([]byte, 0, stop-start)
	pos := start
	for pos < stop {
		prv := b.lfind(pos)
		if prv == nil || pos-prv.pos >= len(prv.data[len(prv.data)-1]) {
			if !hasPad {
				return nil, cellerr.ErrPaddingNeeded
			}
			res = append(res, pad)
			pos++
			continue
		}
		if !overwrite && len(prv.data) > 1 {
			return nil, cellerr.ErrOverlap
		}
		last := prv.data[len(prv.data)-1]
		res = append(res, last[pos-prv.pos])
		pos++
	}
	return res, nil
}

// Read returns the byte at pos, or nil if nothing has been written there.
// If there is overlapping data at pos, it returns every layer, oldest
// first.
func (b *BinRepr) Read(pos int) [][]byte {
	prv := b.lfind(pos)
	if prv == nil {
		return nil
	}
	off := pos - prv.pos
	if off >= len(prv.data[len(prv.data)-1]) {
		return nil
	}
	res := make([][]byte, len(prv.data))
	for i, d := range prv.data {
		res[i] = []byte{d[off]}
	}
	return res
}

// Pack flattens the whole buffer to a contiguous byte slice. If overwrite
// is false and any chunk has more than one write, ErrOverlap is returned.
// If there are gaps and hasPad is false, ErrPaddingNeeded is returned.
//
// Chunks never overlap in span: each write splits at existing chunk
// boundaries, so chunk.pos only ever advances.
func (b *BinRepr) Pack(pad byte, hasPad, overwrite bool) ([]byte, error) {
	res := make([]byte, 0, b.ByteLen())
	for k := range b.chunks.All() {
		c, _ := b.chunkAt(int(k))
		if !overwrite && len(c.data) > 1 {
			return nil, cellerr.ErrOverlap
		}
		if len(res) < c.pos {
			if !hasPad {
				return nil, cellerr.ErrPaddingNeeded
			}
			for len(res) < c.pos {
				res = append(res, pad)
			}
		}
		res = append(res, c.data[len(c.data)-1]...)
	}
	return res, nil
}

// Xor bitwise-xors arg into the buffer starting at offset, treating any
// gap in the existing buffer as zero.
func (b *BinRepr) Xor(arg []byte, offset int) error {
	cur, err := b.ReadRange(offset, offset+len(arg), 0, true, true)
	if err != nil {
		return err
	}
	out := make([]byte, len(arg))
	for i := range arg {
		out[i] = cur[i] ^ arg[i]
	}
	b.WriteRange(offset, offset+len(out), out)
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
