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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestGUIDLeafRoundTrip(t *testing.T) {
	c := Empty(GUID())
	id := uuid.New()
	require.NoError(t, c.Unwork(id))
	assert.Equal(t, id.String(), c.Repr())

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Len(t, packed, 16)

	c2 := Empty(GUID())
	require.NoError(t, c2.Unpack(packed, 0))
	assert.Equal(t, id, c2.Work())
}

func TestGUIDLeafUnreprFromString(t *testing.T) {
	c := Empty(GUID())
	id := uuid.New()
	require.NoError(t, c.Unrepr(id.String()))
	assert.Equal(t, id, c.Work())
}

func TestTextLeafRoundTrip(t *testing.T) {
	c := Empty(Text(8, charmap.Windows1252))
	require.NoError(t, c.Unwork("hello"))
	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Len(t, packed, 8)

	c2 := Empty(Text(8, charmap.Windows1252))
	require.NoError(t, c2.Unpack(packed, 0))
	// The encoder zero-pads the remaining bytes; the decoder reflects
	// that padding back as literal NUL runes rather than trimming it.
	assert.Contains(t, c2.Work(), "hello")
}

func TestBitsLeafRecordPacking(t *testing.T) {
	// Two 4-bit fields packed into one byte, low nibble first — the
	// version/ihl layout used by an IPv4-style header.
	desc := Struct("Nibbles",
		Field{Name: "lo", Desc: Bits(4)},
		Field{Name: "hi", Desc: Bits(4)},
	)
	c := Empty(desc)
	require.NoError(t, c.Unwork(map[string]any{"lo": int64(0x5), "hi": int64(0x4)}))

	packed, err := c.Pack()
	require.NoError(t, err)
	require.Len(t, packed, 1)
	assert.Equal(t, byte(0x45), packed[0])

	c2 := Empty(desc)
	require.NoError(t, c2.Unpack(packed, 0))
	lo := c2.Field("lo")
	hi := c2.Field("hi")
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, int64(0x5), lo.Work())
	assert.Equal(t, int64(0x4), hi.Work())
}

func TestCharLeafRepr(t *testing.T) {
	c := Empty(Char())
	require.NoError(t, c.Unwork(byte('A')))
	assert.Equal(t, "A", c.Repr())
}
