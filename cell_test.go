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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointDescriptor() *Descriptor {
	return Struct("Point",
		Field{Name: "x", Desc: U16()},
		Field{Name: "y", Desc: U16()},
	)
}

func TestLeafUnpackPack(t *testing.T) {
	c := Empty(U32())
	require.NoError(t, c.Unpack([]byte{0x01, 0x00, 0x00, 0x00}, 0))
	assert.Equal(t, int64(1), c.Work())

	out, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, out)
}

func TestLeafUnpackShort(t *testing.T) {
	c := Empty(U32())
	err := c.Unpack([]byte{0x01, 0x00}, 0)
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindUnpackShort, cerr.Kind)
}

func TestRecordRoundTrip(t *testing.T) {
	desc := pointDescriptor()
	data := []byte{0x02, 0x00, 0x03, 0x00}

	c := Empty(desc)
	require.NoError(t, c.Unpack(data, 0))

	work, ok := c.Work().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(2), work["x"])
	assert.Equal(t, int64(3), work["y"])

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, data, packed)

	bytesLen, bits := c.PackLen()
	assert.Equal(t, 4, bytesLen)
	assert.Equal(t, 0, bits)
}

func TestRecordUnworkAndRepack(t *testing.T) {
	c := Empty(pointDescriptor())
	require.NoError(t, c.Unwork(map[string]any{"x": int64(10), "y": int64(20)}))

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0x00, 0x14, 0x00}, packed)
}

func TestRecordUnknownFieldRejected(t *testing.T) {
	c := Empty(pointDescriptor())
	err := c.Unwork(map[string]any{"x": int64(1), "z": int64(2)})
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindUnknownField, cerr.Kind)
}

func TestArrayUnpackPack(t *testing.T) {
	desc := Array(U8(), 3)
	c := Empty(desc)
	require.NoError(t, c.Unpack([]byte{1, 2, 3}, 0))

	repr, ok := c.Repr().([]any)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, repr)

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, packed)
}

func TestStrRoundTrip(t *testing.T) {
	c := Empty(Str(5))
	require.NoError(t, c.Unpack([]byte("hello"), 0))
	assert.Equal(t, "hello", c.Repr())

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), packed)
}

func TestFixedValueRejectsMismatch(t *testing.T) {
	c := Empty(U8().FixedTo(int64(7)))
	err := c.Unwork(int64(3))
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindValueFixed, cerr.Kind)
}

func TestDefaultAppliesWhenUndefined(t *testing.T) {
	c := Empty(U8().Default(int64(42)))
	assert.Equal(t, int64(42), c.Work())
	assert.False(t, c.IsDef())
}

func TestWrapTriesOptionsInOrder(t *testing.T) {
	desc := Wrap(Data(0), U8(), Str(2))
	c := Empty(desc)
	require.NoError(t, c.Unpack([]byte{0x05}, 0))
	assert.Equal(t, int64(5), c.Work())
}

func TestPathBuildsDottedSegments(t *testing.T) {
	c := Empty(pointDescriptor())
	require.NoError(t, c.Unwork(map[string]any{"x": int64(1), "y": int64(2)}))
	x := c.Field("x")
	require.NotNil(t, x)
	_, path := x.Path()
	assert.Equal(t, "x", path)
}

func TestWithHolesPreservesUnparsedTrailer(t *testing.T) {
	desc := pointDescriptor()
	data := []byte{0x02, 0x00, 0x03, 0x00, 0xde, 0xad, 0xbe, 0xef}

	c := Empty(desc)
	require.NoError(t, c.Unpack(data, 0, WithSize(len(data))))

	packed, err := c.Pack(WithHoles())
	require.NoError(t, err)
	assert.Equal(t, data, packed)

	// Without WithHoles, the trailer is dropped: only the fields the
	// schema understands are written back out.
	plain, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, data[:4], plain)
}

func TestWithHolesExplicitFieldsWinOverOriginalBytes(t *testing.T) {
	desc := pointDescriptor()
	data := []byte{0x02, 0x00, 0x03, 0x00, 0xff, 0xff}

	c := Empty(desc)
	require.NoError(t, c.Unpack(data, 0, WithSize(len(data))))
	require.NoError(t, c.Field("x").Unwork(int64(9)))

	packed, err := c.Pack(WithHoles())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0x00, 0x03, 0x00, 0xff, 0xff}, packed)
}

func TestWithoutExplicitBudgetNoTailCaptured(t *testing.T) {
	desc := pointDescriptor()
	data := []byte{0x02, 0x00, 0x03, 0x00, 0xaa, 0xbb}

	c := Empty(desc)
	require.NoError(t, c.Unpack(data, 0))

	packed, err := c.Pack(WithHoles())
	require.NoError(t, err)
	assert.Equal(t, data[:4], packed)
}

func TestFieldAndElemAccessors(t *testing.T) {
	c := Empty(Array(U8(), 2))
	require.NoError(t, c.Unpack([]byte{9, 8}, 0))
	assert.Nil(t, c.Field("anything"))
	elem := c.Elem(1)
	require.NotNil(t, elem)
	assert.Equal(t, int64(8), elem.Work())
	assert.Nil(t, c.Elem(5))
}
