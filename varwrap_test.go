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

func TestVarWrapGreedyParseConsumesWholeBuffer(t *testing.T) {
	c := Empty(VarWrap(U8()))
	require.NoError(t, c.Unpack([]byte{1, 2, 3}, 0))

	count, ok := c.VirtualCount()
	require.True(t, ok)
	assert.Equal(t, 3, count)

	repr, ok := c.Repr().([]any)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, repr)
}

func TestVarStrGreedyParse(t *testing.T) {
	c := Empty(VarStr())
	require.NoError(t, c.Unpack([]byte("hi"), 0))
	assert.Equal(t, "hi", c.Repr())
}

func TestVarWrapBoundedByWithSize(t *testing.T) {
	c := Empty(VarWrap(U8()))
	require.NoError(t, c.Unpack([]byte{1, 2, 3, 4}, 0, WithSize(2)))
	count, _ := c.VirtualCount()
	assert.Equal(t, 2, count)
}

func TestVarWrapWrongCountWhenBothDeclared(t *testing.T) {
	elem := VarWrap(U8())
	c := Empty(elem)
	require.NoError(t, c.SetVirtualCount(5))
	require.NoError(t, c.SetVirtualPackLen(3))

	err := c.Unpack([]byte{1, 2, 3}, 0)
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindLengthMismatch, cerr.Kind)
}

func TestVarWrapWrongPacklenWhenBothDeclaredButCountReached(t *testing.T) {
	c := Empty(VarWrap(U8()))
	require.NoError(t, c.SetVirtualCount(2))
	require.NoError(t, c.SetVirtualPackLen(5))

	err := c.Unpack([]byte{1, 2, 3}, 0, WithSize(3))
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindLengthMismatch, cerr.Kind)
}

func TestVarWrapRejectsMutationOnceDefined(t *testing.T) {
	c := Empty(VarWrap(U8()))
	require.NoError(t, c.Unpack([]byte{1, 2}, 0))

	err := c.SetVirtualCount(9)
	require.Error(t, err)
	var cerr *CellError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, KindCellDefinition, cerr.Kind)
}

func TestVarWrapUnworkAndRepack(t *testing.T) {
	c := Empty(VarWrap(U16()))
	require.NoError(t, c.Unwork([]any{int64(1), int64(2)}))

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x00}, packed)
}
