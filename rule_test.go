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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equalPairDescriptor() *Descriptor {
	return Struct("Pair",
		Field{Name: "a", Desc: U16()},
		Field{Name: "b", Desc: U16()},
	).WithRules(Equal("a", "b"))
}

func TestEqualRuleImputesSingleDefinedValue(t *testing.T) {
	c := Empty(equalPairDescriptor())
	a := c.child("a", -1, U16())
	require.NoError(t, a.Unwork(int64(1)))
	// "a" set explicitly, "b" never touched: create "b" the same way a
	// record unpack would, then check it imputes from "a".
	b := c.child("b", -1, U16())
	assert.False(t, b.IsDef())
	assert.Equal(t, int64(1), b.Work())
}

func TestEqualRuleNoImputationWhenMultipleDefined(t *testing.T) {
	c := Empty(equalPairDescriptor())
	a := c.child("a", -1, U16())
	b := c.child("b", -1, U16())
	require.NoError(t, a.Unwork(int64(1)))
	require.NoError(t, b.Unwork(int64(2)))
	assert.Equal(t, int64(1), a.Work())
	assert.Equal(t, int64(2), b.Work())
}

func TestEqualRulePropagatesOnPack(t *testing.T) {
	desc := equalPairDescriptor()
	c := Empty(desc)
	a := c.child("a", -1, U16())
	require.NoError(t, a.Unwork(int64(9)))
	_ = c.child("b", -1, U16())

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0x00, 0x09, 0x00}, packed)
}

func TestDefaultImputationAcrossComponentWhenNoneDefined(t *testing.T) {
	desc := Struct("Pair",
		Field{Name: "a", Desc: U16().Default(int64(5))},
		Field{Name: "b", Desc: U16()},
	).WithRules(Equal("a", "b"))
	c := Empty(desc)
	_ = c.child("a", -1, desc.Fields[0].Desc)
	b := c.child("b", -1, desc.Fields[1].Desc)
	assert.Equal(t, int64(5), b.Work())
}

// frameWithLengthPrefixedPayload wires a "length" leaf to a VarWrap
// payload's virtual element count via Equal, the headline §1 scenario: a
// length field that equals the element count of a sibling payload.
func frameWithLengthPrefixedPayload() *Descriptor {
	return Struct("Frame",
		Field{Name: "length", Desc: U8()},
		Field{Name: "payload", Desc: VarWrap(U8())},
	).WithRules(Equal("length", "payload.count"))
}

func TestRuleImputesLeafFromVarWrapVirtualCount(t *testing.T) {
	desc := frameWithLengthPrefixedPayload()
	c := Empty(desc)
	require.NoError(t, c.Unwork(map[string]any{
		"payload": []any{int64(1), int64(2), int64(3)},
	}))

	length := c.Field("length")
	require.NotNil(t, length)
	assert.False(t, length.IsDef())

	packed, err := c.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x01, 0x02, 0x03}, packed)
}

func TestRuleImputesVarWrapVirtualCountFromSiblingLeaf(t *testing.T) {
	desc := frameWithLengthPrefixedPayload()
	c := Empty(desc)
	// "length" is explicit; the payload VarWrap declares no count of its
	// own, so its greedy parse must stop at 3 elements instead of
	// swallowing the trailing 0xff.
	data := []byte{0x03, 0x11, 0x22, 0x33, 0xff}
	require.NoError(t, c.Unpack(data, 0))

	payload := c.Field("payload")
	require.NotNil(t, payload)
	count, ok := payload.VirtualCount()
	require.True(t, ok)
	assert.Equal(t, 3, count)

	work, ok := payload.Work().(map[int]any)
	require.True(t, ok)
	assert.Len(t, work, 3)
}

func TestVarWrapNDeclaresStaticCountFn(t *testing.T) {
	desc := Struct("Frame",
		Field{Name: "length", Desc: U8()},
		Field{Name: "payload", Desc: VarWrapN(U8(), func(c *Cell) (int, bool) {
			lf := c.Parent().Field("length")
			if lf == nil {
				return 0, false
			}
			n, err := toInt64(lf.Work())
			if err != nil {
				return 0, false
			}
			return int(n), true
		})},
	)
	c := Empty(desc)
	require.NoError(t, c.Unpack([]byte{0x02, 0xaa, 0xbb, 0xff}, 0))

	payload := c.Field("payload")
	require.NotNil(t, payload)
	count, ok := payload.VirtualCount()
	require.True(t, ok)
	assert.Equal(t, 2, count)
}

func TestResolveRelPathAndCellAtPathRoundTrip(t *testing.T) {
	c := Empty(equalPairDescriptor())
	a := c.child("a", -1, U16())
	require.NoError(t, a.Unwork(int64(3)))
	b := c.child("b", -1, U16())

	bPath, ok := resolveRelPath(c, "b")
	require.True(t, ok)
	found := cellAtPath(c, bPath)
	require.NotNil(t, found)
	assert.Equal(t, b.node(), found.node())
}
