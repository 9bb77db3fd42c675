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

func headerPayloadDescriptor(bindings *Bindings) *Descriptor {
	return Struct("Frame",
		Field{Name: "kind", Desc: U8()},
		Field{Name: "payload", DescFn: bindings.PayloadDescFn("dummy")},
	)
}

func TestBindingsSelectPicksFirstMatch(t *testing.T) {
	a := Struct("A", Field{Name: "v", Desc: U8()})
	b := Struct("B", Field{Name: "v", Desc: U8()})
	fallback := Struct("Fallback")

	bindings := NewBindings(fallback,
		Binding{Payload: a, When: map[string]any{"kind": int64(1)}},
		Binding{Payload: b, When: map[string]any{"kind": int64(2)}},
	)

	header := Empty(Struct("Header", Field{Name: "kind", Desc: U8()}))
	require.NoError(t, header.Unwork(map[string]any{"kind": int64(2)}))

	assert.Equal(t, b, bindings.Select(header))
}

func TestBindingsSelectFallsBackWhenNoneMatch(t *testing.T) {
	a := Struct("A")
	fallback := Struct("Fallback")
	bindings := NewBindings(fallback, Binding{Payload: a, When: map[string]any{"kind": int64(1)}})

	header := Empty(Struct("Header", Field{Name: "kind", Desc: U8()}))
	require.NoError(t, header.Unwork(map[string]any{"kind": int64(9)}))

	assert.Equal(t, fallback, bindings.Select(header))
}

func TestBindingsSelectFallsBackWhenHeaderNil(t *testing.T) {
	fallback := Struct("Fallback")
	bindings := NewBindings(fallback)
	assert.Equal(t, fallback, bindings.Select(nil))
}

func TestBindingsImputeLeavesExplicitValuesAlone(t *testing.T) {
	a := Struct("A")
	bindings := NewBindings(Struct("Fallback"),
		Binding{Payload: a, When: map[string]any{"kind": int64(1), "flag": int64(0)}})

	headerDesc := Struct("Header",
		Field{Name: "kind", Desc: U8()},
		Field{Name: "flag", Desc: U8()},
	)
	header := Empty(headerDesc)
	require.NoError(t, header.Unwork(map[string]any{"kind": int64(1), "flag": int64(7)}))

	require.NoError(t, bindings.Impute(header, a))
	// "flag" was already explicitly set to 7: Impute must not overwrite it.
	flag := header.Field("flag")
	require.NotNil(t, flag)
	assert.Equal(t, int64(7), flag.Work())
}

func TestBindingsImputeSetsUndefinedFields(t *testing.T) {
	a := Struct("A")
	bindings := NewBindings(Struct("Fallback"),
		Binding{Payload: a, When: map[string]any{"kind": int64(1), "flag": int64(3)}})

	headerDesc := Struct("Header",
		Field{Name: "kind", Desc: U8()},
		Field{Name: "flag", Desc: U8()},
	)
	header := Empty(headerDesc)
	// "kind" is set explicitly; "flag" is left untouched, which still
	// materialises it as an undefined child cell.
	require.NoError(t, header.Unwork(map[string]any{"kind": int64(1)}))

	require.NoError(t, bindings.Impute(header, a))
	flag := header.Field("flag")
	require.NotNil(t, flag)
	assert.Equal(t, int64(3), flag.Work())
}
