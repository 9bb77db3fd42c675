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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedConstantsLookup(t *testing.T) {
	nc := NewNamedConstants()
	nc.Add(6, "tcp", "Transmission Control Protocol")
	nc.Add(17, "udp")

	name, ok := nc.Name(6)
	require.True(t, ok)
	assert.Equal(t, "tcp", name)

	val, ok := nc.Value("udp")
	require.True(t, ok)
	assert.Equal(t, int64(17), val)

	text, ok := nc.Text(6)
	require.True(t, ok)
	assert.Equal(t, "Transmission Control Protocol", text)

	_, ok = nc.Name(99)
	assert.False(t, ok)
}

func TestLeafEnumReprAndUnrepr(t *testing.T) {
	nc := NewNamedConstants()
	nc.Add(6, "tcp")
	nc.Add(17, "udp")

	c := Empty(U8().WithEnum(nc))
	require.NoError(t, c.Unwork(int64(6)))
	assert.Equal(t, "tcp", c.Repr())

	require.NoError(t, c.Unrepr("udp"))
	assert.Equal(t, int64(17), c.Work())
}

func TestLoadNamedConstantsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "protocols.yaml")
	doc := "- value: 6\n  name: tcp\n  text: Transmission Control Protocol\n- value: 17\n  name: udp\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	nc, err := LoadNamedConstants(path)
	require.NoError(t, err)

	name, ok := nc.Name(6)
	require.True(t, ok)
	assert.Equal(t, "tcp", name)
	val, ok := nc.Value("udp")
	require.True(t, ok)
	assert.Equal(t, int64(17), val)
}
