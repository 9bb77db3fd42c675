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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllRunsJobsIndependently(t *testing.T) {
	jobs := []ParseJob{
		{Desc: U32(), Data: []byte{1, 0, 0, 0}},
		{Desc: U32(), Data: []byte{2, 0, 0, 0}},
		{Desc: U32(), Data: []byte{3, 0, 0, 0}},
	}
	cells, err := ParseAll(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	for i, c := range cells {
		assert.Equal(t, int64(i+1), c.Work())
	}
}

func TestParseAllReturnsFirstError(t *testing.T) {
	jobs := []ParseJob{
		{Desc: U32(), Data: []byte{1, 0, 0, 0}},
		{Desc: U32(), Data: []byte{0, 0}}, // too short
	}
	_, err := ParseAll(context.Background(), jobs)
	require.Error(t, err)
}
