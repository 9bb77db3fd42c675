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

package firmware

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func fptBytes(numEntries uint32) []byte {
	var data []byte
	data = append(data, []byte("$FPT")...)
	data = append(data, le32(numEntries)...)
	data = append(data, 0x01, 0x00, 0x30, 0x00) // Version, EntryType, HeaderLen, Checksum
	data = append(data, le16(0)...)          // FlashCycleLifetime
	data = append(data, le16(0)...)          // FlashCycleLimit
	data = append(data, le32(0)...)          // UMASize
	data = append(data, le32(0)...)          // Flags
	data = append(data, make([]byte, 8)...)  // Unknown
	for i := uint32(0); i < numEntries; i++ {
		data = append(data, []byte("PART")...)
		data = append(data, []byte("OWNR")...)
		data = append(data, le32(0x100)...)
		data = append(data, le32(0x200)...)
		data = append(data, le32(0)...)
		data = append(data, le32(0)...)
		data = append(data, le32(0)...)
		data = append(data, le32(0)...)
	}
	return data
}

func TestFPTImageUnpackUsesSiblingCount(t *testing.T) {
	data := fptBytes(2)
	img := NewFPTImage()
	require.NoError(t, img.Unpack(data, 0))

	partitions := img.Field("partitions")
	require.NotNil(t, partitions)
	assert.NotNil(t, partitions.Elem(0))
	assert.NotNil(t, partitions.Elem(1))
	assert.Nil(t, partitions.Elem(2))
}

func TestFPTImageRejectsWrongMagic(t *testing.T) {
	data := fptBytes(0)
	data[0] = 'X'
	img := NewFPTImage()
	err := img.Unpack(data, 0)
	require.Error(t, err)
}

func TestFPTImageRoundTrip(t *testing.T) {
	data := fptBytes(1)
	img := NewFPTImage()
	require.NoError(t, img.Unpack(data, 0))

	packed, err := img.Pack()
	require.NoError(t, err)
	assert.Equal(t, data, packed)
}

func TestGPTImageZeroEntries(t *testing.T) {
	img := NewGPTImage()
	err := img.Unrepr(map[string]any{
		"header": map[string]any{
			"Signature":                []byte("EFI PART"),
			"Revision":                 int64(0x00010000),
			"HeaderSize":               int64(92),
			"HeaderCRC32":              int64(0),
			"Reserved":                 int64(0),
			"MyLBA":                    int64(1),
			"AlternateLBA":             int64(0),
			"FirstUsableLBA":           int64(34),
			"LastUsableLBA":            int64(0),
			"DiskGUID":                 "00000000-0000-0000-0000-000000000000",
			"PartitionEntryLBA":        int64(2),
			"NumberOfPartitionEntries": int64(0),
			"SizeOfPartitionEntry":     int64(128),
			"PartitionEntryArrayCRC32": int64(0),
		},
		"entries": []any{},
	})
	require.NoError(t, err)

	entries := img.Field("entries")
	require.NotNil(t, entries)
	assert.Nil(t, entries.Elem(0))
}
