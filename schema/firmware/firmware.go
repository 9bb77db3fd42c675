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

// Package firmware is a reference schema for partition-table-style
// firmware images. FPTImage is a close Go rendering of elfesteem's
// file/management_engine.py (Intel ME's FPT header and entry table).
// GPTImage supplements it with a GUID-identified partition table in the
// style of UEFI firmware volumes, since the distilled spec names
// "firmware image" generically rather than naming Intel ME specifically.
// Neither is part of the core engine.
package firmware

import cf "cellforge"

// FPTHeader is Intel ME's Flash Partition Table header.
func FPTHeader() *cf.Descriptor {
	return cf.Struct("FPTHeader",
		cf.Field{Name: "Magic", Desc: cf.Data(4).FixedTo([]byte("$FPT"))},
		cf.Field{Name: "NumEntries", Desc: cf.U32()},
		cf.Field{Name: "Version", Desc: cf.U8()},
		cf.Field{Name: "EntryType", Desc: cf.U8()},
		cf.Field{Name: "HeaderLen", Desc: cf.U8().Default(int64(0x30))},
		cf.Field{Name: "Checksum", Desc: cf.U8()},
		cf.Field{Name: "FlashCycleLifetime", Desc: cf.U16()},
		cf.Field{Name: "FlashCycleLimit", Desc: cf.U16()},
		cf.Field{Name: "UMASize", Desc: cf.U32()},
		cf.Field{Name: "Flags", Desc: cf.U32()},
		cf.Field{Name: "Unknown", Desc: cf.Data(8)},
	)
}

// FPTEntry is one Flash Partition Table entry.
func FPTEntry() *cf.Descriptor {
	return cf.Struct("FPTEntry",
		cf.Field{Name: "Name", Desc: cf.Data(4)},
		cf.Field{Name: "Owner", Desc: cf.Data(4)},
		cf.Field{Name: "Offset", Desc: cf.U32()},
		cf.Field{Name: "Size", Desc: cf.U32()},
		cf.Field{Name: "TokensOnStart", Desc: cf.U32()},
		cf.Field{Name: "MaxTokens", Desc: cf.U32()},
		cf.Field{Name: "ScratchSectors", Desc: cf.U32()},
		cf.Field{Name: "Flags", Desc: cf.U32()},
	)
}

// FPTImage is the whole ME image: a header followed by exactly
// header.NumEntries partition entries, mirroring PartitionTable's
// `count = lambda _: _.parent.hdr.NumEntries`.
func FPTImage() *cf.Descriptor {
	return cf.Struct("FPTImage",
		cf.Field{Name: "header", Desc: FPTHeader()},
		cf.Field{Name: "partitions", Desc: cf.ArrayN(FPTEntry(), fptEntryCount)},
	)
}

func fptEntryCount(c *cf.Cell) (int, bool) {
	return siblingUint32(c, "header", "NumEntries")
}

// NewFPTImage creates an empty, undefined FPT image cell.
func NewFPTImage() *cf.Cell { return cf.Empty(FPTImage()) }

// GPTEntry is one GUID Partition Table entry: type and unique identifiers
// as 16-byte GUIDs (github.com/google/uuid-backed, via the GUID leaf),
// an LBA range, attribute flags, and a fixed-width name.
func GPTEntry() *cf.Descriptor {
	return cf.Struct("GPTEntry",
		cf.Field{Name: "TypeGUID", Desc: cf.GUID()},
		cf.Field{Name: "UniqueGUID", Desc: cf.GUID()},
		cf.Field{Name: "StartingLBA", Desc: cf.U64()},
		cf.Field{Name: "EndingLBA", Desc: cf.U64()},
		cf.Field{Name: "Attributes", Desc: cf.U64()},
		cf.Field{Name: "Name", Desc: cf.Str(72)},
	)
}

// GPTHeader is a UEFI-style GPT header, trimmed to the fields this schema
// exercises (CRC verification is out of scope: see the Non-goals on
// semantic validation beyond declared constraints).
func GPTHeader() *cf.Descriptor {
	return cf.Struct("GPTHeader",
		cf.Field{Name: "Signature", Desc: cf.Data(8).FixedTo([]byte("EFI PART"))},
		cf.Field{Name: "Revision", Desc: cf.U32()},
		cf.Field{Name: "HeaderSize", Desc: cf.U32()},
		cf.Field{Name: "HeaderCRC32", Desc: cf.U32()},
		cf.Field{Name: "Reserved", Desc: cf.U32()},
		cf.Field{Name: "MyLBA", Desc: cf.U64()},
		cf.Field{Name: "AlternateLBA", Desc: cf.U64()},
		cf.Field{Name: "FirstUsableLBA", Desc: cf.U64()},
		cf.Field{Name: "LastUsableLBA", Desc: cf.U64()},
		cf.Field{Name: "DiskGUID", Desc: cf.GUID()},
		cf.Field{Name: "PartitionEntryLBA", Desc: cf.U64()},
		cf.Field{Name: "NumberOfPartitionEntries", Desc: cf.U32()},
		cf.Field{Name: "SizeOfPartitionEntry", Desc: cf.U32()},
		cf.Field{Name: "PartitionEntryArrayCRC32", Desc: cf.U32()},
	)
}

// GPTImage is a header followed by header.NumberOfPartitionEntries GPT
// entries.
func GPTImage() *cf.Descriptor {
	return cf.Struct("GPTImage",
		cf.Field{Name: "header", Desc: GPTHeader()},
		cf.Field{Name: "entries", Desc: cf.ArrayN(GPTEntry(), gptEntryCount)},
	)
}

func gptEntryCount(c *cf.Cell) (int, bool) {
	return siblingUint32(c, "header", "NumberOfPartitionEntries")
}

// NewGPTImage creates an empty, undefined GPT image cell.
func NewGPTImage() *cf.Cell { return cf.Empty(GPTImage()) }

// siblingUint32 reads an already-parsed sibling header field's value, for
// use as an array/varwrap CountFn.
func siblingUint32(c *cf.Cell, headerField, countField string) (int, bool) {
	parent := c.Parent()
	if parent == nil {
		return 0, false
	}
	header := parent.Field(headerField)
	if header == nil {
		return 0, false
	}
	n := header.Field(countField)
	if n == nil {
		return 0, false
	}
	v, ok := n.Work().(int64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
