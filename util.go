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
	"encoding/binary"
	"fmt"
	"reflect"
)

// putUint writes v into buf (len(buf) bytes, up to 8) in the given byte
// order.
func putUint(buf []byte, v uint64, order binary.ByteOrder) {
	switch len(buf) {
	case 1:
		buf[0] = byte(v)
	case 2:
		order.PutUint16(buf, uint16(v))
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		// Odd widths (e.g. a 3-byte bit-field spill): build the full
		// 8-byte form and copy out the low len(buf) bytes in the
		// matching endianness.
		var full [8]byte
		order.PutUint64(full[:], v)
		if order == binary.BigEndian {
			copy(buf, full[8-len(buf):])
		} else {
			copy(buf, full[:len(buf)])
		}
	}
}

// getUint reads up to 8 bytes from buf in the given byte order.
func getUint(buf []byte, order binary.ByteOrder) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	default:
		var full [8]byte
		if order == binary.BigEndian {
			copy(full[8-len(buf):], buf)
		} else {
			copy(full[:len(buf)], buf)
		}
		return order.Uint64(full[:])
	}
}

func signExtend(v int64, width int) int64 {
	bits := uint(width * 8)
	if bits >= 64 {
		return v
	}
	shift := 64 - bits
	return (v << shift) >> shift
}

// toInt64 coerces common numeric and byte-ish Go values to int64, for
// leaves whose work value may arrive as any integer type or a bool-like
// byte.
func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case byte:
		return int64(x), nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
		return 0, fmt.Errorf("cannot treat %T as an integer", v)
	}
}

func valuesEqual(a, b any) bool {
	if ai, err := toInt64(a); err == nil {
		if bi, err := toInt64(b); err == nil {
			return ai == bi
		}
	}
	return reflect.DeepEqual(a, b)
}
