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
	"github.com/tiendc/go-deepcopy"
)

// clone produces an independent copy of d so that specialisation
// operators (Default, FixedTo, WithEnum, ...) never mutate a descriptor
// another part of the tree still references.
//
// Fields and Rules hold function values and pointers to shared
// sub-descriptors (e.g. a record field reused across several parent
// types); deepcopy's default struct walk would try to copy those
// pointers' pointees too, which is not what specialisation wants here
// (sub-descriptors are immutable and meant to be shared). So clone does
// a shallow copy of the struct and only deep-copies the slice headers
// that specialisation operators append to, using deepcopy for the
// scalar Default/Fixed payloads, which may themselves be structs (e.g. a
// net.IP default value for an address leaf).
func (d *Descriptor) clone() *Descriptor {
	c := *d

	if d.Default != nil {
		var dst any
		if err := deepcopy.Copy(&dst, d.Default); err == nil {
			c.Default = dst
		}
	}
	if d.Fixed != nil {
		var dst any
		if err := deepcopy.Copy(&dst, d.Fixed); err == nil {
			c.Fixed = dst
		}
	}

	c.Fields = append([]Field{}, d.Fields...)
	c.Options = append([]*Descriptor{}, d.Options...)
	c.Rules = append([]Rule{}, d.Rules...)

	return &c
}
