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

// Binding names one payload type and the header field values that must
// hold for that payload to be selected (the elfesteem bind_layers
// equivalent, §4.E).
type Binding struct {
	Payload *Descriptor
	When    map[string]any
}

// Bindings is an ordered table, attached to a parent record type, from
// payload descriptor to the sibling header field values required to
// select it. Entries are tried in declaration order; the first whose
// conditions all hold wins.
type Bindings struct {
	entries  []Binding
	fallback *Descriptor
}

// NewBindings builds a binding table. fallback is used both when no
// entry's conditions match on parse, and as the descriptor for any
// payload value not named by an entry on construction.
func NewBindings(fallback *Descriptor, entries ...Binding) *Bindings {
	return &Bindings{entries: append([]Binding{}, entries...), fallback: fallback}
}

// Select returns the payload descriptor whose header conditions are
// satisfied by header's current field values, or the fallback.
func (b *Bindings) Select(header *Cell) *Descriptor {
	for _, e := range b.entries {
		if bindingMatches(header, e.When) {
			return e.Payload
		}
	}
	return b.fallback
}

func bindingMatches(header *Cell, when map[string]any) bool {
	if header == nil {
		return len(when) == 0
	}
	for name, want := range when {
		fc := header.field(name)
		if fc == nil {
			return false
		}
		if !valuesEqual(fc.Work(), want) {
			return false
		}
	}
	return true
}

// PayloadDescFn adapts b into a [Field.DescFn]: headerField names the
// sibling field on the same record that carries the discriminating
// header (e.g. an IP record's "header" field, read for its proto value).
func (b *Bindings) PayloadDescFn(headerField string) func(rec *Cell) *Descriptor {
	return func(rec *Cell) *Descriptor {
		return b.Select(rec.field(headerField))
	}
}

// Impute sets any of header's fields not already explicitly defined to
// the values declared for payload, on construction (§4.E).
func (b *Bindings) Impute(header *Cell, payload *Descriptor) error {
	for _, e := range b.entries {
		if e.Payload != payload {
			continue
		}
		for name, v := range e.When {
			fc := header.field(name)
			if fc == nil || fc.IsDef() {
				continue
			}
			if err := fc.Unwork(v); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
