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

	"gopkg.in/yaml.v3"
)

// NamedConstants is a bidirectional table between integers and names,
// with an optional human-readable description per entry. It is the
// engine's enumeration support surface (§4.E): representation names that
// appear in the table resolve to the table's numeric value; unknown
// names pass through unchanged; numeric working values that match a
// known value display as that name.
type NamedConstants struct {
	byValue map[int64]string
	byName  map[string]int64
	text    map[int64]string
}

// NewNamedConstants builds a table from value/name pairs.
func NewNamedConstants() *NamedConstants {
	return &NamedConstants{
		byValue: map[int64]string{},
		byName:  map[string]int64{},
		text:    map[int64]string{},
	}
}

// Add registers one constant. Additive: calling Add again for a value
// already present overwrites its name, matching the schema-extension
// story described in §4.E.
func (nc *NamedConstants) Add(value int64, name string, text ...string) *NamedConstants {
	nc.byValue[value] = name
	nc.byName[name] = value
	if len(text) > 0 {
		nc.text[value] = text[0]
	}
	return nc
}

// Name returns the name for value, or ok=false if unregistered.
func (nc *NamedConstants) Name(value int64) (string, bool) {
	n, ok := nc.byValue[value]
	return n, ok
}

// Value returns the numeric value for name, or ok=false if unregistered
// (callers then fall back to parsing name literally, per §3.2 invariant 7).
func (nc *NamedConstants) Value(name string) (int64, bool) {
	v, ok := nc.byName[name]
	return v, ok
}

// Text returns the human-readable description for value, if any.
func (nc *NamedConstants) Text(value int64) (string, bool) {
	t, ok := nc.text[value]
	return t, ok
}

// namedConstantEntry is one row of a YAML-encoded constants table, the
// schema-agnostic generalisation of inet.py's /etc/protocols loader.
type namedConstantEntry struct {
	Value int64  `yaml:"value"`
	Name  string `yaml:"name"`
	Text  string `yaml:"text,omitempty"`
}

// LoadNamedConstants reads a YAML document of the form
//
//	- value: 6
//	  name: TCP
//	  text: Transmission Control Protocol
//
// and builds a [NamedConstants] table from it.
func LoadNamedConstants(path string) (*NamedConstants, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []namedConstantEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	nc := NewNamedConstants()
	for _, e := range entries {
		nc.Add(e.Value, e.Name, e.Text)
	}
	return nc, nil
}
