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

package main

import (
	"fmt"
	"sort"

	cf "cellforge"
	"cellforge/schema/firmware"
	"cellforge/schema/inet"
)

// schemas maps a --schema name to a constructor for a fresh, undefined
// root cell.
var schemas = map[string]func() *cf.Cell{
	"ip":  inet.NewIP,
	"fpt": firmware.NewFPTImage,
	"gpt": firmware.NewGPTImage,
}

func schemaNames() []string {
	names := make([]string, 0, len(schemas))
	for k := range schemas {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func loadSchema(name string) (*cf.Cell, error) {
	ctor, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q; available: %v", name, schemaNames())
	}
	return ctor(), nil
}
