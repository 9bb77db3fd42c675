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
	"os"

	"github.com/spf13/cobra"

	cf "cellforge"
)

var (
	packSchema    string
	packOut       string
	packWithHoles bool
)

func init() {
	cmd := newPackCmd()
	cmd.Flags().StringVar(&packSchema, "schema", "", "Schema to parse against (ip, fpt, gpt)")
	cmd.Flags().StringVar(&packOut, "out", "", "Output file (defaults to stdout)")
	cmd.Flags().
		BoolVar(&packWithHoles, "with-holes", false, "Preserve unparsed bytes from the original file when repacking")
	cmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(cmd)
}

func newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <file>",
		Short: "Parse a file and immediately repack it, as a round-trip check",
		Long: `The pack command parses a binary file against a schema and writes it
straight back out, optionally preserving any bytes the schema left
unparsed.

Example:
  cellctl pack --schema ip --with-holes packet.bin --out packet.out.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args[0])
		},
	}
}

func runPack(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	cell, err := loadSchema(packSchema)
	if err != nil {
		return err
	}
	if err := cell.Unpack(data, 0, cf.WithSize(len(data))); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}

	var opts []cf.PackOption
	if packWithHoles {
		opts = append(opts, cf.WithHoles())
	}
	out, err := cell.Pack(opts...)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	if packOut == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(packOut, out, 0o644)
}
