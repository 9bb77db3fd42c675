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
)

var dumpSchema string

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpSchema, "schema", "", "Schema to parse against (ip, fpt, gpt)")
	cmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Parse a file against a schema and print a labelled dump",
		Long: `The dump command parses a binary file against one of cellforge's
reference schemas and prints the resulting cell tree.

Example:
  cellctl dump --schema ip packet.bin
  cellctl dump --schema fpt image.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
}

func runDump(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	printVerbose("parsing %s (%d bytes) against schema %q\n", path, len(data), dumpSchema)

	cell, err := loadSchema(dumpSchema)
	if err != nil {
		return err
	}
	if err := cell.Unpack(data, 0); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	fmt.Print(cell.Show())
	return nil
}
