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

// Command cellctl is an illustrative CLI over the cellforge engine and
// its reference schemas: it loads a schema by name, unpacks a file
// against it, and prints a labelled dump or repacks the result. It is an
// external collaborator, not part of the engine itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cellctl",
	Short: "Inspect binary files against a cellforge schema",
	Long: `cellctl parses a file against one of cellforge's reference schemas
and prints a labelled dump of the resulting cell tree, or repacks it.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func main() { execute() }
