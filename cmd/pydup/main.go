package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/pydup/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "pydup",
	Short: "Architectural duplication detector for Python",
	Long: `pydup detects architectural code duplication in Python codebases by
comparing normalized syntax-tree and control-flow representations of
functions, fixed-size statement blocks, and sliding statement segments.

Unlike token-based clone detectors, pydup erases superficial variation
(names, constants, docstrings) while keeping behaviorally significant
structure: call targets, control flow, exception handlers, and match
patterns all stay part of the fingerprint.`,
	Version: version.Short(),
}

func init() {
	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
