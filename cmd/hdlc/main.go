package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hdlc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "hdlc",
	Short: "HDL front-end compile-time evaluator toolchain",
	Long:  `hdlc folds constant expressions of a hardware design library down to literal values`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringArray("lib", nil, "map a library: NAME=DIR (repeatable)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the output stream.
func useColor(mode string, f *os.File) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}
