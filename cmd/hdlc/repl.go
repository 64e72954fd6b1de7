package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively fold calls to persisted units",
	Long: `Read "UNIT [ARG...]" lines and fold each call against the mapped
libraries. End with Ctrl-D`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().Bool("real", false, "units return real values")
	replCmd.Flags().Bool("bounds", false, "report bounds violations as errors")
	replCmd.Flags().Bool("warn", false, "warn when folding is prevented")
	replCmd.Flags().Bool("report", false, "fold through assert and report statements")
	replCmd.Flags().Bool("verbose", false, "log each fold")
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hdlc", "repl_history")
}

func runRepl(cmd *cobra.Command, args []string) error {
	ts, err := newToolSession(cmd)
	if err != nil {
		return err
	}
	flags := evalFlags(cmd, ts)
	realResult, _ := cmd.Flags().GetBool("real")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	hist := historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	for {
		input, err := line.Prompt("hdlc> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			break
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		line.AppendHistory(input)

		result, err := ts.evalUnit(fields[0], fields[1:], realResult, flags)
		ts.printDiagnostics()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		renderResult(os.Stdout, fields[0], result)
	}

	if hist != "" {
		if err := os.MkdirAll(filepath.Dir(hist), 0o755); err == nil {
			if f, err := os.Create(hist); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return nil
}
