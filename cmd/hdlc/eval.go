package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hdlc/internal/eval"
	"hdlc/internal/observ"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] <unit> [arg...]",
	Short: "Constant-fold a call to a persisted unit",
	Long: `Load the named unit from the mapped libraries, bind the given
scalar arguments positionally, and fold the call to a literal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().Bool("real", false, "the unit returns a real value")
	evalCmd.Flags().Bool("bounds", false, "report bounds violations as errors")
	evalCmd.Flags().Bool("warn", false, "warn when folding is prevented")
	evalCmd.Flags().Bool("report", false, "fold through assert and report statements")
	evalCmd.Flags().Bool("verbose", false, "log each fold")
}

func evalFlags(cmd *cobra.Command, ts *toolSession) eval.Flags {
	flags := ts.baseFlags()
	if b, _ := cmd.Flags().GetBool("bounds"); b {
		flags |= eval.FlagBounds
	}
	if b, _ := cmd.Flags().GetBool("warn"); b {
		flags |= eval.FlagWarn
	}
	if b, _ := cmd.Flags().GetBool("report"); b {
		flags |= eval.FlagReport
	}
	if b, _ := cmd.Flags().GetBool("verbose"); b {
		flags |= eval.FlagVerbose
	}
	return flags
}

func runEval(cmd *cobra.Command, args []string) error {
	ts, err := newToolSession(cmd)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	phase := timer.Begin("eval")

	realResult, _ := cmd.Flags().GetBool("real")
	result, err := ts.evalUnit(args[0], args[1:], realResult, evalFlags(cmd, ts))

	timer.End(phase, args[0])

	ts.printDiagnostics()
	if err != nil {
		return err
	}
	renderResult(os.Stdout, args[0], result)

	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}
