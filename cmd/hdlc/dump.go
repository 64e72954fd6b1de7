package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hdlc/internal/vcode"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <unit>",
	Short: "Print the vcode of a persisted unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	ts, err := newToolSession(cmd)
	if err != nil {
		return err
	}

	name := strings.ToUpper(args[0])
	u := ts.reg.Find(name)
	if u == nil {
		return fmt.Errorf("unit %s not found in any mapped library", name)
	}
	vcode.Dump(os.Stdout, u)
	return nil
}
