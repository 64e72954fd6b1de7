package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hdlc/internal/vcode"
)

var packCmd = &cobra.Command{
	Use:   "pack <library> <unit.vc...>",
	Short: "Validate unit files and pack them into a library store",
	Long: `Read loose persisted unit files, validate their structure, re-link
their context chains, and write them into the named library's store
under their canonical file names`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPack,
}

func runPack(cmd *cobra.Command, args []string) error {
	ts, err := newToolSession(cmd)
	if err != nil {
		return err
	}

	libName := strings.ToUpper(args[0])
	l := ts.libs.Find(libName)
	if l == nil {
		return fmt.Errorf("library %s is not mapped (use --lib NAME=DIR or hdlc.toml)", libName)
	}

	// Read every unit before linking so context chains resolve
	// regardless of argument order.
	units := make([]*vcode.Unit, 0, len(args)-1)
	for _, path := range args[1:] {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		u, err := vcode.ReadUnit(f, nil)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if u.Name != libName && !strings.HasPrefix(u.Name, libName+".") {
			return fmt.Errorf("%s: unit %s does not belong to library %s", path, u.Name, libName)
		}
		ts.reg.Register(u)
		units = append(units, u)
	}

	for _, u := range units {
		ts.reg.Relink(u)
		if err := vcode.Validate(u); err != nil {
			return err
		}
		if err := l.SaveUnit(u); err != nil {
			return err
		}
	}

	fmt.Printf("packed %d units into %s (%s)\n", len(units), libName, l.Dir)
	return nil
}
