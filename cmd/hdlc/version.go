package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hdlc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show hdlc build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("hdlc %s", version.Version)
		if version.GitCommit != "" {
			fmt.Printf(" (%s)", version.GitCommit)
		}
		if version.BuildDate != "" {
			fmt.Printf(" built %s", version.BuildDate)
		}
		fmt.Println()
		return nil
	},
}
