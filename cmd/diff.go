package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/FFengIll/pswatch/pkg"
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Show processes started or gone between two saved snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		previous, err := pkg.LoadSnapshot(args[0])
		if err != nil {
			return err
		}
		current, err := pkg.LoadSnapshot(args[1])
		if err != nil {
			return err
		}

		change := pkg.Diff(previous, current)
		return writeOutput(os.Stdout, diffFormat, change, func(w io.Writer) error {
			return pkg.WriteChange(w, change)
		})
	},
}

var diffFormat = "table"

func init() {
	flags := diffCmd.Flags()
	flags.StringVarP(&diffFormat, "format", "f", "table", "table, json or yaml")
}
