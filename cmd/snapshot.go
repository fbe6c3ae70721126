package main

import (
	"github.com/spf13/cobra"

	"github.com/FFengIll/pswatch/pkg"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take one snapshot and save it for a later diff",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeSnapshot(cmd)
	},
}

func executeSnapshot(cmd *cobra.Command) error {
	src, err := newSource()
	if err != nil {
		return err
	}
	snapshot, err := pkg.NewBuilder(src, cfg.Classifier()).Build(cmd.Context())
	if err != nil {
		return err
	}
	reportPartial(snapshot)
	return snapshot.DumpFile(snapshotFilepath)
}

var snapshotFilepath = ""

func init() {
	flags := snapshotCmd.Flags()
	flags.StringVarP(&snapshotFilepath, "output", "o", "", "snapshot file, yaml when it ends in .yaml")
}
