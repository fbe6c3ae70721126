package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FFengIll/pswatch/pkg"
)

var treeCmd = &cobra.Command{
	Use:   "tree PID",
	Short: "Show the descendants of one process with their command lines and connections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := parsePid(args[0])
		if err != nil {
			return err
		}
		src, err := newSource()
		if err != nil {
			return err
		}
		roots := pkg.NewTreeBuilder(src).Build(cmd.Context(), root, cfg.MaxDepth)

		switch treeFormat {
		case "dot":
			render := pkg.NewDotRender()
			if treeOutput != "" {
				return render.Write(roots, treeOutput)
			}
			data, err := render.Bytes(roots)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		case "json", "yaml":
			return writeOutput(os.Stdout, treeFormat, roots, nil)
		case "", "text":
			return pkg.WriteTree(os.Stdout, roots)
		}
		return fmt.Errorf("unknown format %q", treeFormat)
	},
}

var (
	treeFormat = "text"
	treeOutput = ""
)

func init() {
	flags := treeCmd.Flags()
	flags.IntP("depth", "d", pkg.DefaultMaxDepth, "levels below the root to expand")
	flags.StringVarP(&treeFormat, "format", "f", "text", "text, json, yaml or dot")
	flags.StringVarP(&treeOutput, "output", "o", "", "with dot, render to this file and a png beside it")
}
