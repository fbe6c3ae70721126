package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/FFengIll/pswatch/pkg"
)

var rootCmd = &cobra.Command{
	Use:   "pswatch",
	Short: "Inspect running processes for triage",
	Long: "Without a subcommand pswatch takes one snapshot of the process table, " +
		"applies the view and filters, and prints it.",
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runList,
}

var (
	configPath   string
	outputFormat string
	relatedPid   int32
	verbose      bool
	logJSON      bool

	cfg *pkg.Config
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(watchCmd)

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&configPath, "config", "c", "", "yaml config file")
	persistent.StringP("essential", "e", "", "essential process list, one name per line")
	persistent.Int("handle-cache", 0, "process handles kept between snapshots")
	persistent.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	persistent.BoolVar(&logJSON, "log-json", false, "log as json")

	flags := rootCmd.Flags()
	flags.String("view", "", "all, nonsystem, system or unknown")
	flags.StringP("type", "t", "", "All, Internal or External")
	flags.StringP("search", "s", "", "match name, user or location")
	flags.Int32Var(&relatedPid, "related", 0, "only the given pid, its ancestors and descendants")
	flags.StringVarP(&outputFormat, "format", "f", "table", "table, json or yaml")
}

func setup(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stderr)

	var err error
	cfg, err = pkg.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"essential": cfg.Essential,
		"interval":  cfg.Interval,
		"depth":     cfg.MaxDepth,
	}).Debugln("config loaded")
	return nil
}

func newSource() (*pkg.PsutilSource, error) {
	return pkg.NewPsutilSource(cfg.HandleCache)
}

func runList(cmd *cobra.Command, args []string) error {
	src, err := newSource()
	if err != nil {
		return err
	}
	classifier := cfg.Classifier()
	snapshot, err := pkg.NewBuilder(src, classifier).Build(cmd.Context())
	if err != nil {
		return err
	}

	filter := *cfg.Filter
	if cmd.Flags().Changed("related") {
		if err := narrowToRelated(&filter, snapshot, relatedPid); err != nil {
			return err
		}
	}
	records := pkg.FilterSnapshot(&filter, classifier, snapshot)
	if err := writeOutput(os.Stdout, outputFormat, records, func(w io.Writer) error {
		return pkg.WriteTable(w, records)
	}); err != nil {
		return err
	}
	reportPartial(snapshot)
	return nil
}

// narrowToRelated limits the filter to pid, its ancestors and descendants.
func narrowToRelated(filter *pkg.FilterOption, snapshot *pkg.Snapshot, pid int32) error {
	filter.Pid = pkg.NewLineage(snapshot).Related(pid).Sorted()
	if len(filter.Pid) == 0 {
		return fmt.Errorf("pid %d is not in the snapshot", pid)
	}
	return nil
}

// writeOutput encodes v as json or yaml, or calls table for the table format.
func writeOutput(w io.Writer, format string, v interface{}, table func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", "table":
		return table(w)
	case "json":
		var json = jsoniter.ConfigCompatibleWithStandardLibrary
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q", format)
}

func reportPartial(s *pkg.Snapshot) {
	if d := s.Dropped(); d > 0 {
		fmt.Fprintf(os.Stderr, "%d processes exited before they could be inspected\n", d)
	}
	if p := s.Partial(); p > 0 {
		fmt.Fprintf(os.Stderr, "%d processes could not be fully inspected\n", p)
	}
}

func parsePid(arg string) (int32, error) {
	pid, err := strconv.ParseInt(arg, 10, 32)
	if err != nil || pid < 0 {
		return 0, fmt.Errorf("invalid pid %q", arg)
	}
	return int32(pid), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
