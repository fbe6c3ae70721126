package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FFengIll/pswatch/pkg"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the process table and report processes as they start and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return executeWatch(ctx)
	},
}

func init() {
	flags := watchCmd.Flags()
	flags.DurationP("interval", "i", pkg.DefaultInterval, "poll period")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address")
}

func executeWatch(ctx context.Context) error {
	src, err := newSource()
	if err != nil {
		return err
	}
	metrics := pkg.NewMetrics()
	watcher := pkg.NewWatcher(src, cfg.Classifier(), cfg.Interval, metrics, os.Stdout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Run(ctx)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		g.Go(func() error {
			logrus.Infof("metrics on %s/metrics", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		})
	}
	return g.Wait()
}
