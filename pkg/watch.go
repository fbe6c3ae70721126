package pkg

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Watcher takes a snapshot each time the monitor reports a change and
// writes what started and exited since the previous one.
type Watcher struct {
	builder *Builder
	monitor *Monitor
	metrics *Metrics
	out     io.Writer

	mu     sync.Mutex
	differ *Differ
}

// NewWatcher polls source every interval. metrics may be nil.
func NewWatcher(source Source, classifier *Classifier, interval time.Duration, metrics *Metrics, out io.Writer) *Watcher {
	return &Watcher{
		builder: NewBuilder(source, classifier),
		monitor: NewMonitor(source, interval),
		metrics: metrics,
		out:     out,
		differ:  NewDiffer(),
	}
}

// Run blocks until ctx is done. The monitor baseline is read before the
// first snapshot, so a change racing with startup still raises a refresh.
func (w *Watcher) Run(ctx context.Context) error {
	w.monitor.Start(ctx)
	defer w.monitor.Stop()

	if err := w.refresh(ctx); err != nil {
		return err
	}
	logrus.Infof("watching %d processes every %s", w.Previous().Len(), w.monitor.interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.monitor.Changes():
			if err := w.refresh(ctx); err != nil && ctx.Err() == nil {
				logrus.Warnln("refresh:", err)
			}
		}
	}
}

// Previous is the last completed snapshot.
func (w *Watcher) Previous() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.differ.Previous()
}

func (w *Watcher) refresh(ctx context.Context) error {
	snapshot, err := w.builder.Build(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	change := w.differ.Next(snapshot)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.ObserveSnapshot(snapshot)
		w.metrics.ObserveChange(change)
	}
	return WriteChange(w.out, change)
}
