package pkg

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = time.Second

// Monitor polls the live pid set and signals when it differs from the set
// seen on the previous poll. Signals coalesce: a consumer that has not
// drained the channel sees one pending notification.
type Monitor struct {
	source   PidLister
	interval time.Duration
	changes  chan struct{}

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	// owned by the polling goroutine
	last *PidSet
}

func NewMonitor(source PidLister, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		source:   source,
		interval: interval,
		changes:  make(chan struct{}, 1),
	}
}

// Changes delivers the change notifications.
func (m *Monitor) Changes() <-chan struct{} {
	return m.changes
}

// Start records the current pid set as the baseline and polls in the
// background until ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil || m.stopped {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.last = m.read(ctx)
	go m.run(ctx)
}

// Stop ends polling and waits for the goroutine to exit. No notification
// is sent once Stop has been called.
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.stopped = true
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll reads the pid set once and notifies on change. It reports whether
// a change was seen.
func (m *Monitor) poll(ctx context.Context) bool {
	current := m.read(ctx)
	if current == nil || ctx.Err() != nil {
		return false
	}
	if m.last != nil && current.Equal(m.last) {
		return false
	}
	m.last = current
	m.notify()
	return true
}

func (m *Monitor) read(ctx context.Context) *PidSet {
	pids, err := m.source.Pids(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logrus.Warningln("process monitor:", err)
		}
		return nil
	}
	return NewPidSet(pids...)
}

func (m *Monitor) notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
