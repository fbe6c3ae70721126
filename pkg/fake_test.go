package pkg

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// fakeProc is one entry of the in-memory process table. errs maps a field
// name to the error its read returns.
type fakeProc struct {
	pid      int32
	ppid     int32
	name     string
	status   string
	user     string
	created  int64
	cpu      float64
	mem      float32
	threads  int32
	nice     int32
	exe      string
	cmdline  string
	children []int32
	conns    []Connection
	errs     map[string]error
}

type fakeSource struct {
	mu    sync.Mutex
	procs map[int32]*fakeProc
	// pidSets, when set, are returned by successive Pids calls; the last
	// one repeats.
	pidSets [][]int32
	calls   int
	opened  map[int32]int
}

func newFakeSource(procs ...*fakeProc) *fakeSource {
	s := &fakeSource{procs: map[int32]*fakeProc{}, opened: map[int32]int{}}
	for _, p := range procs {
		s.procs[p.pid] = p
	}
	return s
}

func (s *fakeSource) Pids(ctx context.Context) ([]int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pidSets) > 0 {
		i := s.calls
		if i >= len(s.pidSets) {
			i = len(s.pidSets) - 1
		}
		s.calls++
		return append([]int32{}, s.pidSets[i]...), nil
	}
	s.calls++
	var pids []int32
	for pid := range s.procs {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids, nil
}

func (s *fakeSource) Open(ctx context.Context, pid int32) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened[pid]++
	p, ok := s.procs[pid]
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchProcess, "pid %d", pid)
	}
	if err := p.errs["open"]; err != nil {
		return nil, err
	}
	return &fakeHandle{p: p}, nil
}

func (s *fakeSource) openCount(pid int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[pid]
}

var (
	errGone   = errors.Wrap(ErrNoSuchProcess, "exited")
	errDenied = errors.Wrap(ErrAccessDenied, "not permitted")
)

type fakeHandle struct {
	p *fakeProc
}

func (h *fakeHandle) err(field string) error {
	return h.p.errs[field]
}

func (h *fakeHandle) Pid() int32 { return h.p.pid }

func (h *fakeHandle) Ppid(ctx context.Context) (int32, error) {
	return h.p.ppid, h.err("ppid")
}

func (h *fakeHandle) Name(ctx context.Context) (string, error) {
	if err := h.err("name"); err != nil {
		return "", err
	}
	return h.p.name, nil
}

func (h *fakeHandle) Status(ctx context.Context) (string, error) {
	return h.p.status, h.err("status")
}

func (h *fakeHandle) Username(ctx context.Context) (string, error) {
	if err := h.err("username"); err != nil {
		return "", err
	}
	return h.p.user, nil
}

func (h *fakeHandle) CreateTime(ctx context.Context) (int64, error) {
	return h.p.created, h.err("created")
}

func (h *fakeHandle) CPUPercent(ctx context.Context) (float64, error) {
	return h.p.cpu, h.err("cpu")
}

func (h *fakeHandle) MemoryPercent(ctx context.Context) (float32, error) {
	return h.p.mem, h.err("memory")
}

func (h *fakeHandle) NumThreads(ctx context.Context) (int32, error) {
	return h.p.threads, h.err("threads")
}

func (h *fakeHandle) Children(ctx context.Context) ([]int32, error) {
	if err := h.err("children"); err != nil {
		return nil, err
	}
	return append([]int32{}, h.p.children...), nil
}

func (h *fakeHandle) Nice(ctx context.Context) (int32, error) {
	return h.p.nice, h.err("nice")
}

func (h *fakeHandle) Exe(ctx context.Context) (string, error) {
	if err := h.err("exe"); err != nil {
		return "", err
	}
	return h.p.exe, nil
}

func (h *fakeHandle) Cmdline(ctx context.Context) (string, error) {
	if err := h.err("cmdline"); err != nil {
		return "", err
	}
	return h.p.cmdline, nil
}

func (h *fakeHandle) Connections(ctx context.Context) ([]Connection, error) {
	if err := h.err("connections"); err != nil {
		return nil, err
	}
	return h.p.conns, nil
}
