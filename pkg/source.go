package pkg

import (
	"context"
	gonet "net"
	"os/exec"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// Connection is one live socket of a process.
type Connection struct {
	LocalIP    string `json:"local_ip" yaml:"local_ip"`
	LocalPort  uint32 `json:"local_port" yaml:"local_port"`
	RemoteIP   string `json:"remote_ip,omitempty" yaml:"remote_ip,omitempty"`
	RemotePort uint32 `json:"remote_port,omitempty" yaml:"remote_port,omitempty"`
	Status     string `json:"status" yaml:"status"`
}

// HasRemote reports whether the connection has a peer endpoint.
func (c Connection) HasRemote() bool {
	return c.RemoteIP != "" || c.RemotePort != 0
}

// Public reports whether the peer is outside private and loopback ranges.
func (c Connection) Public() bool {
	if !c.HasRemote() {
		return false
	}
	ip := gonet.ParseIP(c.RemoteIP)
	if ip == nil {
		return false
	}
	return !isPrivateIP(ip)
}

func isPrivateIP(ip gonet.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// PidLister enumerates the live process ids.
type PidLister interface {
	Pids(ctx context.Context) ([]int32, error)
}

// Source is the OS process-introspection API.
type Source interface {
	PidLister
	Open(ctx context.Context, pid int32) (Handle, error)
}

// Handle reads attributes of one process. Every read fails independently
// with ErrNoSuchProcess or ErrAccessDenied.
type Handle interface {
	Pid() int32
	Ppid(ctx context.Context) (int32, error)
	Name(ctx context.Context) (string, error)
	Status(ctx context.Context) (string, error)
	Username(ctx context.Context) (string, error)
	CreateTime(ctx context.Context) (int64, error)
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float32, error)
	NumThreads(ctx context.Context) (int32, error)
	Children(ctx context.Context) ([]int32, error)
	Nice(ctx context.Context) (int32, error)
	Exe(ctx context.Context) (string, error)
	Cmdline(ctx context.Context) (string, error)
	Connections(ctx context.Context) ([]Connection, error)
}

// PsutilSource implements Source on top of gopsutil. Handles are kept in an
// LRU so that CPU percentages can be measured between two passes.
type PsutilSource struct {
	handles *lru.Cache[int32, *process.Process]
}

func NewPsutilSource(cacheSize int) (*PsutilSource, error) {
	if cacheSize <= 0 {
		cacheSize = defaultHandleCache
	}
	cache, err := lru.New[int32, *process.Process](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PsutilSource{handles: cache}, nil
}

func (s *PsutilSource) Pids(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids, nil
}

func (s *PsutilSource) Open(ctx context.Context, pid int32) (Handle, error) {
	if p, ok := s.handles.Get(pid); ok {
		// IsRunning compares create times, so a reused pid gets a fresh handle
		if running, err := p.IsRunningWithContext(ctx); err == nil && running {
			return &psutilHandle{p: p}, nil
		}
		s.handles.Remove(pid)
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, classifyErr(pid, "open", err)
	}
	// first Percent call only records the baseline
	if _, err := p.PercentWithContext(ctx, 0); err != nil {
		logrus.WithField("pid", pid).Debugln("cpu baseline:", err)
	}
	s.handles.Add(pid, p)
	return &psutilHandle{p: p, fresh: true}, nil
}

type psutilHandle struct {
	p *process.Process
	// a fresh handle holds only the CPU baseline, so CPUPercent reports 0
	fresh bool
}

func (h *psutilHandle) Pid() int32 {
	return h.p.Pid
}

func (h *psutilHandle) Ppid(ctx context.Context) (int32, error) {
	v, err := h.p.PpidWithContext(ctx)
	return v, classifyErr(h.p.Pid, "ppid", err)
}

func (h *psutilHandle) Name(ctx context.Context) (string, error) {
	v, err := h.p.NameWithContext(ctx)
	return v, classifyErr(h.p.Pid, "name", err)
}

func (h *psutilHandle) Status(ctx context.Context) (string, error) {
	v, err := h.p.StatusWithContext(ctx)
	if err != nil {
		return "", classifyErr(h.p.Pid, "status", err)
	}
	if len(v) == 0 {
		return "", nil
	}
	return v[0], nil
}

func (h *psutilHandle) Username(ctx context.Context) (string, error) {
	v, err := h.p.UsernameWithContext(ctx)
	return v, classifyErr(h.p.Pid, "username", err)
}

func (h *psutilHandle) CreateTime(ctx context.Context) (int64, error) {
	v, err := h.p.CreateTimeWithContext(ctx)
	return v, classifyErr(h.p.Pid, "create_time", err)
}

func (h *psutilHandle) CPUPercent(ctx context.Context) (float64, error) {
	if h.fresh {
		return 0, nil
	}
	v, err := h.p.PercentWithContext(ctx, 0)
	return v, classifyErr(h.p.Pid, "cpu", err)
}

func (h *psutilHandle) MemoryPercent(ctx context.Context) (float32, error) {
	v, err := h.p.MemoryPercentWithContext(ctx)
	return v, classifyErr(h.p.Pid, "memory", err)
}

func (h *psutilHandle) NumThreads(ctx context.Context) (int32, error) {
	v, err := h.p.NumThreadsWithContext(ctx)
	return v, classifyErr(h.p.Pid, "threads", err)
}

func (h *psutilHandle) Children(ctx context.Context) ([]int32, error) {
	children, err := h.p.ChildrenWithContext(ctx)
	return childPids(h.p.Pid, children, err)
}

func childPids(pid int32, children []*process.Process, err error) ([]int32, error) {
	if err != nil {
		// some platforms shell out to pgrep, which exits non-zero on no match
		var exitErr *exec.ExitError
		if errors.Is(err, process.ErrorNoChildren) || errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, classifyErr(pid, "children", err)
	}
	res := make([]int32, 0, len(children))
	for _, c := range children {
		res = append(res, c.Pid)
	}
	return res, nil
}

func (h *psutilHandle) Nice(ctx context.Context) (int32, error) {
	v, err := h.p.NiceWithContext(ctx)
	return v, classifyErr(h.p.Pid, "nice", err)
}

func (h *psutilHandle) Exe(ctx context.Context) (string, error) {
	v, err := h.p.ExeWithContext(ctx)
	return v, classifyErr(h.p.Pid, "exe", err)
}

func (h *psutilHandle) Cmdline(ctx context.Context) (string, error) {
	v, err := h.p.CmdlineWithContext(ctx)
	return v, classifyErr(h.p.Pid, "cmdline", err)
}

func (h *psutilHandle) Connections(ctx context.Context) ([]Connection, error) {
	stats, err := h.p.ConnectionsWithContext(ctx)
	if err != nil {
		return nil, classifyErr(h.p.Pid, "connections", err)
	}
	return toConnections(stats), nil
}

func toConnections(stats []net.ConnectionStat) []Connection {
	res := make([]Connection, 0, len(stats))
	for _, conn := range stats {
		res = append(res, Connection{
			LocalIP:    conn.Laddr.IP,
			LocalPort:  conn.Laddr.Port,
			RemoteIP:   conn.Raddr.IP,
			RemotePort: conn.Raddr.Port,
			Status:     strings.ToUpper(conn.Status),
		})
	}
	return res
}
