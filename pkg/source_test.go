package pkg

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burnCPU(d time.Duration) {
	x := 0
	for end := time.Now().Add(d); time.Now().Before(end); {
		x++
	}
	_ = x
}

func TestPsutilSourceFreshHandleCPU(t *testing.T) {
	ctx := context.Background()
	src, err := NewPsutilSource(8)
	require.NoError(t, err)
	self := int32(os.Getpid())

	for i := 0; i < 50; i++ {
		fresh, err := NewPsutilSource(8)
		require.NoError(t, err)
		h, err := fresh.Open(ctx, self)
		require.NoError(t, err)
		rec, ok := Collect(ctx, h)
		require.True(t, ok)
		require.Equal(t, 0.0, rec.CPU, "first sample of a handle is unmeasured")
		burnCPU(time.Millisecond)
	}

	h, err := src.Open(ctx, self)
	require.NoError(t, err)
	cpu, err := h.CPUPercent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cpu)

	burnCPU(500 * time.Millisecond)
	h, err = src.Open(ctx, self)
	require.NoError(t, err)
	cpu, err = h.CPUPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cpu, 0.0)
	assert.LessOrEqual(t, cpu, 110*float64(runtime.NumCPU()))
}

func TestPsutilSourceVanished(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sleep(1)")
	}
	ctx := context.Background()
	src, err := NewPsutilSource(8)
	require.NoError(t, err)

	child := exec.Command("sleep", "30")
	require.NoError(t, child.Start())
	pid := int32(child.Process.Pid)

	h, err := src.Open(ctx, pid)
	require.NoError(t, err)

	require.NoError(t, child.Process.Kill())
	_ = child.Wait()

	_, err = h.Name(ctx)
	assert.True(t, IsGone(err), "name: %v", err)
	_, ok := Collect(ctx, h)
	assert.False(t, ok)

	_, err = src.Open(ctx, pid)
	assert.True(t, IsGone(err), "open: %v", err)
	assert.False(t, IsDenied(err))
}

func TestClassifyErr(t *testing.T) {
	assert.NoError(t, classifyErr(1, "name", nil))

	err := classifyErr(1, "name", process.ErrorProcessNotRunning)
	assert.True(t, IsGone(err))
	assert.False(t, IsDenied(err))

	err = classifyErr(1, "exe", &os.PathError{Op: "readlink", Path: "/proc/1/exe", Err: os.ErrNotExist})
	assert.True(t, IsGone(err))

	err = classifyErr(1, "exe", &os.PathError{Op: "readlink", Path: "/proc/1/exe", Err: os.ErrPermission})
	assert.True(t, IsDenied(err))
	assert.False(t, IsGone(err))

	err = classifyErr(1, "cmdline", errors.New("something odd"))
	assert.True(t, IsDenied(err))
	assert.Contains(t, err.Error(), "pid 1 cmdline")

	// already classified errors pass through unchanged
	assert.Same(t, errGone, classifyErr(1, "name", errGone))
}

func TestChildPids(t *testing.T) {
	pids, err := childPids(1, nil, process.ErrorNoChildren)
	assert.NoError(t, err)
	assert.Nil(t, pids)

	pids, err = childPids(1, nil, errors.Wrap(&exec.ExitError{}, "pgrep"))
	assert.NoError(t, err)
	assert.Nil(t, pids)

	_, err = childPids(1, nil, process.ErrorProcessNotRunning)
	assert.True(t, IsGone(err))

	pids, err = childPids(1, []*process.Process{{Pid: 4}, {Pid: 2}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, []int32{4, 2}, pids)
}

func TestToConnections(t *testing.T) {
	conns := toConnections([]net.ConnectionStat{
		{Laddr: net.Addr{IP: "0.0.0.0", Port: 22}, Status: "listen"},
		{Laddr: net.Addr{IP: "10.0.0.2", Port: 22}, Raddr: net.Addr{IP: "8.8.8.8", Port: 51000}, Status: "Established"},
	})
	require.Len(t, conns, 2)
	assert.Equal(t, "LISTEN", conns[0].Status)
	assert.False(t, conns[0].HasRemote())
	assert.Equal(t, "ESTABLISHED", conns[1].Status)
	assert.Equal(t, uint32(51000), conns[1].RemotePort)
	assert.True(t, conns[1].Public())
}
