package pkg

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	records := []*ProcessRecord{
		{Pid: 9, Parent: 1, Name: "miner.exe", Ext: "exe", CPU: 97.3, Memory: 3, Network: true, Type: External, Known: Unknown},
		{Pid: 10, Parent: 1, Name: "idle", CPU: 0.1, Memory: 12.5},
	}
	require.NoError(t, WriteTable(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PID"))
	assert.Contains(t, lines[1], "97.3*")
	assert.Contains(t, lines[1], "Yes")
	assert.Contains(t, lines[2], "12.5*")
	assert.Contains(t, lines[2], "No")
}

func TestWriteChange(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChange(&buf, Change{}))
	assert.Empty(t, buf.String())

	c := Diff(snapshotOf(1, 2), snapshotOf(2, 3))
	require.NoError(t, WriteChange(&buf, c))
	out := buf.String()
	assert.Contains(t, out, "1 new, 1 terminated")
	assert.Regexp(t, `(?m)^\+\s+3`, out)
	assert.Regexp(t, `(?m)^-\s+1`, out)
}

func TestWriteTree(t *testing.T) {
	var buf bytes.Buffer
	roots := NewTreeBuilder(treeSource()).Build(context.Background(), 1, 3)
	require.NoError(t, WriteTree(&buf, roots))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "init (1) /sbin/init", strings.TrimSpace(lines[0]))
	assert.Equal(t, "  sshd (10) ", lines[1])
	assert.Equal(t, "    - 0.0.0.0:22 (LISTENING)", lines[2])
	assert.Contains(t, buf.String(), "      !powershell.exe (12)")
	assert.Contains(t, buf.String(), "  ![Process 30 not accessible] (30)")
}
