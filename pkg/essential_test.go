package pkg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistry(t *testing.T) {
	reg := ParseRegistry(strings.NewReader("explorer.exe\n\n# comment\n"))
	assert.Equal(t, []string{"explorer.exe"}, reg.Names())

	c := NewClassifier(DefaultSystemUsers, DefaultSystemDirs, reg)
	assert.Equal(t, Essential, c.IsKnown("EXPLORER.EXE"))
	assert.Equal(t, Unknown, c.IsKnown("notepad.exe"))
}

func TestParseRegistryTrimsAndLowercases(t *testing.T) {
	reg := ParseRegistry(strings.NewReader("  Svchost.EXE  \r\n\t# indented comment\nlsass.exe"))
	assert.Equal(t, []string{"lsass.exe", "svchost.exe"}, reg.Names())
}

func TestLoadRegistryMissingFile(t *testing.T) {
	reg := LoadRegistry(filepath.Join(t.TempDir(), "absent.txt"))
	require.NotNil(t, reg)
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Contains("explorer.exe"))
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "essential_processes.txt")
	require.NoError(t, os.WriteFile(path, []byte("# windows\nwininit.exe\ncsrss.exe\n"), 0644))

	reg := LoadRegistry(path)
	assert.Equal(t, 2, reg.Len())
	assert.True(t, reg.Contains("WinInit.exe"))
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	assert.False(t, reg.Contains("a"))
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.Names())
}
