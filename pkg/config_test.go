package pkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	def := NewConfig()
	assert.Equal(t, def.Essential, cfg.Essential)
	assert.Equal(t, def.SystemUsers, cfg.SystemUsers)
	assert.Equal(t, def.SystemDirs, cfg.SystemDirs)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, defaultHandleCache, cfg.HandleCache)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.Equal(t, ViewAll, cfg.Filter.View)
	assert.Equal(t, "All", cfg.Filter.Type)
	assert.Empty(t, cfg.Filter.Pid)
}

func TestLoadConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pswatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
essential: /etc/pswatch/essential.txt
interval: 250ms
system_users: [root, daemon]
filter:
  view: unknown
  type: External
`), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("depth", 3, "")
	flags.String("search", "", "")
	require.NoError(t, flags.Parse([]string{"--depth", "5", "--search", "ssh"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "/etc/pswatch/essential.txt", cfg.Essential)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, []string{"root", "daemon"}, cfg.SystemUsers)
	assert.Equal(t, DefaultSystemDirs, cfg.SystemDirs)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, ViewUnknown, cfg.Filter.View)
	assert.Equal(t, "External", cfg.Filter.Type)
	assert.Equal(t, "ssh", cfg.Filter.Search)
}

func TestLoadConfigBadView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filter:\n  view: sideways\n"), 0644))
	_, err := LoadConfig(path, nil)
	assert.Error(t, err)
}

func TestConfigWriteTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := NewConfig()
	cfg.MaxDepth = 7
	require.NoError(t, cfg.WriteTo(path))

	loaded, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.MaxDepth)
	assert.Equal(t, cfg.Interval, loaded.Interval)
}
