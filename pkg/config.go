package pkg

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultHandleCache = 4096

type Config struct {
	Essential   string        `mapstructure:"essential" json:"essential" yaml:"essential"`
	SystemUsers []string      `mapstructure:"system_users" json:"system_users" yaml:"system_users"`
	SystemDirs  []string      `mapstructure:"system_dirs" json:"system_dirs" yaml:"system_dirs"`
	Interval    time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`
	MaxDepth    int           `mapstructure:"max_depth" json:"max_depth" yaml:"max_depth"`
	HandleCache int           `mapstructure:"handle_cache" json:"handle_cache" yaml:"handle_cache"`
	MetricsAddr string        `mapstructure:"metrics_addr" json:"metrics_addr" yaml:"metrics_addr"`
	Filter      *FilterOption `mapstructure:"filter" json:"filter" yaml:"filter"`
}

func NewConfig() *Config {
	return &Config{
		Essential:   "essential_processes.txt",
		SystemUsers: append([]string{}, DefaultSystemUsers...),
		SystemDirs:  append([]string{}, DefaultSystemDirs...),
		Interval:    DefaultInterval,
		MaxDepth:    DefaultMaxDepth,
		HandleCache: defaultHandleCache,
		Filter:      NewFilterOption(),
	}
}

// LoadConfig layers, lowest first: defaults, the YAML file at path (if
// any), PSWATCH_* environment variables, then flags that were set.
// Only flags listed in flagKeys are bound.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	def := NewConfig()
	v := viper.New()
	v.SetDefault("essential", def.Essential)
	v.SetDefault("system_users", def.SystemUsers)
	v.SetDefault("system_dirs", def.SystemDirs)
	v.SetDefault("interval", def.Interval)
	v.SetDefault("max_depth", def.MaxDepth)
	v.SetDefault("handle_cache", def.HandleCache)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("filter.view", string(def.Filter.View))
	v.SetDefault("filter.type", def.Filter.Type)
	v.SetDefault("filter.search", def.Filter.Search)
	v.SetDefault("filter.pid", def.Filter.Pid)

	v.SetEnvPrefix("pswatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := flagKeys[f.Name]
			if !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Filter == nil {
		cfg.Filter = NewFilterOption()
	}
	view, err := ParseView(string(cfg.Filter.View))
	if err != nil {
		return nil, err
	}
	cfg.Filter.View = view
	return cfg, nil
}

var flagKeys = map[string]string{
	"essential":    "essential",
	"interval":     "interval",
	"depth":        "max_depth",
	"handle-cache": "handle_cache",
	"metrics-addr": "metrics_addr",
	"view":         "filter.view",
	"type":         "filter.type",
	"search":       "filter.search",
}

// Classifier builds the classifier, loading the essential list once.
func (c *Config) Classifier() *Classifier {
	return NewClassifier(c.SystemUsers, c.SystemDirs, LoadRegistry(c.Essential))
}

func (c *Config) WriteTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
