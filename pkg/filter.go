package pkg

import (
	"fmt"
	"strings"
)

type View string

const (
	ViewAll       View = "all"
	ViewNonSystem View = "nonsystem"
	ViewSystem    View = "system"
	ViewUnknown   View = "unknown"
)

func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(s)); v {
	case "", ViewAll:
		return ViewAll, nil
	case ViewNonSystem, ViewSystem, ViewUnknown:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// FilterOption narrows a snapshot for display.
type FilterOption struct {
	View   View    `mapstructure:"view" json:"view" yaml:"view"`
	Type   string  `mapstructure:"type" json:"type" yaml:"type"`
	Search string  `mapstructure:"search" json:"search" yaml:"search"`
	Pid    []int32 `mapstructure:"pid" json:"pid" yaml:"pid"`
}

func NewFilterOption() *FilterOption {
	return &FilterOption{
		View: ViewAll,
		Type: "All",
		Pid:  []int32{},
	}
}

// Match reports whether p passes the view, the type filter, the search
// text and, when given, the pid list.
func (f *FilterOption) Match(c *Classifier, p *ProcessRecord) bool {
	system := c.IsSystemUser(p.Owner)
	switch f.View {
	case ViewSystem:
		if !system {
			return false
		}
	case ViewNonSystem:
		if system {
			return false
		}
	case ViewUnknown:
		if system || p.Known == Essential {
			return false
		}
	}

	if f.Type != "" && !strings.EqualFold(f.Type, "All") {
		if !strings.EqualFold(f.Type, string(p.Type)) {
			return false
		}
	}

	if f.Search != "" {
		text := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), text) &&
			!strings.Contains(strings.ToLower(p.Owner), text) &&
			!strings.Contains(strings.ToLower(p.Exec), text) {
			return false
		}
	}

	if len(f.Pid) > 0 {
		found := false
		for _, pid := range f.Pid {
			if pid == p.Pid {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterSnapshot returns the matching records ordered by pid.
func FilterSnapshot(f *FilterOption, c *Classifier, snapshot *Snapshot) []*ProcessRecord {
	var res []*ProcessRecord
	for _, p := range snapshot.Processes() {
		if f.Match(c, p) {
			res = append(res, p)
		}
	}
	return res
}
