package pkg

import (
	"strings"
	"time"
)

type Classification string

const (
	Internal Classification = "Internal"
	External Classification = "External"
)

type Known string

const (
	Essential Known = "Essential"
	Unknown   Known = "Unknown"
)

// ProcessRecord is a read-only view of one process at one instant.
// Fields the OS refused to hand out are left zero and named in Unreadable.
type ProcessRecord struct {
	Pid        int32          `json:"pid" yaml:"pid"`
	Parent     int32          `json:"parent" yaml:"parent"`
	Name       string         `json:"name" yaml:"name"`
	Ext        string         `json:"ext" yaml:"ext"`
	Status     string         `json:"status" yaml:"status"`
	Owner      string         `json:"owner" yaml:"owner"`
	Created    time.Time      `json:"created" yaml:"created"`
	CPU        float64        `json:"cpu" yaml:"cpu"`
	Memory     float32        `json:"memory" yaml:"memory"`
	Threads    int32          `json:"threads" yaml:"threads"`
	Children   int            `json:"children" yaml:"children"`
	Priority   int32          `json:"priority" yaml:"priority"`
	Exec       string         `json:"exec" yaml:"exec"`
	Network    bool           `json:"network" yaml:"network"`
	Type       Classification `json:"type" yaml:"type"`
	Known      Known          `json:"known" yaml:"known"`
	Unreadable []string       `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`
}

// Partial reports whether any attribute fell back to its default.
func (r *ProcessRecord) Partial() bool {
	return len(r.Unreadable) > 0
}

func (r *ProcessRecord) HighCPU() bool {
	return r.CPU > 20
}

func (r *ProcessRecord) HighMemory() bool {
	return r.Memory > 10
}

// extension returns the text after the last dot of name, or "" when there is none.
func extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
