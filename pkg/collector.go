package pkg

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Collect reads one process into a record. It returns false when the
// process vanished before its name could be read; any other failure only
// blanks the affected attribute.
func Collect(ctx context.Context, h Handle) (*ProcessRecord, bool) {
	pid := h.Pid()
	if pid < 0 {
		return nil, false
	}
	log := logrus.WithField("pid", pid)

	rec := &ProcessRecord{Pid: pid}
	lost := func(field string, err error) bool {
		if err == nil {
			return false
		}
		log.Debugf("%s unreadable: %v", field, err)
		rec.Unreadable = append(rec.Unreadable, field)
		return true
	}

	name, err := h.Name(ctx)
	if IsGone(err) {
		log.Debugln("vanished before inspection")
		return nil, false
	}
	if !lost("name", err) {
		rec.Name = name
		rec.Ext = extension(name)
	}

	if v, err := h.Ppid(ctx); !lost("ppid", err) {
		rec.Parent = v
	}
	if v, err := h.Status(ctx); !lost("status", err) {
		rec.Status = v
	}
	if v, err := h.Username(ctx); !lost("owner", err) {
		rec.Owner = v
	}
	if v, err := h.CreateTime(ctx); !lost("created", err) {
		rec.Created = time.UnixMilli(v)
	}
	if v, err := h.CPUPercent(ctx); !lost("cpu", err) {
		rec.CPU = v
	}
	if v, err := h.MemoryPercent(ctx); !lost("memory", err) {
		rec.Memory = v
	}
	if v, err := h.NumThreads(ctx); !lost("threads", err) {
		rec.Threads = v
	}
	if v, err := h.Children(ctx); !lost("children", err) {
		rec.Children = len(v)
	}
	if v, err := h.Nice(ctx); !lost("priority", err) {
		rec.Priority = v
	}
	if v, err := h.Exe(ctx); !lost("exec", err) {
		rec.Exec = v
	}
	if v, err := h.Connections(ctx); !lost("network", err) {
		rec.Network = len(v) > 0
	}
	return rec, true
}
