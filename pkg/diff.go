package pkg

import (
	"sort"
)

// Change lists the processes born and gone between two snapshots.
type Change struct {
	Added   []*ProcessRecord `json:"added" yaml:"added"`
	Removed []*ProcessRecord `json:"removed" yaml:"removed"`
}

func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares two snapshots by pid. Added records come from current,
// Removed records from previous. A nil previous yields an empty Change.
func Diff(previous, current *Snapshot) Change {
	change := Change{Added: []*ProcessRecord{}, Removed: []*ProcessRecord{}}
	if previous == nil || current == nil {
		return change
	}
	for pid, p := range current.PidProcess {
		if _, ok := previous.PidProcess[pid]; !ok {
			change.Added = append(change.Added, p)
		}
	}
	for pid, p := range previous.PidProcess {
		if _, ok := current.PidProcess[pid]; !ok {
			change.Removed = append(change.Removed, p)
		}
	}
	sortRecords(change.Added)
	sortRecords(change.Removed)
	return change
}

func sortRecords(ps []*ProcessRecord) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Pid < ps[j].Pid })
}

// Differ remembers the last completed snapshot so that each Next compares
// against the one immediately before it. The first call reports nothing.
type Differ struct {
	previous *Snapshot
}

func NewDiffer() *Differ {
	return &Differ{}
}

func (d *Differ) Next(current *Snapshot) Change {
	change := Diff(d.previous, current)
	d.previous = current
	return change
}

func (d *Differ) Previous() *Snapshot {
	return d.previous
}
