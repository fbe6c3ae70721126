package pkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Snapshot is every process that could be inspected in one pass, keyed by pid.
type Snapshot struct {
	ID         string                   `json:"id" yaml:"id"`
	TakenAt    time.Time                `json:"taken_at" yaml:"taken_at"`
	Enumerated int                      `json:"enumerated" yaml:"enumerated"`
	PidProcess map[int32]*ProcessRecord `json:"process" yaml:"process"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		ID:         uuid.NewString(),
		TakenAt:    time.Now(),
		PidProcess: map[int32]*ProcessRecord{},
	}
}

func (s *Snapshot) Len() int {
	return len(s.PidProcess)
}

// Dropped is how many enumerated processes vanished before inspection.
func (s *Snapshot) Dropped() int {
	if d := s.Enumerated - len(s.PidProcess); d > 0 {
		return d
	}
	return 0
}

// Partial counts records with at least one unreadable attribute.
func (s *Snapshot) Partial() int {
	n := 0
	for _, p := range s.PidProcess {
		if p.Partial() {
			n++
		}
	}
	return n
}

func (s *Snapshot) Pids() *PidSet {
	set := NewPidSet()
	for pid := range s.PidProcess {
		set.Add(pid)
	}
	return set
}

func (s *Snapshot) Get(pid int32) (*ProcessRecord, bool) {
	p, ok := s.PidProcess[pid]
	return p, ok
}

// Processes returns the records ordered by pid.
func (s *Snapshot) Processes() []*ProcessRecord {
	ps := make([]*ProcessRecord, 0, len(s.PidProcess))
	for _, p := range s.PidProcess {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Pid < ps[j].Pid })
	return ps
}

// Builder runs the collector and classifier over the live process table.
type Builder struct {
	source     Source
	classifier *Classifier
}

func NewBuilder(source Source, classifier *Classifier) *Builder {
	return &Builder{source: source, classifier: classifier}
}

// Build takes a snapshot. Processes that vanish mid-pass are left out, ones
// that deny access are kept with what could be read. Only a failure to
// enumerate pids is returned.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	snapshot := NewSnapshot()
	log := logrus.WithField("snapshot", snapshot.ID)

	pids, err := b.source.Pids(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	seen := NewPidSet()
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !seen.Add(pid) {
			continue
		}
		rec, ok := b.collect(ctx, log, pid)
		if !ok {
			continue
		}
		rec.Type = b.classifier.Classify(rec.Owner, rec.Exec)
		rec.Known = b.classifier.IsKnown(rec.Name)
		snapshot.PidProcess[rec.Pid] = rec
	}
	snapshot.Enumerated = seen.Len()

	log.WithFields(logrus.Fields{
		"records": snapshot.Len(),
		"dropped": snapshot.Dropped(),
		"partial": snapshot.Partial(),
	}).Infoln("snapshot taken")
	return snapshot, nil
}

// collect opens and reads one pid. A process that refuses to be opened is
// still recorded, with nothing but its pid.
func (b *Builder) collect(ctx context.Context, log *logrus.Entry, pid int32) (*ProcessRecord, bool) {
	h, err := b.source.Open(ctx, pid)
	if err == nil {
		return Collect(ctx, h)
	}
	log.WithField("pid", pid).Debugln("open:", err)
	if !IsDenied(err) {
		return nil, false
	}
	return &ProcessRecord{Pid: pid, Parent: UnknownParent, Unreadable: []string{"open"}}, true
}

// DumpFile writes the snapshot as JSON, or YAML for .yaml/.yml paths. An
// empty path picks a timestamped name.
func (s *Snapshot) DumpFile(path string) error {
	if strings.Compare(path, "") == 0 {
		now := s.TakenAt
		path = fmt.Sprintf("snapshot-%s-%02d%02d%02d.json", now.Format("2006-01-02"), now.Hour(), now.Minute(), now.Second())
	}
	logrus.Infof("snapshot to: %s", path)

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = s.Dump()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Snapshot) Dump() ([]byte, error) {
	return json.Marshal(s)
}

// LoadSnapshot reads a file written by DumpFile.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, snapshot)
	} else {
		err = json.Unmarshal(data, snapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	if snapshot.PidProcess == nil {
		snapshot.PidProcess = map[int32]*ProcessRecord{}
	}
	return snapshot, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
