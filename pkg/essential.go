package pkg

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Registry is the allowlist of process names considered expected on the host.
// It is never modified once built.
type Registry struct {
	names map[string]struct{}
}

// LoadRegistry reads the registry from path. A missing or unreadable file
// gives an empty registry.
func LoadRegistry(path string) *Registry {
	if path == "" {
		return NewRegistry()
	}
	f, err := os.Open(path)
	if err != nil {
		logrus.WithField("essential", path).Warningln("no essential list, use empty")
		return NewRegistry()
	}
	defer f.Close()
	return ParseRegistry(f)
}

// ParseRegistry reads one name per line. Blank lines and lines starting
// with # are skipped; names are lowercased.
func ParseRegistry(r io.Reader) *Registry {
	reg := NewRegistry()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reg.names[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		logrus.Warningln("essential list read stopped early:", err)
	}
	return reg
}

func NewRegistry(names ...string) *Registry {
	reg := &Registry{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		reg.names[strings.ToLower(n)] = struct{}{}
	}
	return reg
}

func (r *Registry) Contains(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Names returns the entries sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	res := make([]string, 0, len(r.names))
	for n := range r.names {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}
