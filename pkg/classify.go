package pkg

import (
	"strings"
)

var (
	DefaultSystemUsers = []string{"SYSTEM", "root", "LocalService", "NetworkService"}
	DefaultSystemDirs  = []string{`c:\windows\system32`, `c:\windows\syswow64`}
	SuspiciousNames    = []string{"powershell.exe", "cmd.exe", "wscript.exe", "cscript.exe", "mshta.exe"}
)

// Classifier tags processes as Internal/External and Essential/Unknown.
// Build it once; it holds no mutable state.
type Classifier struct {
	users    map[string]struct{}
	dirs     []string
	registry *Registry
}

func NewClassifier(users, dirs []string, registry *Registry) *Classifier {
	c := &Classifier{
		users:    make(map[string]struct{}, len(users)),
		registry: registry,
	}
	for _, u := range users {
		c.users[strings.ToLower(u)] = struct{}{}
	}
	for _, d := range dirs {
		if d = strings.TrimSpace(d); d != "" {
			c.dirs = append(c.dirs, strings.ToLower(d))
		}
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	return c
}

// IsSystemUser matches owner against the system users, ignoring case and
// any DOMAIN\ prefix (NT AUTHORITY\SYSTEM is SYSTEM).
func (c *Classifier) IsSystemUser(owner string) bool {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return false
	}
	if i := strings.LastIndex(owner, `\`); i >= 0 {
		owner = owner[i+1:]
	}
	_, ok := c.users[strings.ToLower(owner)]
	return ok
}

// Classify is Internal for system owners or executables under a system
// directory, External otherwise. An empty path never counts as system.
func (c *Classifier) Classify(owner, exec string) Classification {
	if c.IsSystemUser(owner) {
		return Internal
	}
	exec = strings.ToLower(exec)
	if exec == "" {
		return External
	}
	for _, dir := range c.dirs {
		if strings.HasPrefix(exec, dir) {
			return Internal
		}
	}
	return External
}

func (c *Classifier) IsKnown(name string) Known {
	if c.registry.Contains(name) {
		return Essential
	}
	return Unknown
}

func (c *Classifier) Registry() *Registry {
	return c.registry
}

func IsSuspicious(name string) bool {
	name = strings.ToLower(name)
	for _, s := range SuspiciousNames {
		if name == s {
			return true
		}
	}
	return false
}
