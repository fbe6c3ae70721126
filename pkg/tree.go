package pkg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxDepth = 3
	UnknownParent   = int32(-1)
)

// TreeNode is one process in a bounded lineage tree. A pid appears at most
// once in a tree.
type TreeNode struct {
	Pid         int32        `json:"pid" yaml:"pid"`
	Name        string       `json:"name" yaml:"name"`
	Parent      int32        `json:"parent" yaml:"parent"`
	Cmdline     string       `json:"cmdline" yaml:"cmdline"`
	Connections []string     `json:"connections" yaml:"connections"`
	Endpoints   []Connection `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	Depth       int          `json:"depth" yaml:"depth"`
	Stub        bool         `json:"stub,omitempty" yaml:"stub,omitempty"`
	Suspicious  bool         `json:"suspicious,omitempty" yaml:"suspicious,omitempty"`
	Children    []*TreeNode  `json:"children" yaml:"children"`
}

// Walk visits n and its descendants depth first, stopping a branch when fn
// returns false.
func (n *TreeNode) Walk(fn func(*TreeNode) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// TreeBuilder assembles lineage trees straight from the OS, without a snapshot.
type TreeBuilder struct {
	source Source
}

func NewTreeBuilder(source Source) *TreeBuilder {
	return &TreeBuilder{source: source}
}

type treeBuild struct {
	ctx      context.Context
	source   Source
	maxDepth int
	visited  map[int32]*TreeNode
}

// Build descends from root for at most maxDepth levels. Children are
// visited in ascending pid order. The result holds the root node.
func (b *TreeBuilder) Build(ctx context.Context, root int32, maxDepth int) []*TreeNode {
	if maxDepth < 0 {
		maxDepth = 0
	}
	t := &treeBuild{
		ctx:      ctx,
		source:   b.source,
		maxDepth: maxDepth,
		visited:  map[int32]*TreeNode{},
	}
	nodes, _ := t.visit(root, 0)
	logrus.WithFields(logrus.Fields{
		"root":  root,
		"depth": maxDepth,
		"nodes": len(t.visited),
	}).Debugln("process tree built")
	return nodes
}

// visit returns the node for pid and whether it was created by this call.
// A pid seen before returns the node already built, which the caller does
// not attach again.
func (t *treeBuild) visit(pid int32, depth int) ([]*TreeNode, bool) {
	if node, ok := t.visited[pid]; ok {
		return []*TreeNode{node}, false
	}

	h, err := t.source.Open(t.ctx, pid)
	if err != nil {
		return []*TreeNode{t.stub(pid, depth, err)}, true
	}
	name, err := h.Name(t.ctx)
	if err != nil {
		return []*TreeNode{t.stub(pid, depth, err)}, true
	}
	ppid, err := h.Ppid(t.ctx)
	if err != nil {
		return []*TreeNode{t.stub(pid, depth, err)}, true
	}

	node := &TreeNode{
		Pid:         pid,
		Name:        name,
		Parent:      ppid,
		Depth:       depth,
		Suspicious:  IsSuspicious(name),
		Connections: []string{},
		Children:    []*TreeNode{},
	}
	if cmdline, err := h.Cmdline(t.ctx); err == nil {
		node.Cmdline = cmdline
	}
	if conns, err := h.Connections(t.ctx); err == nil {
		node.Endpoints, node.Connections = summarizeConnections(conns)
	}
	t.visited[pid] = node

	if depth >= t.maxDepth {
		return []*TreeNode{node}, true
	}
	children, err := h.Children(t.ctx)
	if err != nil {
		return []*TreeNode{node}, true
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for _, child := range children {
		if t.ctx.Err() != nil {
			break
		}
		if nodes, fresh := t.visit(child, depth+1); fresh {
			node.Children = append(node.Children, nodes...)
		}
	}
	return []*TreeNode{node}, true
}

func (t *treeBuild) stub(pid int32, depth int, err error) *TreeNode {
	node := &TreeNode{
		Pid:         pid,
		Name:        fmt.Sprintf("[Process %d not accessible]", pid),
		Parent:      UnknownParent,
		Cmdline:     err.Error(),
		Connections: []string{},
		Depth:       depth,
		Stub:        true,
		Children:    []*TreeNode{},
	}
	t.visited[pid] = node
	return node
}

// summarizeConnections keeps connections with a local address and renders
// them as "ip:port -> ip:port (STATUS)" or "ip:port (LISTENING)".
func summarizeConnections(conns []Connection) ([]Connection, []string) {
	kept := []Connection{}
	lines := []string{}
	for _, c := range conns {
		if c.LocalIP == "" || strings.EqualFold(c.Status, "NONE") {
			continue
		}
		kept = append(kept, c)
		lines = append(lines, FormatConnection(c))
	}
	return kept, lines
}

func FormatConnection(c Connection) string {
	if c.HasRemote() {
		return fmt.Sprintf("%s:%d -> %s:%d (%s)", c.LocalIP, c.LocalPort, c.RemoteIP, c.RemotePort, c.Status)
	}
	return fmt.Sprintf("%s:%d (LISTENING)", c.LocalIP, c.LocalPort)
}
