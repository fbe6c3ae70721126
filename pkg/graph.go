package pkg

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Lineage is the parent to child graph of the records in one snapshot.
// Self-parented records and parents missing from the snapshot get no edge.
type Lineage struct {
	snapshot *Snapshot
	g        *simple.DirectedGraph
}

func NewLineage(snapshot *Snapshot) *Lineage {
	g := simple.NewDirectedGraph()
	for pid := range snapshot.PidProcess {
		g.AddNode(simple.Node(pid))
	}
	for pid, p := range snapshot.PidProcess {
		if p.Parent == pid {
			continue
		}
		if _, ok := snapshot.PidProcess[p.Parent]; !ok {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(p.Parent), simple.Node(pid)))
	}
	return &Lineage{snapshot: snapshot, g: g}
}

// Ancestors returns the parent chain of pid, nearest first. A cycle in the
// parent links ends the chain.
func (l *Lineage) Ancestors(pid int32) []int32 {
	var res []int32
	seen := map[int64]bool{int64(pid): true}
	id := int64(pid)
	for {
		parents := graph.NodesOf(l.g.To(id))
		if len(parents) == 0 {
			return res
		}
		id = parents[0].ID()
		if seen[id] {
			return res
		}
		seen[id] = true
		res = append(res, int32(id))
	}
}

// Descendants returns every pid reachable from pid through child links,
// in ascending order.
func (l *Lineage) Descendants(pid int32) []int32 {
	start := l.g.Node(int64(pid))
	if start == nil {
		return nil
	}
	var res []int32
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != int64(pid) {
				res = append(res, int32(n.ID()))
			}
		},
	}
	bf.Walk(l.g, start, nil)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Related is pid itself plus its ancestors and descendants.
func (l *Lineage) Related(pid int32) *PidSet {
	set := NewPidSet()
	if _, ok := l.snapshot.PidProcess[pid]; !ok {
		return set
	}
	set.Add(pid)
	for _, p := range l.Ancestors(pid) {
		set.Add(p)
	}
	for _, p := range l.Descendants(pid) {
		set.Add(p)
	}
	return set
}
