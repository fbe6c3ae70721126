package pkg

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"
)

type dotNode struct {
	ID    string
	Label string
	Attrs dotAttrs
}

type dotEdge struct {
	From  string
	To    string
	Label string
	Attrs dotAttrs
}

func newDotEdge() *dotEdge {
	return &dotEdge{
		Label: "",
		Attrs: dotAttrs{},
	}
}

func (e dotEdge) String() string {
	return fmt.Sprintf("%s -> %s [ label=\"%s\", %s ]", e.From, e.To, e.Label, e.Attrs)
}

func (n dotNode) String() string {
	return fmt.Sprintf("%s [ label=\"%s\", %s ]", n.ID, n.Label, n.Attrs)
}

type dotAttrs map[string]string

// List is sorted so the output is stable.
func (p dotAttrs) List() []string {
	var l []string
	for k, v := range p {
		l = append(l, fmt.Sprintf("%s=%q", k, v))
	}
	sort.Strings(l)
	return l
}

func (p dotAttrs) String() string {
	return strings.Join(p.List(), " ")
}

func (p dotAttrs) Lines() string {
	return fmt.Sprintf("%s;", strings.Join(p.List(), ";\n"))
}

func toDotId(pid int32) string {
	if pid < 0 {
		return "nm" + strconv.Itoa(int(-pid))
	}
	return "n" + strconv.Itoa(int(pid))
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`, "\n", " ",
)

func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}

const (
	cmdPreview  = 50
	connPreview = 2
)

// makeTreeLabel renders the record fields shown for one process.
func makeTreeLabel(n *TreeNode) string {
	parts := []string{escapeRecord(fmt.Sprintf("%s (PID: %d)", n.Name, n.Pid))}
	if n.Parent != UnknownParent {
		parts = append(parts, "Parent: "+strconv.Itoa(int(n.Parent)))
	}
	cmd := n.Cmdline
	if r := []rune(cmd); len(r) > cmdPreview {
		cmd = string(r[:cmdPreview]) + "..."
	}
	parts = append(parts, escapeRecord(cmd))

	if len(n.Connections) > 0 {
		lines := []string{"Network:"}
		for i, c := range n.Connections {
			if i == connPreview {
				lines = append(lines, fmt.Sprintf("... and %d more", len(n.Connections)-connPreview))
				break
			}
			lines = append(lines, escapeRecord("- "+c))
		}
		parts = append(parts, strings.Join(lines, `\l`)+`\l`)
	}
	return "{" + strings.Join(parts, " | ") + "}"
}

type dotGraphData struct {
	Title   string
	Nodes   []*dotNode
	Edges   []*dotEdge
	Options map[string]string
}

// DotRender turns a process tree into a graphviz diagram. Node positions
// come from Layout and are pinned, so the neato engine keeps them.
type DotRender struct {
	engine *graphviz.Graphviz
	layout LayoutOption
}

func NewDotRender() *DotRender {
	g := graphviz.New()
	g.SetLayout(graphviz.NEATO)
	return &DotRender{engine: g, layout: DefaultLayoutOption()}
}

func (r *DotRender) toData(roots []*TreeNode) *dotGraphData {
	pos := Layout(roots, r.layout)

	var nodes []*dotNode
	var edges []*dotEdge
	public := map[string]bool{}
	for _, root := range roots {
		root.Walk(func(n *TreeNode) bool {
			p := pos[n.Pid]
			node := &dotNode{
				ID:    toDotId(n.Pid),
				Label: makeTreeLabel(n),
				Attrs: dotAttrs{
					"shape": "record",
					"style": "filled",
					"pos": fmt.Sprintf("%.0f,%.0f!",
						p.X+r.layout.NodeWidth/2, -(p.Y + r.layout.NodeHeight/2)),
					"fillcolor": "white",
				},
			}
			if n.Stub || n.Suspicious {
				node.Attrs["fillcolor"] = "#ffc8c8"
			}
			nodes = append(nodes, node)

			for _, c := range n.Children {
				edge := newDotEdge()
				edge.From = toDotId(n.Pid)
				edge.To = toDotId(c.Pid)
				edge.Attrs["color"] = "darkgray"
				edges = append(edges, edge)
			}

			for _, conn := range n.Endpoints {
				if !conn.Public() {
					continue
				}
				id := "ip" + replaceIPChar(conn.RemoteIP) + "_" + strconv.Itoa(int(conn.RemotePort))
				if !public[id] {
					public[id] = true
					nodes = append(nodes, &dotNode{
						ID:    id,
						Label: escapeRecord(conn.RemoteIP + ":" + strconv.Itoa(int(conn.RemotePort))),
						Attrs: dotAttrs{"shape": "box3d"},
					})
				}
				edge := newDotEdge()
				edge.From = toDotId(n.Pid)
				edge.To = id
				edge.Attrs["color"] = "blue"
				edge.Attrs["dir"] = "both"
				edges = append(edges, edge)
			}
			return true
		})
	}

	title := "PSWatch"
	if len(roots) > 0 {
		title = fmt.Sprintf("Process tree of %d", roots[0].Pid)
	}
	return &dotGraphData{
		Title: fmt.Sprintf("%s (%s)", title, time.Now().Format(time.RFC3339)),
		Nodes: nodes,
		Edges: edges,
	}
}

func replaceIPChar(ip string) string {
	return strings.NewReplacer(".", "_", ":", "_", "%", "_").Replace(ip)
}

// Bytes returns the DOT source for roots.
func (r *DotRender) Bytes(roots []*TreeNode) ([]byte, error) {
	t := template.New("dot")
	for _, s := range []string{tmplNode, tmplEdge, tmplGraph} {
		if _, err := t.Parse(s); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, r.toData(roots)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders roots to output (".dot" appended when missing) and a PNG
// next to it.
func (r *DotRender) Write(roots []*TreeNode, output string) error {
	data, err := r.Bytes(roots)
	if err != nil {
		return err
	}
	graph, err := graphviz.ParseBytes(data)
	if err != nil {
		return err
	}
	defer graph.Close()

	if !strings.HasSuffix(output, ".dot") {
		output = output + ".dot"
	}
	if err := r.engine.RenderFilename(graph, graphviz.Format(graphviz.DOT), output); err != nil {
		return err
	}
	if err := r.engine.RenderFilename(graph, graphviz.PNG, output+".png"); err != nil {
		logrus.Errorln("render png:", err)
	}
	logrus.Infof("tree to: %s", output)
	return nil
}
