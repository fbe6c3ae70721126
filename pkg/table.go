package pkg

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

var tableHeaders = []string{
	"PID", "PPID", "NAME", "EXT", "STATUS", "USER", "CREATED", "CPU%", "MEM%",
	"THREADS", "CHILDREN", "PRIORITY", "LOCATION", "NETWORK", "TYPE", "KNOWN",
}

// WriteTable prints one row per record. CPU above 20% and memory above 10%
// are starred.
func WriteTable(w io.Writer, records []*ProcessRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeaders, "\t"))
	for _, p := range records {
		fmt.Fprintln(tw, strings.Join(tableRow(p), "\t"))
	}
	return tw.Flush()
}

func tableRow(p *ProcessRecord) []string {
	created := ""
	if !p.Created.IsZero() {
		created = humanize.Time(p.Created)
	}
	return []string{
		strconv.Itoa(int(p.Pid)),
		strconv.Itoa(int(p.Parent)),
		p.Name,
		p.Ext,
		p.Status,
		p.Owner,
		created,
		marked(fmt.Sprintf("%.1f", p.CPU), p.HighCPU()),
		marked(fmt.Sprintf("%.1f", p.Memory), p.HighMemory()),
		strconv.Itoa(int(p.Threads)),
		strconv.Itoa(p.Children),
		strconv.Itoa(int(p.Priority)),
		p.Exec,
		yesNo(p.Network),
		string(p.Type),
		string(p.Known),
	}
}

// WriteChange prints the added and removed processes, nothing when empty.
func WriteChange(w io.Writer, c Change) error {
	if c.Empty() {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range c.Added {
		fmt.Fprintf(tw, "+\t%d\t%s\t%s\n", p.Pid, p.Name, p.Owner)
	}
	for _, p := range c.Removed {
		fmt.Fprintf(tw, "-\t%d\t%s\t%s\n", p.Pid, p.Name, p.Owner)
	}
	fmt.Fprintf(tw, "%d new, %d terminated\n", len(c.Added), len(c.Removed))
	return tw.Flush()
}

// WriteTree prints each node indented by depth, followed by its
// connections. Inaccessible and suspicious nodes are flagged with "!".
func WriteTree(w io.Writer, roots []*TreeNode) error {
	var err error
	for _, root := range roots {
		root.Walk(func(n *TreeNode) bool {
			if err != nil {
				return false
			}
			indent := strings.Repeat("  ", n.Depth)
			_, err = fmt.Fprintf(w, "%s%s (%d) %s\n", indent, flagged(n.Name, n.Stub || n.Suspicious), n.Pid, n.Cmdline)
			for _, c := range n.Connections {
				if err == nil {
					_, err = fmt.Fprintf(w, "%s  - %s\n", indent, c)
				}
			}
			return true
		})
	}
	return err
}

func marked(s string, hot bool) string {
	if hot {
		return s + "*"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func flagged(s string, flag bool) string {
	if flag {
		return "!" + s
	}
	return s
}
