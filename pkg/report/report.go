// Package report renders network state and scenario results as console tables.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/simulation"
	"github.com/Co11apsar/route/pkg/trace"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	markedStyle = cellStyle.
			Foreground(lipgloss.Color("#FFFF00"))

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))
)

// newTable returns a table with the shared border and header styling. Rows
// for which marked returns true are highlighted.
func newTable(headers []string, rows [][]string, marked func(row int) bool) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case marked != nil && marked(row):
				return markedStyle
			default:
				return cellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Nodes renders one row per node, ordered by ID
func Nodes(snap network.Snapshot) string {
	nodes := snap.SortedNodes()
	rows := make([][]string, 0, len(nodes))
	for _, st := range nodes {
		rows = append(rows, []string{
			strconv.Itoa(int(st.ID)),
			number(st.Load),
			number(st.Capacity),
			fmt.Sprintf("%.0f%%", st.LoadRatio*100),
			strconv.Itoa(int(st.Security)),
			number(st.Pheromone),
			strconv.FormatUint(st.Selections, 10),
		})
	}
	return newTable(
		[]string{"Node", "Load", "Capacity", "Used", "Security", "Pheromone", "Selected"},
		rows,
		func(row int) bool { return nodes[row].LoadRatio >= 0.9 },
	).String()
}

// Edges renders one row per undirected edge, ordered by endpoints
func Edges(snap network.Snapshot) string {
	edges := snap.SortedEdges()
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", e.U, e.V),
			number(e.Latency),
			number(e.Bandwidth),
			strconv.Itoa(int(e.Security)),
		})
	}
	return newTable([]string{"Edge", "Latency", "Bandwidth", "Security"}, rows, nil).String()
}

// Status renders the node and edge tables under a title
func Status(snap network.Snapshot) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("Network: %d nodes, %d edges", len(snap.Nodes), len(snap.Edges))))
	s.WriteString("\n")
	s.WriteString(Nodes(snap))
	if len(snap.Edges) > 0 {
		s.WriteString("\n")
		s.WriteString(Edges(snap))
	}
	return s.String()
}

// LoadBalance renders the per-node outcome of a load-balancing run and its total delay
func LoadBalance(r simulation.LoadBalanceReport) string {
	rows := make([][]string, 0, len(r.Nodes))
	for _, node := range r.Nodes {
		load := number(node.Load)
		if node.Role != simulation.RoleRelay {
			load = string(node.Role)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(node.ID)),
			load,
			strconv.FormatUint(node.Selections, 10),
			number(node.MeanDelay) + "ms",
			number(node.Pheromone),
		})
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Node statistics"))
	s.WriteString("\n")
	s.WriteString(newTable(
		[]string{"Node", "Load", "Selected", "Mean delay", "Pheromone"},
		rows,
		func(row int) bool { return r.Nodes[row].Role != simulation.RoleRelay },
	).String())
	s.WriteString("\n")
	s.WriteString(totalStyle.Render(fmt.Sprintf("Total delay: %sms", number(r.TotalDelay))))
	s.WriteString(fmt.Sprintf("\nRequests: %d completed, %d stalled; %d of %d hops taken by ants (%s)\n",
		r.Completed, r.Stalled, r.AntHops, r.Hops, r.Duration.Round(time.Millisecond)))
	return s.String()
}

// Paths renders the outcome of a path scenario followed by the final network state
func Paths(r simulation.PathReport) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Path requests"))
	s.WriteString("\n")
	s.WriteString(newTable(
		[]string{"Requests", "Found", "Not found", "Mean cost"},
		[][]string{{
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Found),
			strconv.Itoa(r.NotFound),
			number(r.MeanCost),
		}},
		nil,
	).String())
	s.WriteString("\n")
	s.WriteString(Nodes(r.Snapshot))
	s.WriteString("\n")
	return s.String()
}

// Trace renders one row per traced search, taken from its summary entry
func Trace(entries []trace.Entry) string {
	rows := make([][]string, 0)
	records := 0
	for _, e := range entries {
		if e.Kind == trace.KindRecord {
			records++
			continue
		}
		if e.Summary == nil {
			continue
		}
		cost, path := "-", "-"
		if e.Summary.Found {
			cost = number(e.Summary.Cost)
			path = formatPath(e.Summary.Path)
		}
		rows = append(rows, []string{
			e.RequestID,
			fmt.Sprintf("%d -> %d", e.Summary.Start, e.Summary.End),
			path,
			cost,
			strconv.Itoa(records),
		})
		records = 0
	}
	return newTable([]string{"Request", "Pair", "Path", "Cost", "Finalized"}, rows, nil).String()
}

func formatPath(path []network.NodeID) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, " > ")
}
