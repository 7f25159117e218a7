package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Co11apsar/route/pkg/engine"
	"github.com/Co11apsar/route/pkg/events"
	"github.com/Co11apsar/route/pkg/network"
	"github.com/Co11apsar/route/pkg/simulation"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	nodesView
	eventsView
	viewCount
)

var viewNames = []string{"Dashboard", "Nodes", "Events"}

// maxEvents bounds the event log shown in the events view
const maxEvents = 15

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Start    key.Binding
	Stop     key.Binding
	Reseed   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start run"),
	),
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop run"),
	),
	Reseed: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "new seed"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Start, k.Stop, k.Reseed, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Start, k.Stop, k.Reseed},
		{k.Quit},
	}
}

// runSettings fixes the network and scenario of a run
type runSettings struct {
	nodes    int
	minDelay int
	maxDelay int
	scenario simulation.LoadBalanceScenario
}

type (
	tickMsg     time.Time
	progressMsg simulation.Progress
	eventMsg    events.Event
	doneMsg     struct {
		report simulation.LoadBalanceReport
		err    error
	}
)

type model struct {
	eng      *engine.Engine
	settings runSettings
	seed     uint64

	progressCh chan simulation.Progress
	eventSub   *events.Subscription
	cancel     context.CancelFunc

	currentView view
	nodeTable   table.Model
	spinner     spinner.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int

	running    bool
	progress   simulation.Progress
	report     *simulation.LoadBalanceReport
	snapshot   network.Snapshot
	eventLog   []string
	message    string
	messageErr bool
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForProgress(ch <-chan simulation.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

func waitForEvent(sub *events.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func initialModel(eng *engine.Engine, sub *events.Subscription, settings runSettings, seed uint64) model {
	columns := []table.Column{
		{Title: "Node", Width: 6},
		{Title: "Role", Width: 7},
		{Title: "Load", Width: 10},
		{Title: "Pheromone", Width: 10},
		{Title: "Selections", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		eng:         eng,
		settings:    settings,
		seed:        seed,
		progressCh:  make(chan simulation.Progress, 1),
		eventSub:    sub,
		currentView: dashboardView,
		nodeTable:   t,
		spinner:     sp,
		help:        help.New(),
		keys:        keys,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
		waitForProgress(m.progressCh),
		waitForEvent(m.eventSub),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case progressMsg:
		m.progress = simulation.Progress(msg)
		return m, waitForProgress(m.progressCh)

	case eventMsg:
		m.logEvent(events.Event(msg))
		return m, waitForEvent(m.eventSub)

	case doneMsg:
		m.running = false
		m.cancel = nil
		m.refresh()
		if errors.Is(msg.err, context.Canceled) {
			m.report = &msg.report
			m.message = fmt.Sprintf("Run stopped after %d requests", msg.report.Requests)
			m.messageErr = false
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.report = &msg.report
		m.message = fmt.Sprintf("Run finished: %d of %d requests routed, total delay %.0f ms",
			msg.report.Completed, msg.report.Requests, msg.report.TotalDelay)
		m.messageErr = false
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
		case key.Matches(msg, m.keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount
		case key.Matches(msg, m.keys.Start):
			if !m.running {
				cmds = append(cmds, m.start())
			}
		case key.Matches(msg, m.keys.Stop):
			m.stop()
		case key.Matches(msg, m.keys.Reseed):
			if !m.running {
				m.seed++
				m.message = fmt.Sprintf("Seed set to %d", m.seed)
				m.messageErr = false
			}
		}
	}

	if m.currentView == nodesView {
		m.nodeTable, cmd = m.nodeTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start rebuilds the network and runs the scenario in the background
func (m *model) start() tea.Cmd {
	s := m.settings
	if _, err := m.eng.InitLoadBalance(m.seed, s.nodes, s.minDelay, s.maxDelay); err != nil {
		m.setError(err)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.report = nil
	m.progress = simulation.Progress{Total: s.scenario.Requests}
	m.message = fmt.Sprintf("Running %d requests over %d nodes (seed %d)", s.scenario.Requests, s.nodes, m.seed)
	m.messageErr = false

	scenario := s.scenario
	ch := m.progressCh
	scenario.Progress = func(p simulation.Progress) {
		offerLatest(ch, p)
	}

	eng := m.eng
	return func() tea.Msg {
		r, err := scenario.Run(ctx, eng)
		return doneMsg{report: r, err: err}
	}
}

// offerLatest puts p on ch, replacing any update the UI has not read yet.
// The scenario goroutine is the only sender.
func offerLatest(ch chan simulation.Progress, p simulation.Progress) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m *model) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *model) setError(err error) {
	m.message = err.Error()
	m.messageErr = true
}

func (m *model) refresh() {
	snap, err := m.eng.Status()
	if err != nil {
		return
	}
	m.snapshot = snap

	rows := make([]table.Row, 0, len(snap.Nodes))
	for _, st := range snap.SortedNodes() {
		rows = append(rows, table.Row{
			strconv.Itoa(int(st.ID)),
			string(m.role(st.ID)),
			fmt.Sprintf("%.2f", st.Load),
			fmt.Sprintf("%.3f", st.Pheromone),
			strconv.FormatUint(st.Selections, 10),
		})
	}
	m.nodeTable.SetRows(rows)
}

func (m model) role(id network.NodeID) simulation.Role {
	switch id {
	case m.settings.scenario.Entry:
		return simulation.RoleEntry
	case m.settings.scenario.Exit:
		return simulation.RoleExit
	default:
		return simulation.RoleRelay
	}
}

func (m *model) logEvent(ev events.Event) {
	payload, _ := json.Marshal(ev.Payload)
	line := fmt.Sprintf("%s %-20s %s", ev.Time.Format("15:04:05.000"), ev.Type, truncate(string(payload), 60))
	m.eventLog = append(m.eventLog, line)
	if len(m.eventLog) > maxEvents {
		m.eventLog = m.eventLog[len(m.eventLog)-maxEvents:]
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Route - Hybrid Load Balancing"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case nodesView:
		s.WriteString(m.renderNodes())
	case eventsView:
		s.WriteString(m.renderEvents())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	var renderedTabs []string
	for i, tab := range viewNames {
		if view(i) == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderDashboard() string {
	state := "idle"
	if m.running {
		state = m.spinner.View() + " running"
	}

	runContent := fmt.Sprintf(`Run
───────────────
State:      %s
Seed:       %d
Requests:   %d / %d
Last delay: %.0f ms`,
		state,
		m.seed,
		m.progress.Request,
		m.progress.Total,
		m.progress.Value,
	)

	peak := 0.0
	for _, st := range m.snapshot.Nodes {
		peak = max(peak, st.Load)
	}
	networkContent := fmt.Sprintf(`Network
───────────────
Nodes:      %d
Peak load:  %.2f
Entry:      %d
Exit:       %d`,
		len(m.snapshot.Nodes),
		peak,
		m.settings.scenario.Entry,
		m.settings.scenario.Exit,
	)

	boxes := []string{statsBoxStyle.Render(runContent), statsBoxStyle.Render(networkContent)}
	if m.report != nil {
		resultContent := fmt.Sprintf(`Result
───────────────
Completed:  %d
Stalled:    %d
Ant hops:   %d of %d
Total delay: %.0f ms
Duration:   %s`,
			m.report.Completed,
			m.report.Stalled,
			m.report.AntHops,
			m.report.Hops,
			m.report.TotalDelay,
			m.report.Duration.Round(time.Millisecond),
		)
		boxes = append(boxes, statsBoxStyle.Render(resultContent))
	}

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
}

func (m model) renderNodes() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Node Load"))
	s.WriteString("\n\n")
	s.WriteString(m.nodeTable.View())
	return contentStyle.Render(s.String())
}

func (m model) renderEvents() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Recent Events"))
	s.WriteString("\n\n")
	if len(m.eventLog) == 0 {
		s.WriteString("No events yet. Press 's' to start a run.")
	}
	for _, line := range m.eventLog {
		s.WriteString(line)
		s.WriteString("\n")
	}
	return contentStyle.Render(s.String())
}
