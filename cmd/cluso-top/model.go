package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-failover/pkg/registry"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1).
			MarginLeft(2)

	aliveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh now"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

type tickMsg time.Time

// pollMsg carries the result of one poll of both endpoints.
type pollMsg struct {
	registry    registry.Status
	registryErr error
	replication *ReplicationView
	replErr     error
	at          time.Time
}

type model struct {
	client   *client
	interval time.Duration
	table    table.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	polling  bool
	last     pollMsg
	polled   bool
}

func initialModel(c *client, interval time.Duration) model {
	columns := []table.Column{
		{Title: "", Width: 2},
		{Title: "Backend", Width: 36},
		{Title: "Status", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		client:   c,
		interval: interval,
		table:    t,
		spinner:  sp,
		help:     help.New(),
		keys:     keys,
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func pollCmd(c *client, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		msg := pollMsg{at: time.Now()}
		msg.registry, msg.registryErr = c.registryStatus(ctx)
		msg.replication, msg.replErr = c.replicationStatus(ctx)
		return msg
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, pollCmd(m.client, m.interval))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if !m.polling {
				m.polling = true
				return m, pollCmd(m.client, m.interval)
			}
		}

	case tickMsg:
		if m.polling {
			return m, tickCmd(m.interval)
		}
		m.polling = true
		return m, pollCmd(m.client, m.interval)

	case pollMsg:
		m.polling = false
		m.polled = true
		m.last = msg
		m.table.SetRows(backendRows(msg.registry))
		return m, tickCmd(m.interval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// backendRows renders the registry status, marking the current selection.
func backendRows(status registry.Status) []table.Row {
	rows := make([]table.Row, 0, len(status.Servers))
	for _, s := range status.Servers {
		marker := ""
		if s.URL == status.CurrentServer {
			marker = "▶"
		}
		state := downStyle.Render(s.Status)
		if s.Status == registry.Alive.String() {
			state = aliveStyle.Render(s.Status)
		}
		rows = append(rows, table.Row{marker, s.URL, state})
	}
	return rows
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cluso-top"))
	b.WriteString("\n\n")

	if !m.polled {
		b.WriteString(boxStyle.Render(m.spinner.View() + " polling " + m.client.registryURL))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.help.View(m.keys)))
		return b.String()
	}

	// Discovery
	var disc strings.Builder
	if m.last.registryErr != nil {
		disc.WriteString(downStyle.Render("discovery unreachable: " + m.last.registryErr.Error()))
	} else {
		current := m.last.registry.CurrentServer
		if current == "" {
			current = mutedStyle.Render("none")
		}
		fmt.Fprintf(&disc, "Current server: %s\n\n", current)
		disc.WriteString(m.table.View())
	}
	b.WriteString(boxStyle.Render(disc.String()))
	b.WriteString("\n")

	// Replication
	if m.client.catalogURL != "" {
		b.WriteString(boxStyle.Render(replicationView(m.last.replication, m.last.replErr)))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("updated %s", m.last.at.Format("15:04:05"))
	if m.polling {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(helpStyle.Render(status + "  " + m.help.View(m.keys)))
	return b.String()
}

func replicationView(v *ReplicationView, err error) string {
	if err != nil {
		return downStyle.Render("catalog unreachable: " + err.Error())
	}
	if v == nil {
		return mutedStyle.Render("no replication status")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Replication mode: %s\n", v.Mode)
	if v.Stats != nil {
		fmt.Fprintf(&b, "Queries:          %d\n", v.Stats.Queries)
		fmt.Fprintf(&b, "Secondary only:   %d\n", v.Stats.SecondaryOnly)
		failures := fmt.Sprintf("%d", v.Stats.MirrorFailures)
		if v.Stats.MirrorFailures > 0 {
			failures = downStyle.Render(failures)
		}
		fmt.Fprintf(&b, "Mirror failures:  %s", failures)
		return b.String()
	}

	pending := fmt.Sprintf("%d", v.PendingChanges)
	if v.PendingChanges > 0 {
		pending = downStyle.Render(pending)
	}
	fmt.Fprintf(&b, "Pending changes:  %s\n", pending)
	fmt.Fprintf(&b, "Flushed changes:  %d\n", v.FlushedChanges)
	fmt.Fprintf(&b, "Failed flushes:   %d", v.FailedFlushes)
	if v.LastFlushError != "" {
		fmt.Fprintf(&b, "\nLast error:       %s", downStyle.Render(v.LastFlushError))
	}
	return b.String()
}
