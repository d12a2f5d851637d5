// Package tui implements LLMSim's live terminal dashboard (the --tui flag,
// spec §6): a bubbletea program that polls GET /llmsim/stats on a ticker
// and renders the snapshot as lipgloss panels.
//
// The teacher's gateway declares bubbletea/bubbles/lipgloss in go.mod but
// never imports them; this package is what actually exercises them, built
// in the style of the teacher's interfaces/cli/renderer.go (lipgloss panel
// styling, boxed sections).
package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chaliy/llmsim/internal/domain/stats"
)

const pollInterval = 500 * time.Millisecond

// rpsGaugeCeiling is the requests-per-second value that fills the RPS
// gauge completely; it is a display ceiling, not a configured limit.
const rpsGaugeCeiling = 50.0

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// statsMsg carries a freshly polled snapshot, or an error if the request
// failed (the server may not be up yet, or a request may time out).
type statsMsg struct {
	snapshot stats.Snapshot
	err      error
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

type tickMsg struct{}

// Model is the bubbletea model driving the dashboard. It owns its own HTTP
// client and never touches the Aggregator directly — it observes the
// server exactly as any external dashboard would, through GET /llmsim/stats.
type Model struct {
	statsURL string
	client   *http.Client
	gauge    progress.Model
	last     stats.Snapshot
	lastErr  error
	width    int
}

// New builds a dashboard model polling statsURL (e.g.
// "http://127.0.0.1:8080/llmsim/stats").
func New(statsURL string) Model {
	return Model{
		statsURL: statsURL,
		client:   &http.Client{Timeout: 2 * time.Second},
		gauge:    progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(pollTick(), m.fetch())
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get(m.statsURL)
		if err != nil {
			return statsMsg{err: err}
		}
		defer resp.Body.Close()

		var snap stats.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{snapshot: snap}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.gauge.Width = clampGaugeWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(pollTick(), m.fetch())
	case statsMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.last = msg.snapshot
		cmd := m.gauge.SetPercent(gaugeFraction(msg.snapshot.RequestsPerSecond))
		return m, cmd
	case progress.FrameMsg:
		updated, cmd := m.gauge.Update(msg)
		m.gauge = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func clampGaugeWidth(termWidth int) int {
	w := termWidth - 20
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

func gaugeFraction(rps float64) float64 {
	f := rps / rpsGaugeCeiling
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LLMSim — live stats"))
	b.WriteString("\n\n")

	if m.lastErr != nil {
		b.WriteString(panelStyle.Render(errorStyle.Render("stats unavailable: " + m.lastErr.Error())))
		b.WriteString("\n\n" + helpStyle.Render("q to quit"))
		return b.String()
	}

	s := m.last
	overview := lipgloss.JoinVertical(lipgloss.Left,
		row("uptime", fmt.Sprintf("%.0fs", s.UptimeSecs)),
		row("total requests", fmt.Sprintf("%d", s.TotalRequests)),
		row("active", fmt.Sprintf("%d", s.ActiveRequests)),
		row("streaming / non-streaming", fmt.Sprintf("%d / %d", s.StreamingRequests, s.NonStreamingRequests)),
		row("rps (60s)", fmt.Sprintf("%.2f", s.RequestsPerSecond)),
		m.gauge.ViewAs(gaugeFraction(s.RequestsPerSecond)),
	)

	tokens := lipgloss.JoinVertical(lipgloss.Left,
		row("prompt tokens", fmt.Sprintf("%d", s.PromptTokens)),
		row("completion tokens", fmt.Sprintf("%d", s.CompletionTokens)),
		row("total tokens", fmt.Sprintf("%d", s.TotalTokens)),
		row("latency min/avg/max (ms)", fmt.Sprintf("%.0f / %.0f / %.0f", s.MinLatencyMs, s.AvgLatencyMs, s.MaxLatencyMs)),
	)

	errs := lipgloss.JoinVertical(lipgloss.Left,
		row("total errors", fmt.Sprintf("%d", s.TotalErrors)),
		row("rate limit", fmt.Sprintf("%d", s.RateLimitErrors)),
		row("server", fmt.Sprintf("%d", s.ServerErrors)),
		row("timeout", fmt.Sprintf("%d", s.TimeoutErrors)),
	)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(overview),
		panelStyle.Render(tokens),
		panelStyle.Render(errs),
	))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(modelTable(s.ModelRequests)))
	b.WriteString("\n" + helpStyle.Render("q to quit"))
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

func modelTable(counts map[string]int64) string {
	if len(counts) == 0 {
		return labelStyle.Render("no requests yet")
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(labelStyle.Render("model requests"))
	for _, id := range ids {
		b.WriteString(fmt.Sprintf("\n  %s: %d", id, counts[id]))
	}
	return b.String()
}

// Run starts the dashboard program and blocks until the user quits.
func Run(statsURL string) error {
	p := tea.NewProgram(New(statsURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
