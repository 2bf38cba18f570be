package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allbin/serial-counter/emitter"
	"github.com/allbin/serial-counter/internal/tui/colors"
	"github.com/allbin/serial-counter/internal/tui/components"
	"github.com/allbin/serial-counter/internal/tui/keys"
	"github.com/allbin/serial-counter/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RefreshInterval is how often the view samples the emitter's stats.
const RefreshInterval = 250 * time.Millisecond

// StatsFunc returns a snapshot of the running emitter.
type StatsFunc func() emitter.Stats

// EmitterDoneMsg is sent once Run has returned.
type EmitterDoneMsg struct {
	Err error
}

type refreshMsg time.Time

type EmitModel struct {
	statusBar *components.StatusBar
	stats     StatsFunc
	cancel    context.CancelFunc

	spinner spinner.Model
	help    help.Model
	keys    keys.EmitKeys

	current  emitter.Stats
	lastTick time.Time
	lastSeen uint64
	rate     float64

	startedAt time.Time
	done      bool
	err       error
}

// NewEmitModel builds the live view. cancel stops the emitter when the
// user quits.
func NewEmitModel(device string, info components.ConnectionInfo, stats StatsFunc, cancel context.CancelFunc) *EmitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colors.Teal)

	return &EmitModel{
		statusBar: components.NewStatusBar(device, info),
		stats:     stats,
		cancel:    cancel,
		spinner:   s,
		help:      help.New(),
		keys:      keys.NewEmitKeys(),
		startedAt: time.Now(),
	}
}

func (m *EmitModel) Init() tea.Cmd {
	m.lastTick = time.Now()
	return tea.Batch(m.spinner.Tick, refresh())
}

func refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *EmitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case refreshMsg:
		m.sample(time.Time(msg))
		if m.done {
			return m, nil
		}
		return m, refresh()

	case EmitterDoneMsg:
		m.done = true
		m.err = msg.Err
		m.sample(time.Now())
		m.rate = 0

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *EmitModel) sample(now time.Time) {
	if m.stats == nil {
		return
	}
	m.current = m.stats()
	m.rate = LineRate(m.lastSeen, m.current.Emitted, now.Sub(m.lastTick))
	m.lastSeen = m.current.Emitted
	m.lastTick = now
}

// Err is the error Run returned, if it has returned.
func (m *EmitModel) Err() error {
	return m.err
}

// LineRate is the number of lines per second between two samples of the
// emitted counter.
func LineRate(previous, current uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 || current < previous {
		return 0
	}
	return float64(current-previous) / elapsed.Seconds()
}

func (m *EmitModel) status() (styles.StatusType, string) {
	switch {
	case !m.done:
		return styles.StatusRunning, "EMITTING"
	case m.err != nil && !errors.Is(m.err, context.Canceled):
		return styles.StatusFailed, "FAILED"
	default:
		return styles.StatusStopped, "STOPPED"
	}
}

func (m *EmitModel) View() string {
	status, statusText := m.status()

	var b strings.Builder
	title := styles.TitleStyle.Render("Serial Counter")
	if !m.done {
		title = lipgloss.JoinHorizontal(lipgloss.Left, title, " ", m.spinner.View())
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	row := func(label, value string, style lipgloss.Style) {
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(style.Render(value))
		b.WriteString("\n")
	}
	row("State", statusText, styles.GetStatusStyle(status))
	row("Emitted", fmt.Sprintf("%d", m.current.Emitted), styles.ValueStyle)
	row("Next value", fmt.Sprintf("%d", m.current.Next), styles.ValueStyle)
	row("Rate", fmt.Sprintf("%.0f lines/s", m.rate), styles.ValueStyle)
	row("Uptime", time.Since(m.startedAt).Truncate(time.Second).String(), styles.ValueStyle)

	errStyle := styles.ValueStyle
	if m.current.WriteErrors > 0 {
		errStyle = styles.WarnValueStyle
	}
	row("Write errors", fmt.Sprintf("%d", m.current.WriteErrors), errStyle)
	if m.current.LastError != nil {
		row("Last error", m.current.LastError.Error(), styles.WarnValueStyle)
	}

	content := styles.ContentBorderStyle.Render(strings.TrimRight(b.String(), "\n"))

	parts := []string{content}
	if m.err != nil && status == styles.StatusFailed {
		parts = append(parts, styles.ErrorStyle.Render("✗ "+m.err.Error()))
	}
	parts = append(parts, m.help.View(m.keys), m.statusBar.View(status, statusText))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
