package styles

import (
	"github.com/allbin/serial-counter/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Status styles
	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusStoppedStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	// Metric styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text).
			Bold(true)

	WarnValueStyle = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true)

	ContentBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colors.Surface1).
				Padding(0, 1)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	// CLI status line markers
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Green)
)

type StatusType int

const (
	StatusRunning StatusType = iota
	StatusStopped
	StatusFailed
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusRunning:
		return StatusRunningStyle
	case StatusStopped:
		return StatusStoppedStyle
	default:
		return StatusFailedStyle
	}
}
