package components

import (
	"fmt"

	serial "github.com/allbin/serial-counter"
	"github.com/allbin/serial-counter/internal/tui/colors"
	"github.com/allbin/serial-counter/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

type ConnectionInfo struct {
	Driver string
	Config serial.Config
}

// Summary formats the line parameters, e.g. "115200 baud 8N1 none".
func (c ConnectionInfo) Summary() string {
	return fmt.Sprintf("%d baud %d%s%d %s",
		c.Config.BaudRate,
		c.Config.DataBits,
		c.Config.Parity,
		c.Config.StopBits,
		c.Config.FlowControl)
}

type StatusBar struct {
	device         string
	width          int
	connectionInfo ConnectionInfo
}

func NewStatusBar(device string, info ConnectionInfo) *StatusBar {
	return &StatusBar{
		device:         device,
		connectionInfo: info,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// View renders the bar: status badge and device on the left, line
// parameters and driver on the right.
func (sb *StatusBar) View(status styles.StatusType, statusText string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	var badgeColor lipgloss.Color
	switch status {
	case styles.StatusRunning:
		badgeColor = colors.Green
	case styles.StatusStopped:
		badgeColor = colors.Yellow
	default:
		badgeColor = colors.Red
	}
	badge := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(badgeColor).
		Bold(true).
		Padding(0, 1).
		Render(statusText)

	device := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render("⚡ " + sb.connectionInfo.Summary())

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	driver := lipgloss.NewStyle().
		Foreground(colors.Blue).
		Padding(0, 1).
		Render(sb.connectionInfo.Driver)

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, badge, device, divider)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, driver)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
