package styles

import (
	"github.com/allbin/go-serialwatch/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Event styles
	EventConnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Connected).
				Bold(true)

	EventDisconnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Disconnected).
				Bold(true)

	EventErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Failure).
			Bold(true)

	EventTimeStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Detail pane styles
	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	DetailLabelStyle = lipgloss.NewStyle().
				Foreground(colors.Subtext0).
				Width(14)

	DetailValueStyle = lipgloss.NewStyle().
				Foreground(colors.Text)

	// Info styles
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Align(lipgloss.Center)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(1, 2).
			Margin(1, 0)
)

type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventError
)

func GetEventStyle(kind EventKind) lipgloss.Style {
	switch kind {
	case EventConnected:
		return EventConnectedStyle
	case EventDisconnected:
		return EventDisconnectedStyle
	default:
		return EventErrorStyle
	}
}
