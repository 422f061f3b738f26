package components

import (
	"fmt"
	"time"

	"github.com/allbin/go-serialwatch/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar is the single line shown below the watch view
type StatusBar struct {
	source    string
	status    string
	err       error
	width     int
	devices   int
	lastEvent time.Time
	stopped   bool
}

func NewStatusBar(source string) *StatusBar {
	return &StatusBar{
		source: source,
		status: "Starting monitor...",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetDeviceCount(n int) {
	sb.devices = n
}

func (sb *StatusBar) SetLastEvent(at time.Time) {
	sb.lastEvent = at
}

func (sb *StatusBar) SetWatching() {
	sb.status = "Watching"
	sb.err = nil
}

func (sb *StatusBar) SetError(err error) {
	sb.err = err
	if err != nil {
		sb.status = fmt.Sprintf("Error: %v", err)
	}
}

func (sb *StatusBar) ClearError() {
	sb.err = nil
	if !sb.stopped {
		sb.status = "Watching"
	}
}

func (sb *StatusBar) SetStopped() {
	sb.stopped = true
	sb.status = "Monitor stopped"
}

// View renders the status bar padded to the terminal width
func (sb *StatusBar) View(timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	// Section 1: mode badge
	modeStyle := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(colors.Blue).
		Bold(true).
		Padding(0, 1)
	if sb.stopped {
		modeStyle = modeStyle.Background(colors.Overlay1)
	}
	mode := modeStyle.Render("WATCH")

	// Section 2: notification source
	sourceStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	source := sourceStyle.Render(sb.source)

	// Section 3: single character health indicator
	var indicator string
	var indicatorStyle lipgloss.Style
	switch {
	case sb.err != nil:
		indicatorStyle = lipgloss.NewStyle().Foreground(colors.Red)
		indicator = "✗"
	case sb.stopped:
		indicatorStyle = lipgloss.NewStyle().Foreground(colors.Red)
		indicator = "○"
	case sb.status == "Watching":
		indicatorStyle = lipgloss.NewStyle().Foreground(colors.Green)
		indicator = "●"
	default:
		indicatorStyle = lipgloss.NewStyle().Foreground(colors.Yellow)
		indicator = "○"
	}
	health := indicatorStyle.Render(indicator)

	statusStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	status := statusStyle.Render(sb.status)

	// Section 4: device count and time of the last event
	details := fmt.Sprintf("⚡ %d device(s)", sb.devices)
	if !sb.lastEvent.IsZero() {
		details += " last " + sb.lastEvent.Format("15:04:05")
	}
	detailsStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	deviceInfo := detailsStyle.Render(details)

	// Section 5: clock
	timeStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1)
	clock := timeStyle.Render(timestamp)

	dividerStyle := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1)
	divider := dividerStyle.Render("│")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, mode, source, health, status, divider)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, deviceInfo, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	statusBarStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide)
	return statusBarStyle.Render(content)
}
