package components

import (
	"fmt"
	"strings"

	"github.com/allbin/go-serialwatch"
	"github.com/allbin/go-serialwatch/internal/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const eventTimeFormat = "15:04:05.000"

// EventLog is a scrolling log of device events, newest at the bottom
type EventLog struct {
	viewport viewport.Model
	lines    []string
}

func NewEventLog(width, height int) *EventLog {
	return &EventLog{
		viewport: viewport.New(width, height),
		lines:    make([]string, 0),
	}
}

func (l *EventLog) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
}

// Add appends a line for ev and scrolls to it
func (l *EventLog) Add(ev serialwatch.Event) {
	l.AddLine(FormatEvent(ev))
}

// AddLine appends an already formatted line
func (l *EventLog) AddLine(line string) {
	l.lines = append(l.lines, line)
	l.viewport.SetContent(strings.Join(l.lines, "\n"))
	l.viewport.GotoBottom()
}

func (l *EventLog) Len() int {
	return len(l.lines)
}

func (l *EventLog) Clear() {
	l.lines = make([]string, 0)
	l.viewport.SetContent("")
}

func (l *EventLog) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Key presses belong to the device table
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		l.viewport, cmd = l.viewport.Update(msg)
		return l.viewport, cmd
	default:
		return l.viewport, nil
	}
}

func (l *EventLog) View() string {
	return l.viewport.View()
}

// FormatEvent renders ev as a single styled log line
func FormatEvent(ev serialwatch.Event) string {
	timestamp := styles.EventTimeStyle.Render(ev.At().Format(eventTimeFormat))

	var kind styles.EventKind
	var label, text string
	switch ev := ev.(type) {
	case serialwatch.Connected:
		kind, label = styles.EventConnected, "+ connected   "
		text = describe(ev.Device)
	case serialwatch.Disconnected:
		kind, label = styles.EventDisconnected, "- disconnected"
		text = describe(ev.Device)
	case serialwatch.Error:
		kind, label = styles.EventError, "! error       "
		text = ev.Err.Error()
	default:
		kind, label = styles.EventError, "? unknown     "
		text = fmt.Sprintf("%T", ev)
	}
	return fmt.Sprintf("%s %s %s", timestamp, styles.GetEventStyle(kind).Render(label), text)
}

func describe(device serialwatch.DeviceInfo) string {
	if ids := device.USBIDs(); ids != "" {
		return fmt.Sprintf("%s [%s] %s", device.PortName, ids, device.Config)
	}
	return fmt.Sprintf("%s %s", device.PortName, device.Config)
}
