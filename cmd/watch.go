/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allbin/go-serialwatch"
	"github.com/allbin/go-serialwatch/internal/tui/components"
	"github.com/allbin/go-serialwatch/internal/tui/keys"
	"github.com/allbin/go-serialwatch/internal/tui/models"
	"github.com/allbin/go-serialwatch/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report serial devices as they are attached and detached",
	Long: `Watch for serial devices being attached and detached and print one line
per event until interrupted.

Devices already attached when watching starts are not reported as events.
Use --initial to print them first, or --tui for a live device list.

Example usage:
  serialwatch watch
  serialwatch watch --json
  serialwatch watch --source udev --initial
  serialwatch watch --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, registry, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		initial, _ := cmd.Flags().GetBool("initial")
		tui, _ := cmd.Flags().GetBool("tui")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		monitor := serialwatch.NewMonitor(registry, serialwatch.WithLogger(logger))
		if err := monitor.Start(ctx); err != nil {
			return fmt.Errorf("starting monitor: %w", err)
		}
		defer monitor.Close()

		sub := monitor.Subscribe()
		defer sub.Unsubscribe()

		if tui {
			return runWatchTUI(ctx, monitor, sub, viper.GetString("source"), logger)
		}

		out := cmd.OutOrStdout()
		if initial {
			devices, err := monitor.KnownDevices(ctx)
			if err != nil {
				return err
			}
			for _, device := range devices {
				if err := writeEvent(out, serialwatch.Connected{Device: device, Time: time.Now()}, jsonOutput); err != nil {
					return err
				}
			}
		}

		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return nil
				}
				if err := writeEvent(out, ev, jsonOutput); err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("json", false, "Print events as JSON lines")
	watchCmd.Flags().Bool("initial", false, "Print the devices attached at startup as connected events")
	watchCmd.Flags().Bool("tui", false, "Show a live device list instead of an event stream")
}

// eventRecord is the JSON form of an event
type eventRecord struct {
	Time      time.Time `json:"time"`
	Event     string    `json:"event"`
	Port      string    `json:"port,omitempty"`
	VendorID  string    `json:"vendor_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Settings  string    `json:"settings,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func newEventRecord(ev serialwatch.Event) eventRecord {
	record := eventRecord{Time: ev.At()}
	var device serialwatch.DeviceInfo
	switch ev := ev.(type) {
	case serialwatch.Connected:
		record.Event = "connected"
		device = ev.Device
	case serialwatch.Disconnected:
		record.Event = "disconnected"
		device = ev.Device
	case serialwatch.Error:
		record.Event = "error"
		record.Error = ev.Err.Error()
		return record
	}
	record.Port = device.PortName
	record.VendorID = device.VendorID.String()
	record.ProductID = device.ProductID.String()
	record.Settings = device.Config.String()
	return record
}

func writeEvent(w io.Writer, ev serialwatch.Event, jsonOutput bool) error {
	if jsonOutput {
		return json.NewEncoder(w).Encode(newEventRecord(ev))
	}
	_, err := fmt.Fprintln(w, formatEventLine(ev))
	return err
}

// formatEventLine renders ev as a plain text line
func formatEventLine(ev serialwatch.Event) string {
	timestamp := ev.At().Format("15:04:05.000")
	switch ev := ev.(type) {
	case serialwatch.Connected:
		return fmt.Sprintf("%s %-12s %s %s %s", timestamp, "connected", ev.Device.PortName, usbIDs(ev.Device), ev.Device.Config)
	case serialwatch.Disconnected:
		return fmt.Sprintf("%s %-12s %s %s %s", timestamp, "disconnected", ev.Device.PortName, usbIDs(ev.Device), ev.Device.Config)
	case serialwatch.Error:
		return fmt.Sprintf("%s %-12s %s", timestamp, "error", ev.Err)
	}
	return fmt.Sprintf("%s %-12s %T", timestamp, "unknown", ev)
}

// watchModel represents the Bubble Tea model for the watch command
type watchModel struct {
	*models.WatchModel
	monitor    *serialwatch.Monitor
	table      *components.DeviceTable
	eventLog   *components.EventLog
	statusBar  *components.StatusBar
	help       help.Model
	keys       keys.WatchKeys
	showDetail bool
	width      int
	height     int
}

func runWatchTUI(ctx context.Context, monitor *serialwatch.Monitor, sub *serialwatch.Subscription, source string, logger *zap.Logger) error {
	// The subscription is already live, so nothing attached after this
	// snapshot is missed
	devices, err := monitor.KnownDevices(ctx)
	if err != nil {
		return err
	}

	m := &watchModel{
		WatchModel: models.NewWatchModel(source),
		monitor:    monitor,
		table:      components.NewDeviceTable(80, 15),
		eventLog:   components.NewEventLog(80, 6),
		statusBar:  components.NewStatusBar(source),
		help:       help.New(),
		keys:       keys.NewWatchKeys(),
	}
	m.SetDevices(devices)
	m.table.SetDevices(m.Devices())
	m.statusBar.SetDeviceCount(m.Count())
	m.statusBar.SetWatching()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for ev := range sub.Events() {
			p.Send(models.EventMsg{Event: ev})
		}
		p.Send(models.MonitorStoppedMsg{})
	}()

	_, err = p.Run()
	m.Cancel()
	if err != nil && ctx.Err() != nil {
		logger.Debug("Watch interrupted", zap.Error(err))
		return nil
	}
	return err
}

func (m *watchModel) Init() tea.Cmd {
	return nil
}

// refresh re-enumerates the registry without touching the monitor
func (m *watchModel) refresh() tea.Cmd {
	ctx := m.GetContext()
	return func() tea.Msg {
		devices, err := m.monitor.ConnectedDevices(ctx)
		return models.DevicesMsg{Devices: devices, Err: err}
	}
}

func (m *watchModel) layout() {
	statusBarHeight := 1
	logHeight := m.height / 3
	if logHeight < 4 {
		logHeight = 4
	}
	// Title line and the border above the log
	tableHeight := m.height - statusBarHeight - logHeight - 2
	if tableHeight < 5 {
		tableHeight = 5
	}
	m.table.SetSize(m.width, tableHeight)
	m.eventLog.SetSize(m.width, logHeight)
	m.statusBar.SetWidth(m.width)
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.SetReady(true)

	case models.EventMsg:
		if m.Apply(msg.Event) {
			m.table.SetDevices(m.Devices())
		}
		m.eventLog.Add(msg.Event)
		m.statusBar.SetDeviceCount(m.Count())
		m.statusBar.SetLastEvent(msg.Event.At())
		if ev, ok := msg.Event.(serialwatch.Error); ok {
			m.statusBar.SetError(ev.Err)
		}

	case models.DevicesMsg:
		if msg.Err != nil {
			m.SetError(msg.Err)
			m.statusBar.SetError(msg.Err)
			break
		}
		m.SetDevices(msg.Devices)
		m.table.SetDevices(m.Devices())
		m.statusBar.SetDeviceCount(m.Count())
		m.eventLog.AddLine(styles.EventTimeStyle.Render(time.Now().Format("15:04:05.000")) +
			fmt.Sprintf(" re-enumerated %d device(s)", len(msg.Devices)))

	case models.MonitorStoppedMsg:
		m.SetStopped()
		m.statusBar.SetStopped()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Detail):
			m.showDetail = !m.showDetail
		case key.Matches(msg, m.keys.ClearLog):
			m.eventLog.Clear()
			m.ClearError()
			m.statusBar.ClearError()
		case key.Matches(msg, m.keys.Refresh):
			cmds = append(cmds, m.refresh())
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			cmds = append(cmds, m.table.Update(msg))
		}
	}

	if _, ok := msg.(tea.WindowSizeMsg); ok {
		_, cmd := m.eventLog.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *watchModel) View() string {
	if !m.IsReady() {
		return "Initializing..."
	}

	title := styles.TitleStyle.Render(fmt.Sprintf("Serial devices (%d)", m.Count()))

	var lower string
	if selected, ok := m.table.Selected(); ok && m.showDetail {
		lower = components.RenderDetail(selected, m.width)
	} else {
		lower = m.eventLog.View()
	}
	lower = styles.ContentBorderStyle.Width(m.width).Render(lower)

	statusBar := m.statusBar.View(time.Now().Format("15:04:05"))

	sections := []string{title, m.table.View(), lower}
	if m.help.ShowAll {
		sections = append(sections, styles.HelpStyle.Render(m.help.View(m.keys)))
	}
	sections = append(sections, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
