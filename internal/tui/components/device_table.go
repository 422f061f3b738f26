package components

import (
	"sort"

	"github.com/allbin/go-serialwatch"
	"github.com/allbin/go-serialwatch/internal/tui/colors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyPort     = "port"
	columnKeyIDs      = "ids"
	columnKeySettings = "settings"
	columnKeyType     = "type"
)

// DeviceTable is the list of attached devices, one row per port
type DeviceTable struct {
	table   table.Model
	devices []serialwatch.DeviceInfo
	width   int
	height  int
}

func NewDeviceTable(width, height int) *DeviceTable {
	// Ensure minimum dimensions for proper table initialization
	if width < 60 {
		width = 60
	}
	if height < 5 {
		height = 5
	}

	columns := []table.Column{
		table.NewFlexColumn(columnKeyPort, "Port", 2),
		table.NewColumn(columnKeyIDs, "VID:PID", 11),
		table.NewFlexColumn(columnKeySettings, "Settings", 2),
		table.NewFlexColumn(columnKeyType, "Type", 2),
	}

	t := table.New(columns).
		Focused(true).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).BorderForeground(colors.Surface1)).
		HeaderStyle(lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true)).
		HighlightStyle(lipgloss.NewStyle().Foreground(colors.Text).Background(colors.Surface1))

	dt := &DeviceTable{table: t}
	dt.SetSize(width, height)
	return dt
}

func (dt *DeviceTable) SetSize(width, height int) {
	dt.width = width
	dt.height = height
	// Header, borders and footer take six lines
	pageSize := height - 6
	if pageSize < 1 {
		pageSize = 1
	}
	dt.table = dt.table.WithTargetWidth(width).WithPageSize(pageSize)
}

// SetDevices replaces the table contents, keeping the highlighted port
// selected when it is still present
func (dt *DeviceTable) SetDevices(devices []serialwatch.DeviceInfo) {
	selected, hadSelection := dt.Selected()

	dt.devices = append(dt.devices[:0:0], devices...)
	sort.Slice(dt.devices, func(i, j int) bool {
		return dt.devices[i].PortName < dt.devices[j].PortName
	})

	rows := make([]table.Row, 0, len(dt.devices))
	highlight := 0
	for i, device := range dt.devices {
		if hadSelection && device.Equal(selected) {
			highlight = i
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyPort:     device.PortName,
			columnKeyIDs:      idCell(device),
			columnKeySettings: device.Config.String(),
			columnKeyType:     device.Description(),
		}))
	}
	dt.table = dt.table.WithRows(rows).WithHighlightedRow(highlight)
}

// Selected returns the highlighted device
func (dt *DeviceTable) Selected() (serialwatch.DeviceInfo, bool) {
	if len(dt.devices) == 0 {
		return serialwatch.DeviceInfo{}, false
	}
	i := dt.table.GetHighlightedRowIndex()
	if i < 0 || i >= len(dt.devices) {
		return serialwatch.DeviceInfo{}, false
	}
	return dt.devices[i], true
}

func (dt *DeviceTable) Len() int {
	return len(dt.devices)
}

func (dt *DeviceTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	dt.table, cmd = dt.table.Update(msg)
	return cmd
}

func (dt *DeviceTable) View() string {
	if len(dt.devices) == 0 {
		return lipgloss.NewStyle().
			Width(dt.width).
			Height(dt.height).
			Foreground(colors.Overlay1).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No serial devices attached")
	}
	return dt.table.View()
}

func idCell(device serialwatch.DeviceInfo) table.StyledCell {
	ids := device.USBIDs()
	if ids == "" {
		return table.NewStyledCell("-", lipgloss.NewStyle().Foreground(colors.Overlay1))
	}
	return table.NewStyledCell(ids, lipgloss.NewStyle().Foreground(colors.Teal))
}
