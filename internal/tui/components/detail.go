package components

import (
	"fmt"

	"github.com/allbin/go-serialwatch"
	"github.com/allbin/go-serialwatch/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// RenderDetail renders the full descriptor of a device as a bordered pane
func RenderDetail(device serialwatch.DeviceInfo, width int) string {
	baud := fmt.Sprintf("%d", device.Config.BaudRate.Speed())
	if !device.Config.BaudRate.IsStandard() {
		baud += " (non-standard)"
	}

	rows := []string{
		detailRow("Port", device.PortName),
		detailRow("Type", device.Description()),
		detailRow("ID", device.ID()),
	}
	if device.VendorID.Valid() {
		rows = append(rows, detailRow("Vendor ID", device.VendorID.String()))
	}
	if device.ProductID.Valid() {
		rows = append(rows, detailRow("Product ID", device.ProductID.String()))
	}
	rows = append(rows,
		detailRow("Baud rate", baud),
		detailRow("Data bits", device.Config.DataBits.String()),
		detailRow("Parity", device.Config.Parity.String()),
		detailRow("Stop bits", device.Config.StopBits.String()),
		detailRow("Flow control", device.Config.FlowControl.String()),
	)

	style := styles.DetailStyle
	if width > 0 {
		// Width excludes the border
		style = style.Width(width - 2)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func detailRow(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.DetailLabelStyle.Render(label),
		styles.DetailValueStyle.Render(value))
}
