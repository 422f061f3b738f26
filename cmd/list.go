/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/allbin/go-serialwatch"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached serial devices",
	Long: `List the serial devices currently attached to the system together
with their USB ids and current line settings.

This command reports hardware-backed serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing. If any
single device cannot be read the whole listing fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, registry, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		devices, err := serialwatch.NewEnumerator(registry, logger).ConnectedDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filtered := filterDevices(devices, filterType)
		if len(filtered) == 0 {
			if filterType != "" && filterType != "all" {
				fmt.Printf("No serial devices found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial devices found")
			}
			return nil
		}

		if tableFormat {
			renderTable(filtered)
		} else {
			renderSimple(filtered)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterDevices filters the device list based on the specified filter type
func filterDevices(devices []serialwatch.DeviceInfo, filterType string) []serialwatch.DeviceInfo {
	if filterType == "" || filterType == "all" {
		return devices
	}

	var filtered []serialwatch.DeviceInfo
	for _, device := range devices {
		name := strings.ToLower(device.Name())
		switch strings.ToLower(filterType) {
		case "usb":
			if device.VendorID.Valid() || strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, device)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") {
				filtered = append(filtered, device)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, device)
			}
		}
	}
	return filtered
}

// renderTable renders the device list in a styled static table format
func renderTable(devices []serialwatch.DeviceInfo) {
	fmt.Printf("Found %d serial device(s):\n\n", len(devices))

	// Define column widths
	portWidth := 16
	idWidth := 11
	settingsWidth := 24
	descWidth := 22

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s",
		portWidth, "Port",
		idWidth, "VID:PID",
		settingsWidth, "Settings",
		descWidth, "Description")
	fmt.Println(headerStyle.Render(header))

	for _, device := range devices {
		row := fmt.Sprintf("%-*s %-*s %-*s %-*s",
			portWidth, device.PortName,
			idWidth, usbIDs(device),
			settingsWidth, device.Config.String(),
			descWidth, device.Description())
		fmt.Println(cellStyle.Render(row))
	}
}

// renderSimple renders the device list in simple text format
func renderSimple(devices []serialwatch.DeviceInfo) {
	for _, device := range devices {
		fmt.Println(device)
	}
}

// usbIDs returns "-" for devices that are not USB backed
func usbIDs(device serialwatch.DeviceInfo) string {
	if ids := device.USBIDs(); ids != "" {
		return ids
	}
	return "-"
}
