/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/allbin/go-serialwatch"
	"github.com/spf13/cobra"
)

var (
	infoApply string
	infoRaw   bool
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial device",
	Long: `Display detailed information about an attached serial device including
its USB ids and current line settings.

Examples:
  serialwatch info /dev/ttyUSB0
  serialwatch info ttyACM0 --raw
  serialwatch info /dev/ttyUSB0 --apply "115200 8N1"

--apply writes new line settings to the device before reporting it. The
settings use the same form that is displayed, e.g. "9600 7E1 RTS/CTS".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, registry, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		portPath := args[0]
		if !filepath.IsAbs(portPath) {
			portPath = filepath.Join("/dev", portPath)
		}

		if infoApply != "" {
			config, err := serialwatch.ParseConfig(infoApply)
			if err != nil {
				return err
			}
			if err := serialwatch.ApplyConfig(portPath, config); err != nil {
				return fmt.Errorf("applying settings: %w", err)
			}
		}

		devices, err := serialwatch.NewEnumerator(registry, logger).ConnectedDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}
		info, ok := findDevice(devices, portPath)
		if !ok {
			return fmt.Errorf("%s is not an attached serial device", portPath)
		}

		fmt.Printf("Port Information: %s\n\n", info.PortName)
		fmt.Printf("  Name:         %s\n", info.Name())
		fmt.Printf("  Description:  %s\n", info.Description())
		fmt.Printf("  ID:           %s\n", info.ID())

		// USB Device Information
		if info.VendorID.Valid() || info.ProductID.Valid() {
			fmt.Println("\nUSB Device Information:")
			if info.VendorID.Valid() {
				fmt.Printf("  Vendor ID:    %s\n", info.VendorID)
			}
			if info.ProductID.Valid() {
				fmt.Printf("  Product ID:   %s\n", info.ProductID)
			}
		}

		printConfig(info.Config)

		if infoRaw {
			termios, err := registry.TerminalSettings(info.PortName)
			if err != nil {
				return fmt.Errorf("reading terminal settings: %w", err)
			}
			fmt.Println("\nTerminal Flags:")
			fmt.Printf("  iflag:        %#08o\n", termios.Iflag)
			fmt.Printf("  oflag:        %#08o\n", termios.Oflag)
			fmt.Printf("  cflag:        %#08o\n", termios.Cflag)
			fmt.Printf("  lflag:        %#08o\n", termios.Lflag)
			fmt.Printf("  ispeed:       %d\n", termios.Ispeed)
			fmt.Printf("  ospeed:       %d\n", termios.Ospeed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVar(&infoApply, "apply", "", `line settings to write first, e.g. "115200 8N1"`)
	infoCmd.Flags().BoolVar(&infoRaw, "raw", false, "also print the raw terminal flags")
}

func findDevice(devices []serialwatch.DeviceInfo, portPath string) (serialwatch.DeviceInfo, bool) {
	for _, device := range devices {
		if device.PortName == portPath {
			return device, true
		}
	}
	return serialwatch.DeviceInfo{}, false
}

func printConfig(config serialwatch.Config) {
	fmt.Println("\nLine Settings:")
	baud := fmt.Sprintf("%d", config.BaudRate.Speed())
	if !config.BaudRate.IsStandard() {
		baud += " (non-standard)"
	}
	fmt.Printf("  Baud rate:    %s\n", baud)
	fmt.Printf("  Data bits:    %s\n", config.DataBits)
	fmt.Printf("  Parity:       %s\n", config.Parity)
	fmt.Printf("  Stop bits:    %s\n", config.StopBits)
	fmt.Printf("  Flow control: %s\n", config.FlowControl)
}
