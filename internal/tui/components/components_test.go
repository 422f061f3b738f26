package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/allbin/go-serialwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 3, 1, 12, 30, 15, 250_000_000, time.UTC)

func usbDevice(port string) serialwatch.DeviceInfo {
	return serialwatch.DeviceInfo{
		PortName:  port,
		VendorID:  serialwatch.NewUSBID(0x0403),
		ProductID: serialwatch.NewUSBID(0x6001),
		Config:    serialwatch.DefaultConfig(),
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    serialwatch.Event
		contains []string
	}{
		{
			name:     "connected usb device",
			event:    serialwatch.Connected{Device: usbDevice("/dev/ttyUSB0"), Time: testTime},
			contains: []string{"12:30:15.250", "connected", "/dev/ttyUSB0", "[0403:6001]", "9600 8N1"},
		},
		{
			name:     "disconnected builtin port",
			event:    serialwatch.Disconnected{Device: serialwatch.DeviceInfo{PortName: "/dev/ttyS0", Config: serialwatch.DefaultConfig()}, Time: testTime},
			contains: []string{"disconnected", "/dev/ttyS0 9600 8N1"},
		},
		{
			name:     "error",
			event:    serialwatch.Error{Err: errors.New("no such device"), Time: testTime},
			contains: []string{"error", "no such device"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatEvent(tt.event)
			assert.NotContains(t, line, "\n")
			for _, want := range tt.contains {
				assert.Contains(t, line, want)
			}
		})
	}
}

func TestEventLog(t *testing.T) {
	log := NewEventLog(80, 10)
	assert.Equal(t, 0, log.Len())

	log.Add(serialwatch.Connected{Device: usbDevice("/dev/ttyUSB0"), Time: testTime})
	log.Add(serialwatch.Disconnected{Device: usbDevice("/dev/ttyUSB0"), Time: testTime})
	log.AddLine("re-enumerated 0 device(s)")
	require.Equal(t, 3, log.Len())

	view := log.View()
	assert.Contains(t, view, "connected")
	assert.Contains(t, view, "re-enumerated")

	log.Clear()
	assert.Equal(t, 0, log.Len())
	assert.NotContains(t, log.View(), "ttyUSB0")
}

func TestRenderDetail(t *testing.T) {
	device := usbDevice("/dev/ttyUSB2")
	device.Config.BaudRate = serialwatch.NonStandardBaudRate(250000)

	view := RenderDetail(device, 60)
	for _, want := range []string{
		"/dev/ttyUSB2",
		"USB Serial Port",
		"/dev/ttyUSB2:0403:6001",
		"Vendor ID",
		"0403",
		"6001",
		"250000 (non-standard)",
		"Flow control",
	} {
		assert.Contains(t, view, want)
	}

	plain := RenderDetail(serialwatch.DeviceInfo{PortName: "/dev/ttyS1", Config: serialwatch.DefaultConfig()}, 0)
	assert.NotContains(t, plain, "Vendor ID")
	assert.Contains(t, plain, "9600")
}

func TestStatusBar(t *testing.T) {
	sb := NewStatusBar("netlink")
	sb.SetWidth(120)
	assert.Contains(t, sb.View("12:00:00"), "Starting monitor")

	sb.SetWatching()
	sb.SetDeviceCount(3)
	sb.SetLastEvent(testTime)
	view := sb.View("12:31:00")
	assert.Contains(t, view, "netlink")
	assert.Contains(t, view, "●")
	assert.Contains(t, view, "3 device(s) last 12:30:15")
	assert.Contains(t, view, "12:31:00")

	sb.SetError(errors.New("bad entry"))
	view = sb.View("12:31:00")
	assert.Contains(t, view, "✗")
	assert.Contains(t, view, "bad entry")

	sb.ClearError()
	assert.Contains(t, sb.View("12:31:00"), "Watching")

	sb.SetStopped()
	assert.Contains(t, sb.View("12:31:00"), "Monitor stopped")
	sb.ClearError()
	assert.Contains(t, sb.View("12:31:00"), "Monitor stopped")
}

func TestDeviceTable(t *testing.T) {
	dt := NewDeviceTable(100, 20)
	assert.Equal(t, 0, dt.Len())
	_, ok := dt.Selected()
	assert.False(t, ok)
	assert.Contains(t, dt.View(), "No serial devices attached")

	dt.SetDevices([]serialwatch.DeviceInfo{
		usbDevice("/dev/ttyUSB1"),
		{PortName: "/dev/ttyS0", Config: serialwatch.DefaultConfig()},
	})
	require.Equal(t, 2, dt.Len())

	selected, ok := dt.Selected()
	require.True(t, ok)
	assert.Equal(t, "/dev/ttyS0", selected.PortName, "rows are ordered by port name")

	view := dt.View()
	assert.True(t, strings.Contains(view, "ttyUSB1"))
	assert.True(t, strings.Contains(view, "0403:6001"))

	dt.SetDevices(nil)
	assert.Equal(t, 0, dt.Len())
}
