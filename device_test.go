package serialwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceInfoIdentity(t *testing.T) {
	a := DeviceInfo{PortName: "/dev/ttyUSB0", VendorID: NewUSBID(0x0403), ProductID: NewUSBID(0x6001), Config: DefaultConfig()}
	b := DeviceInfo{PortName: "/dev/ttyUSB0", Config: Config{BaudRate: Baud115200, DataBits: DataBitsSeven}}
	c := DeviceInfo{PortName: "/dev/ttyUSB1", VendorID: NewUSBID(0x0403), ProductID: NewUSBID(0x6001), Config: DefaultConfig()}

	assert.True(t, a.Equal(b), "same port with different configs must be equal")
	assert.Equal(t, a.Key(), b.Key(), "same port must hash identically")
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())

	set := map[string]DeviceInfo{a.Key(): a}
	set[b.Key()] = b
	assert.Len(t, set, 1, "re-inserting the same port replaces the entry")
	assert.Equal(t, Baud115200, set[a.Key()].Config.BaudRate)
}

func TestDeviceInfoID(t *testing.T) {
	tests := []struct {
		name     string
		info     DeviceInfo
		expected string
	}{
		{"no usb ids", DeviceInfo{PortName: "/dev/ttyS0"}, "/dev/ttyS0"},
		{"both ids", DeviceInfo{PortName: "/dev/ttyUSB0", VendorID: NewUSBID(0x0403), ProductID: NewUSBID(0x6001)}, "/dev/ttyUSB0:0403:6001"},
		{"vendor only", DeviceInfo{PortName: "/dev/ttyACM0", VendorID: NewUSBID(0x2341)}, "/dev/ttyACM0:2341:----"},
		{"product only", DeviceInfo{PortName: "/dev/ttyACM1", ProductID: NewUSBID(0x43)}, "/dev/ttyACM1:----:0043"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.ID())
		})
	}
}

func TestDeviceInfoDescription(t *testing.T) {
	info := DeviceInfo{PortName: "/dev/ttyACM3", Config: DefaultConfig()}
	assert.Equal(t, "ttyACM3", info.Name())
	assert.Equal(t, "USB CDC/ACM Device", info.Description())
	assert.Equal(t, "/dev/ttyACM3 (9600 8N1)", info.String())
}

func TestUSBID(t *testing.T) {
	var absent USBID
	_, ok := absent.Get()
	assert.False(t, ok)
	assert.False(t, absent.Valid())
	assert.Equal(t, "", absent.String())

	zero := NewUSBID(0)
	id, ok := zero.Get()
	assert.True(t, ok, "id 0 is present, not absent")
	assert.Equal(t, uint16(0), id)
	assert.Equal(t, "0000", zero.String())

	assert.Equal(t, "ffff", NewUSBID(0xffff).String())
}

func TestDeviceInfoUSBIDs(t *testing.T) {
	assert.Equal(t, "", DeviceInfo{PortName: "/dev/ttyS0"}.USBIDs())
	assert.Equal(t, "0403:6001", DeviceInfo{VendorID: NewUSBID(0x0403), ProductID: NewUSBID(0x6001)}.USBIDs())
	assert.Equal(t, "----:6001", DeviceInfo{ProductID: NewUSBID(0x6001)}.USBIDs())
}
