package serialwatch

import (
	"fmt"
	"path/filepath"
)

// USBID is an optional 16-bit USB vendor or product id. The zero value is
// absent.
type USBID struct {
	id    uint16
	valid bool
}

// NewUSBID returns a present id
func NewUSBID(id uint16) USBID {
	return USBID{id: id, valid: true}
}

// Get returns the id and whether it is present
func (u USBID) Get() (uint16, bool) {
	return u.id, u.valid
}

// Valid reports whether the id is present
func (u USBID) Valid() bool {
	return u.valid
}

// String returns the id as four lowercase hex digits, or "" when absent
func (u USBID) String() string {
	if !u.valid {
		return ""
	}
	return fmt.Sprintf("%04x", u.id)
}

// DeviceInfo describes one attached serial device as observed at discovery
// time. Two DeviceInfo values describe the same device when their port names
// match, regardless of the configuration snapshot.
type DeviceInfo struct {
	PortName  string // callout device path, e.g. /dev/ttyUSB0
	VendorID  USBID
	ProductID USBID
	Config    Config
}

// Key returns the identity used for maps and set membership
func (d DeviceInfo) Key() string {
	return d.PortName
}

// Equal reports whether d and other identify the same device
func (d DeviceInfo) Equal(other DeviceInfo) bool {
	return d.PortName == other.PortName
}

// ID returns an opaque identifier combining the port name with whatever USB
// ids are known, e.g. "/dev/ttyUSB0:0403:6001".
func (d DeviceInfo) ID() string {
	ids := d.USBIDs()
	if ids == "" {
		return d.PortName
	}
	return d.PortName + ":" + ids
}

// USBIDs returns "vendor:product" with "----" standing in for a missing id,
// or "" when the device has neither
func (d DeviceInfo) USBIDs() string {
	if !d.VendorID.Valid() && !d.ProductID.Valid() {
		return ""
	}
	vid, pid := "----", "----"
	if d.VendorID.Valid() {
		vid = d.VendorID.String()
	}
	if d.ProductID.Valid() {
		pid = d.ProductID.String()
	}
	return vid + ":" + pid
}

// Name returns the base name of the device node
func (d DeviceInfo) Name() string {
	return filepath.Base(d.PortName)
}

// Description returns a human-readable description of the port type
func (d DeviceInfo) Description() string {
	return portDescription(d.Name())
}

func (d DeviceInfo) String() string {
	return d.ID() + " (" + d.Config.String() + ")"
}
