package serialwatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Enumerator takes synchronous snapshots of the attached serial devices
type Enumerator struct {
	registry Registry
	logger   *zap.Logger
}

// NewEnumerator returns an Enumerator reading from registry. A nil logger
// disables logging.
func NewEnumerator(registry Registry, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{
		registry: registry,
		logger:   logger.With(zap.String("component", "enumerator")),
	}
}

// ConnectedDevices returns every serial device currently attached, in
// registry order. Any entry that cannot be decoded fails the whole call.
func (e *Enumerator) ConnectedDevices(ctx context.Context) ([]DeviceInfo, error) {
	it, err := e.registry.Match(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerationFailed, err)
	}

	var devices []DeviceInfo
	err = forEachEntry(it, func(entry Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := e.deviceInfo(entry)
		if err != nil {
			return err
		}
		devices = append(devices, info)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Enumerated serial devices", zap.Int("count", len(devices)))
	return devices, nil
}

// deviceInfo builds the full descriptor for a published entry
func (e *Enumerator) deviceInfo(entry Entry) (DeviceInfo, error) {
	portName, err := portName(entry)
	if err != nil {
		return DeviceInfo{}, err
	}

	vendorID, productID := usbIDs(entry)

	termios, err := e.registry.TerminalSettings(portName)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("%w: %s: %w", ErrPortPropertiesExtractionFailed, portName, err)
	}
	props := DecodeTerminalSettings(termios)

	return DeviceInfo{
		PortName:  portName,
		VendorID:  vendorID,
		ProductID: productID,
		Config:    props.Config(),
	}, nil
}

// portName reads the callout device path of entry
func portName(entry Entry) (string, error) {
	name, ok := stringProperty(entry, PropertyCalloutDevice)
	if !ok || name == "" {
		return "", ErrPortNameExtractionFailed
	}
	return name, nil
}

// usbIDs walks up from entry until both USB ids are found or the chain ends.
// Devices that are not USB backed come back with both ids absent.
func usbIDs(entry Entry) (vendorID, productID USBID) {
	walkAncestors(entry, func(ancestor Entry) bool {
		if !vendorID.Valid() {
			if id, ok := idProperty(ancestor, PropertyVendorID); ok {
				vendorID = id
			}
		}
		if !productID.Valid() {
			if id, ok := idProperty(ancestor, PropertyProductID); ok {
				productID = id
			}
		}
		return !(vendorID.Valid() && productID.Valid())
	})
	return vendorID, productID
}
