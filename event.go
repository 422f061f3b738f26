package serialwatch

import "time"

// Event is a device lifecycle notification delivered to subscribers. The
// concrete type is one of Connected, Disconnected or Error.
type Event interface {
	// At returns when the monitor emitted the event
	At() time.Time
	eventSealed()
}

// Connected is emitted when a device is published by the registry
type Connected struct {
	Device DeviceInfo
	Time   time.Time
}

func (e Connected) At() time.Time { return e.Time }
func (Connected) eventSealed() {}

// Disconnected is emitted when a known device is terminated. Device is the
// descriptor last observed while the device was attached.
type Disconnected struct {
	Device DeviceInfo
	Time   time.Time
}

func (e Disconnected) At() time.Time { return e.Time }
func (Disconnected) eventSealed() {}

// Error is emitted when a notification could not be turned into a device.
// The stream continues after an Error.
type Error struct {
	Err  error
	Time time.Time
}

func (e Error) At() time.Time { return e.Time }
func (Error) eventSealed() {}

func (e Error) Error() string { return e.Err.Error() }
func (e Error) Unwrap() error { return e.Err }
