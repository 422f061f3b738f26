package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/allbin/go-serialwatch"
)

// DevicesMsg carries a full device list, either the monitor's known set at
// startup or a fresh enumeration
type DevicesMsg struct {
	Devices []serialwatch.DeviceInfo
	Err     error
}

// EventMsg wraps a monitor event for delivery to the program
type EventMsg struct {
	Event serialwatch.Event
}

// MonitorStoppedMsg is sent once the event subscription has closed
type MonitorStoppedMsg struct{}

// WatchModel is the device state shown by the watch view. It is only touched
// from the bubbletea update loop.
type WatchModel struct {
	source string
	known  map[string]serialwatch.DeviceInfo

	lastEvent serialwatch.Event
	err       error
	ready     bool
	stopped   bool

	connects    int
	disconnects int
	failures    int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewWatchModel(source string) *WatchModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &WatchModel{
		source: source,
		known:  make(map[string]serialwatch.DeviceInfo),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *WatchModel) Source() string {
	return m.source
}

// SetDevices replaces the known set with devices
func (m *WatchModel) SetDevices(devices []serialwatch.DeviceInfo) {
	m.known = make(map[string]serialwatch.DeviceInfo, len(devices))
	for _, device := range devices {
		m.known[device.Key()] = device
	}
}

// Apply folds ev into the known set. It reports whether the set changed.
func (m *WatchModel) Apply(ev serialwatch.Event) bool {
	m.lastEvent = ev
	switch ev := ev.(type) {
	case serialwatch.Connected:
		m.connects++
		m.known[ev.Device.Key()] = ev.Device
		return true
	case serialwatch.Disconnected:
		m.disconnects++
		if _, ok := m.known[ev.Device.Key()]; !ok {
			return false
		}
		delete(m.known, ev.Device.Key())
		return true
	case serialwatch.Error:
		m.failures++
		m.err = ev.Err
	}
	return false
}

// Devices returns the known devices ordered by port name
func (m *WatchModel) Devices() []serialwatch.DeviceInfo {
	devices := make([]serialwatch.DeviceInfo, 0, len(m.known))
	for _, device := range m.known {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].PortName < devices[j].PortName
	})
	return devices
}

func (m *WatchModel) Count() int {
	return len(m.known)
}

// Stats returns how many connects, disconnects and errors have been applied
func (m *WatchModel) Stats() (connects, disconnects, failures int) {
	return m.connects, m.disconnects, m.failures
}

// LastEvent returns the most recently applied event, or nil
func (m *WatchModel) LastEvent() serialwatch.Event {
	return m.lastEvent
}

// LastEventTime returns when the last event was emitted, or the zero time
func (m *WatchModel) LastEventTime() time.Time {
	if m.lastEvent == nil {
		return time.Time{}
	}
	return m.lastEvent.At()
}

func (m *WatchModel) GetError() error {
	return m.err
}

func (m *WatchModel) SetError(err error) {
	m.err = err
}

// ClearError forgets the last error, e.g. after the event log is cleared
func (m *WatchModel) ClearError() {
	m.err = nil
}

// IsEnumerationError reports whether the last error came from listing devices
func (m *WatchModel) IsEnumerationError() bool {
	return errors.Is(m.err, serialwatch.ErrEnumerationFailed)
}

func (m *WatchModel) IsReady() bool {
	return m.ready
}

func (m *WatchModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *WatchModel) IsStopped() bool {
	return m.stopped
}

func (m *WatchModel) SetStopped() {
	m.stopped = true
}

func (m *WatchModel) GetContext() context.Context {
	return m.ctx
}

func (m *WatchModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}
