package serialwatch

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor tracks attached serial devices and fans out Connected, Disconnected
// and Error events to any number of subscribers.
//
// Registry notifications are handled on a single goroutine which exclusively
// owns the known-device set. Devices already attached when the monitor starts
// are recorded silently; subscribers that need them call KnownDevices or
// ConnectedDevices. A Disconnected event carries the descriptor recorded
// when the device was published, and terminations of devices the monitor
// never saw are ignored.
type Monitor struct {
	registry   Registry
	enumerator *Enumerator
	logger     *zap.Logger
	now        func() time.Time
	events     broadcaster

	mu      sync.Mutex
	started bool
	closed  bool
	watcher Watcher
	cancel  context.CancelFunc

	queries chan chan []DeviceInfo
	ready   chan struct{}
	done    chan struct{}
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithLogger sets the logger used by the monitor
func WithLogger(logger *zap.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock sets the function used to timestamp events
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMonitor returns a Monitor backed by registry. Call Start to begin
// watching.
func NewMonitor(registry Registry, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		registry: registry,
		logger:   zap.NewNop(),
		now:      time.Now,
		queries:  make(chan chan []DeviceInfo),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("component", "monitor"))
	m.enumerator = NewEnumerator(registry, m.logger)
	return m
}

// Start registers for registry notifications and returns once the devices
// already attached have been recorded. The monitor runs until Close is
// called or ctx ends.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrMonitorStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	watcher, err := m.registry.Watch(runCtx)
	if err != nil {
		cancel()
		m.mu.Unlock()
		return err
	}
	m.started = true
	m.watcher = watcher
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(runCtx, watcher)

	select {
	case <-m.ready:
		return nil
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops watching and closes every subscription
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMonitorClosed
	}
	m.closed = true
	started := m.started
	watcher, cancel := m.watcher, m.cancel
	m.mu.Unlock()

	if !started {
		m.events.close()
		close(m.done)
		return nil
	}

	cancel()
	err := watcher.Close()
	<-m.done
	return err
}

// Done is closed when the monitor has stopped
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Subscribe attaches a new subscriber. It receives every event emitted from
// now on until it unsubscribes.
func (m *Monitor) Subscribe() *Subscription {
	return m.events.subscribe()
}

// ConnectedDevices takes a fresh snapshot straight from the registry. It does
// not read or modify the monitor's known-device set.
func (m *Monitor) ConnectedDevices(ctx context.Context) ([]DeviceInfo, error) {
	return m.enumerator.ConnectedDevices(ctx)
}

// KnownDevices returns the devices the monitor currently considers attached,
// sorted by port name
func (m *Monitor) KnownDevices(ctx context.Context) ([]DeviceInfo, error) {
	reply := make(chan []DeviceInfo, 1)
	select {
	case m.queries <- reply:
	case <-m.done:
		return nil, ErrMonitorClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case devices := <-reply:
		return devices, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the only goroutine that touches known
func (m *Monitor) run(ctx context.Context, watcher Watcher) {
	defer close(m.done)
	defer m.events.close()

	known := make(map[string]DeviceInfo)
	notifications := watcher.Notifications()
	initialDrains := 0
	markReady := func() {
		initialDrains++
		if initialDrains == 2 {
			close(m.ready)
		}
	}

	for {
		select {
		case n, ok := <-notifications:
			if !ok {
				if ctx.Err() == nil {
					m.logger.Warn("Registry notifications ended unexpectedly")
				}
				return
			}
			switch n.Kind {
			case Published:
				m.handlePublished(known, n)
			case Terminated:
				m.handleTerminated(known, n)
			default:
				n.Entries.Close()
				m.logger.Warn("Ignoring notification of unknown kind", zap.Int("kind", int(n.Kind)))
			}
			if n.Initial {
				markReady()
			}
		case reply := <-m.queries:
			reply <- snapshot(known)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) handlePublished(known map[string]DeviceInfo, n Notification) {
	forEachEntry(n.Entries, func(entry Entry) error {
		info, err := m.enumerator.deviceInfo(entry)
		if err != nil {
			if n.Initial {
				m.logger.Warn("Skipping attached device", zap.Error(err))
				return nil
			}
			m.logger.Warn("Failed to decode published device", zap.Error(err))
			m.events.publish(Error{Err: err, Time: m.now()})
			return nil
		}

		known[info.Key()] = info
		if n.Initial {
			m.logger.Debug("Recorded attached device", zap.String("port", info.PortName))
			return nil
		}

		m.logger.Info("Device connected",
			zap.String("port", info.PortName),
			zap.String("id", info.ID()),
			zap.Stringer("config", info.Config))
		m.events.publish(Connected{Device: info, Time: m.now()})
		return nil
	})
}

func (m *Monitor) handleTerminated(known map[string]DeviceInfo, n Notification) {
	forEachEntry(n.Entries, func(entry Entry) error {
		name, err := portName(entry)
		if err != nil {
			m.logger.Warn("Failed to identify terminated device", zap.Error(err))
			m.events.publish(Error{Err: err, Time: m.now()})
			return nil
		}

		info, ok := known[name]
		if !ok {
			m.logger.Debug("Ignoring termination of unknown device", zap.String("port", name))
			return nil
		}
		delete(known, name)

		m.logger.Info("Device disconnected", zap.String("port", name))
		m.events.publish(Disconnected{Device: info, Time: m.now()})
		return nil
	})
}

func snapshot(known map[string]DeviceInfo) []DeviceInfo {
	devices := make([]DeviceInfo, 0, len(known))
	for _, info := range known {
		devices = append(devices, info)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].PortName < devices[j].PortName
	})
	return devices
}
