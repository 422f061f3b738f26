package serialwatch

import (
	"context"
	"sync"
	"time"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// SourcePoll names the PortListRegistry in configuration
const SourcePoll Source = "poll"

// DefaultPollInterval is how often a PortListRegistry re-enumerates
const DefaultPollInterval = time.Second

// PortListRegistry is a registry backed by the serial port enumerator. It
// has no native notifications: Watch polls the port list and reports the
// difference between consecutive polls.
type PortListRegistry struct {
	interval time.Duration
	list     func() ([]*enumerator.PortDetails, error)
	logger   *zap.Logger
}

// NewPortListRegistry returns a polling registry. A non-positive interval
// selects DefaultPollInterval.
func NewPortListRegistry(interval time.Duration, logger *zap.Logger) *PortListRegistry {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortListRegistry{
		interval: interval,
		list:     enumerator.GetDetailedPortsList,
		logger:   logger.With(zap.String("registry", "portlist")),
	}
}

// Match returns the currently listed ports
func (r *PortListRegistry) Match(ctx context.Context) (Iterator, error) {
	ports, err := r.list()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return portIterator(ports), nil
}

// TerminalSettings reads the termios of the device node at path
func (r *PortListRegistry) TerminalSettings(path string) (Termios, error) {
	return readTerminalSettings(path)
}

// Watch starts polling
func (r *PortListRegistry) Watch(ctx context.Context) (Watcher, error) {
	ports, err := r.list()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &pollWatcher{
		registry: r,
		ch:       make(chan Notification, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.loop(ctx, ports)
	return w, nil
}

type pollWatcher struct {
	registry *PortListRegistry
	ch       chan Notification
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

func (w *pollWatcher) Notifications() <-chan Notification {
	return w.ch
}

func (w *pollWatcher) Close() error {
	w.once.Do(w.cancel)
	<-w.done
	return nil
}

func (w *pollWatcher) loop(ctx context.Context, ports []*enumerator.PortDetails) {
	defer close(w.done)
	defer close(w.ch)

	if !sendNotification(ctx, w.ch, Notification{Kind: Published, Entries: portIterator(ports), Initial: true}) {
		return
	}
	if !sendNotification(ctx, w.ch, Notification{Kind: Terminated, Entries: NewSliceIterator(), Initial: true}) {
		return
	}

	seen := indexPorts(ports)
	ticker := time.NewTicker(w.registry.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := w.registry.list()
		if err != nil {
			w.registry.logger.Warn("Polling serial ports failed", zap.Error(err))
			continue
		}
		next := indexPorts(current)

		var added, removed []*enumerator.PortDetails
		for _, p := range current {
			if _, ok := seen[p.Name]; !ok {
				added = append(added, p)
			}
		}
		for name, p := range seen {
			if _, ok := next[name]; !ok {
				removed = append(removed, p)
			}
		}
		seen = next

		if len(removed) > 0 {
			if !sendNotification(ctx, w.ch, Notification{Kind: Terminated, Entries: portIterator(removed)}) {
				return
			}
		}
		if len(added) > 0 {
			if !sendNotification(ctx, w.ch, Notification{Kind: Published, Entries: portIterator(added)}) {
				return
			}
		}
	}
}

func indexPorts(ports []*enumerator.PortDetails) map[string]*enumerator.PortDetails {
	index := make(map[string]*enumerator.PortDetails, len(ports))
	for _, p := range ports {
		index[p.Name] = p
	}
	return index
}

func portIterator(ports []*enumerator.PortDetails) Iterator {
	entries := make([]Entry, 0, len(ports))
	for _, p := range ports {
		entries = append(entries, portEntry{details: p})
	}
	return NewSliceIterator(entries...)
}

// portEntry is a listed port. USB ports have a single parent carrying the
// vendor and product ids.
type portEntry struct {
	details *enumerator.PortDetails
}

func (e portEntry) Property(key string) (any, bool) {
	if key == PropertyCalloutDevice {
		return e.details.Name, true
	}
	return nil, false
}

func (e portEntry) Parent() (Entry, bool) {
	if !e.details.IsUSB {
		return nil, false
	}
	return usbEntry{vid: e.details.VID, pid: e.details.PID}, true
}

func (e portEntry) Release() {}

type usbEntry struct {
	vid, pid string
}

func (e usbEntry) Property(key string) (any, bool) {
	switch key {
	case PropertyVendorID:
		return e.vid, e.vid != ""
	case PropertyProductID:
		return e.pid, e.pid != ""
	default:
		return nil, false
	}
}

func (e usbEntry) Parent() (Entry, bool) { return nil, false }

func (e usbEntry) Release() {}
