package serialwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// releaseTracker counts entries handed out and released
type releaseTracker struct {
	mu          sync.Mutex
	outstanding int
}

func (r *releaseTracker) acquire() {
	r.mu.Lock()
	r.outstanding++
	r.mu.Unlock()
}

func (r *releaseTracker) release() {
	r.mu.Lock()
	r.outstanding--
	r.mu.Unlock()
}

func (r *releaseTracker) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outstanding
}

// fakeEntry is an in-memory registry node
type fakeEntry struct {
	props   map[string]any
	parent  *fakeEntry
	tracker *releaseTracker
}

func (e *fakeEntry) Property(key string) (any, bool) {
	v, ok := e.props[key]
	return v, ok
}

func (e *fakeEntry) Parent() (Entry, bool) {
	if e.parent == nil {
		return nil, false
	}
	e.tracker.acquire()
	return e.parent, true
}

func (e *fakeEntry) Release() {
	e.tracker.release()
}

// fakeRegistry serves a fixed device list and a watcher driven by the test
type fakeRegistry struct {
	tracker *releaseTracker

	mu         sync.Mutex
	entries    []*fakeEntry
	matchErr   error
	watchErr   error
	termios    map[string]Termios
	termiosErr map[string]error
	watcher    *fakeWatcher
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		tracker:    &releaseTracker{},
		termios:    make(map[string]Termios),
		termiosErr: make(map[string]error),
	}
}

// ttyEntry returns a bare tty entry with no USB ancestors
func (r *fakeRegistry) ttyEntry(port string) *fakeEntry {
	return &fakeEntry{
		props:   map[string]any{PropertyCalloutDevice: port},
		parent:  &fakeEntry{props: map[string]any{}, tracker: r.tracker},
		tracker: r.tracker,
	}
}

// usbEntry returns a tty entry whose USB device sits two levels up, the
// way a usb-serial interface hangs below its device
func (r *fakeRegistry) usbEntry(port, vid, pid string) *fakeEntry {
	device := &fakeEntry{
		props:   map[string]any{PropertyVendorID: vid, PropertyProductID: pid},
		parent:  &fakeEntry{props: map[string]any{}, tracker: r.tracker},
		tracker: r.tracker,
	}
	iface := &fakeEntry{props: map[string]any{}, parent: device, tracker: r.tracker}
	return &fakeEntry{
		props:   map[string]any{PropertyCalloutDevice: port},
		parent:  iface,
		tracker: r.tracker,
	}
}

// terminatedEntry returns an entry carrying only the port name
func (r *fakeRegistry) terminatedEntry(port string) *fakeEntry {
	return &fakeEntry{props: map[string]any{PropertyCalloutDevice: port}, tracker: r.tracker}
}

// attach adds an entry to the Match result and registers its termios
func (r *fakeRegistry) attach(entry *fakeEntry, termios Termios) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if port, ok := entry.props[PropertyCalloutDevice].(string); ok {
		r.termios[port] = termios
	}
}

func (r *fakeRegistry) setTermios(port string, termios Termios) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.termios[port] = termios
}

func (r *fakeRegistry) failTermios(port string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.termiosErr[port] = err
}

func (r *fakeRegistry) iterator(entries []*fakeEntry) Iterator {
	list := make([]Entry, 0, len(entries))
	for _, e := range entries {
		r.tracker.acquire()
		list = append(list, e)
	}
	return NewSliceIterator(list...)
}

func (r *fakeRegistry) Match(ctx context.Context) (Iterator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matchErr != nil {
		return nil, r.matchErr
	}
	return r.iterator(r.entries), nil
}

func (r *fakeRegistry) Watch(ctx context.Context) (Watcher, error) {
	if r.watchErr != nil {
		return nil, r.watchErr
	}
	existing, err := r.Match(ctx)
	if err != nil {
		return nil, err
	}

	w := &fakeWatcher{registry: r, ch: make(chan Notification, 64)}
	w.ch <- Notification{Kind: Published, Entries: existing, Initial: true}
	w.ch <- Notification{Kind: Terminated, Entries: NewSliceIterator(), Initial: true}

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return w, nil
}

func (r *fakeRegistry) TerminalSettings(path string) (Termios, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.termiosErr[path]; err != nil {
		return Termios{}, err
	}
	t, ok := r.termios[path]
	if !ok {
		return Termios{}, errors.New("no such device")
	}
	return t, nil
}

// fakeWatcher lets tests inject notifications
type fakeWatcher struct {
	registry *fakeRegistry
	ch       chan Notification

	mu     sync.Mutex
	closed bool
}

func (w *fakeWatcher) Notifications() <-chan Notification {
	return w.ch
}

func (w *fakeWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	return nil
}

func (w *fakeWatcher) publish(entries ...*fakeEntry) {
	w.ch <- Notification{Kind: Published, Entries: w.registry.iterator(entries)}
}

func (w *fakeWatcher) terminate(entries ...*fakeEntry) {
	w.ch <- Notification{Kind: Terminated, Entries: w.registry.iterator(entries)}
}

// termios9600 is 9600 8N1 with no flow control
var termios9600 = Termios{
	Cflag:  unix.B9600 | unix.CS8 | unix.CREAD | unix.CLOCAL,
	Ispeed: 9600,
	Ospeed: 9600,
}

// termios115200RTS is 115200 7E2 with RTS/CTS
var termios115200RTS = Termios{
	Cflag:  unix.B115200 | unix.CS7 | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CREAD,
	Ispeed: 115200,
	Ospeed: 115200,
}

const eventTimeout = 2 * time.Second

// nextEvent waits for the next event on sub
func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed while waiting for event")
		}
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

// requireNoEvent asserts nothing arrives on sub within a short window
func requireNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event %#v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}
