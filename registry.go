package serialwatch

import (
	"context"
	"strconv"
	"strings"
)

// Registry property keys read by the enumerator. Backends translate their own
// attribute names to these.
const (
	PropertyCalloutDevice = "DEVNAME"   // device node path
	PropertyVendorID      = "idVendor"  // USB vendor id, hex string or integer
	PropertyProductID     = "idProduct" // USB product id, hex string or integer
)

// Entry is one node of the device registry. Entries returned by an Iterator
// or by Parent must be released by the caller.
type Entry interface {
	Property(key string) (any, bool)
	Parent() (Entry, bool)
	Release()
}

// Iterator yields matched registry entries. It is consumed once.
type Iterator interface {
	Next() (Entry, bool)
	Close() error
}

// NotificationKind tells whether a notification carries newly published or
// terminated entries
type NotificationKind int

const (
	Published NotificationKind = iota
	Terminated
)

func (k NotificationKind) String() string {
	switch k {
	case Published:
		return "published"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Notification is one wakeup from the registry. Entries may hold zero or more
// entries and must be drained and closed by the receiver. Initial marks the
// drains of entries that already matched when the watch was registered.
type Notification struct {
	Kind    NotificationKind
	Entries Iterator
	Initial bool
}

// Watcher delivers registry notifications in the order the OS reports them.
// The channel is closed when the watcher is closed or its context ends.
type Watcher interface {
	Notifications() <-chan Notification
	Close() error
}

// Registry is the capability through which all OS device registry access
// happens
type Registry interface {
	// Match returns the entries currently matching the serial device class
	Match(ctx context.Context) (Iterator, error)

	// Watch registers for published and terminated notifications. The first
	// two notifications are the Initial published and terminated drains.
	Watch(ctx context.Context) (Watcher, error)

	// TerminalSettings reads the terminal-control structure of a device node
	TerminalSettings(path string) (Termios, error)
}

// sliceIterator iterates over a fixed set of entries. Entries not consumed
// before Close are released by Close.
type sliceIterator struct {
	entries []Entry
	pos     int
}

// NewSliceIterator returns an Iterator over entries
func NewSliceIterator(entries ...Entry) Iterator {
	return &sliceIterator{entries: entries}
}

func (it *sliceIterator) Next() (Entry, bool) {
	if it.pos >= len(it.entries) {
		return nil, false
	}
	e := it.entries[it.pos]
	it.pos++
	return e, true
}

func (it *sliceIterator) Close() error {
	for ; it.pos < len(it.entries); it.pos++ {
		it.entries[it.pos].Release()
	}
	return nil
}

// forEachEntry drains it, handing each entry to fn and releasing it
// afterwards. Iteration stops at the first error; the iterator is closed on
// every path.
func forEachEntry(it Iterator, fn func(Entry) error) error {
	defer it.Close()
	for {
		entry, ok := it.Next()
		if !ok {
			return nil
		}
		err := func() error {
			defer entry.Release()
			return fn(entry)
		}()
		if err != nil {
			return err
		}
	}
}

// walkAncestors visits the parents of entry from nearest to farthest until
// visit returns false or the chain ends. Every parent acquired is released
// before walkAncestors returns; entry itself is not.
func walkAncestors(entry Entry, visit func(Entry) bool) {
	current, ok := entry.Parent()
	for ok {
		keepGoing := visit(current)
		next, hasNext := Entry(nil), false
		if keepGoing {
			next, hasNext = current.Parent()
		}
		current.Release()
		if !keepGoing {
			return
		}
		current, ok = next, hasNext
	}
}

// stringProperty reads key as a string
func stringProperty(entry Entry, key string) (string, bool) {
	v, ok := entry.Property(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// idProperty reads key as a 16-bit USB id. sysfs exposes ids as hex strings
// ("0403"); other backends may hand over integers.
func idProperty(entry Entry, key string) (USBID, bool) {
	v, ok := entry.Property(key)
	if !ok {
		return USBID{}, false
	}
	switch id := v.(type) {
	case uint16:
		return NewUSBID(id), true
	case int:
		if id < 0 || id > 0xffff {
			return USBID{}, false
		}
		return NewUSBID(uint16(id)), true
	case string:
		n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(id), "0x"), 16, 16)
		if err != nil {
			return USBID{}, false
		}
		return NewUSBID(uint16(n)), true
	default:
		return USBID{}, false
	}
}
