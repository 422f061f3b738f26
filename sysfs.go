package serialwatch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source selects where a SysfsRegistry receives attach/detach notifications
type Source string

const (
	SourceNetlink Source = "netlink" // kernel uevents
	SourceUdev    Source = "udev"    // udev uevents, sent once device nodes have permissions applied
	SourceDevfs   Source = "devfs"   // inotify on the device directory
)

// ParseSource validates a source name
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(s)); src {
	case SourceNetlink, SourceUdev, SourceDevfs, SourcePoll:
		return src, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, s)
	}
}

// SysfsRegistry is the Linux device registry: entries are sysfs device
// directories, ancestors are their parent directories and notifications come
// from the selected Source.
type SysfsRegistry struct {
	sysRoot string
	devDir  string
	source  Source
	logger  *zap.Logger
}

// RegistryOption configures a SysfsRegistry
type RegistryOption func(*SysfsRegistry)

// WithSysfsRoot sets the sysfs mount point (default /sys)
func WithSysfsRoot(root string) RegistryOption {
	return func(r *SysfsRegistry) { r.sysRoot = root }
}

// WithDevDir sets the device node directory (default /dev)
func WithDevDir(dir string) RegistryOption {
	return func(r *SysfsRegistry) { r.devDir = dir }
}

// WithSource sets the notification source (default SourceNetlink)
func WithSource(source Source) RegistryOption {
	return func(r *SysfsRegistry) { r.source = source }
}

// WithRegistryLogger sets the logger used by the registry
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *SysfsRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSysfsRegistry returns a registry reading the live system
func NewSysfsRegistry(opts ...RegistryOption) *SysfsRegistry {
	r := &SysfsRegistry{
		sysRoot: "/sys",
		devDir:  "/dev",
		source:  SourceNetlink,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("registry", "sysfs"), zap.String("source", string(r.source)))
	return r
}

// ConnectedDevices takes a snapshot using the default Linux registry
func ConnectedDevices(ctx context.Context) ([]DeviceInfo, error) {
	return NewEnumerator(NewSysfsRegistry(), nil).ConnectedDevices(ctx)
}

// Match returns the serial devices listed under class/tty, sorted by name
func (r *SysfsRegistry) Match(ctx context.Context) (Iterator, error) {
	classDir := filepath.Join(r.sysRoot, "class", "tty")
	dirEntries, err := os.ReadDir(classDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, de := range dirEntries {
		name := de.Name()
		if !matchesSerialName(name) {
			continue
		}
		// Only ttys backed by a real device have a device link
		if _, err := os.Stat(filepath.Join(classDir, name, "device")); err != nil {
			continue
		}
		// Legacy 8250 ports without a UART report type 0
		if readSysfsFile(filepath.Join(classDir, name, "type")) == "0" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, r.classEntry(name, nil))
	}
	return NewSliceIterator(entries...), nil
}

// Watch starts the configured notification source
func (r *SysfsRegistry) Watch(ctx context.Context) (Watcher, error) {
	switch r.source {
	case SourceNetlink:
		return r.watchUevents(ctx, ueventGroupKernel)
	case SourceUdev:
		return r.watchUevents(ctx, ueventGroupUdev)
	case SourceDevfs:
		return r.watchDevfs(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, r.source)
	}
}

// TerminalSettings reads the termios of the device node at path
func (r *SysfsRegistry) TerminalSettings(path string) (Termios, error) {
	return readTerminalSettings(path)
}

// classEntry returns the entry for class/tty/name, resolved to its real
// device directory so that parents walk the device hierarchy
func (r *SysfsRegistry) classEntry(name string, env map[string]string) *sysfsEntry {
	link := filepath.Join(r.sysRoot, "class", "tty", name)
	path, err := filepath.EvalSymlinks(link)
	if err != nil {
		path = ""
	}
	return &sysfsEntry{registry: r, path: path, env: env}
}

// devicesRoot is the top of the device hierarchy; walks stop below it
func (r *SysfsRegistry) devicesRoot() string {
	return filepath.Join(r.sysRoot, "devices")
}

// devicePath turns a DEVNAME value into an absolute device node path
func (r *SysfsRegistry) devicePath(devname string) string {
	if filepath.IsAbs(devname) {
		return devname
	}
	return filepath.Join(r.devDir, devname)
}

// sysfsEntry is a sysfs device directory plus, for notifications, the
// uevent environment that announced it
type sysfsEntry struct {
	registry *SysfsRegistry
	path     string
	env      map[string]string
}

func (e *sysfsEntry) Property(key string) (any, bool) {
	if v, ok := e.env[key]; ok {
		if key == PropertyCalloutDevice {
			return e.registry.devicePath(v), true
		}
		return v, true
	}
	if e.path == "" {
		return nil, false
	}
	if key == PropertyCalloutDevice {
		devname, ok := readUeventFile(filepath.Join(e.path, "uevent"))["DEVNAME"]
		if !ok {
			return nil, false
		}
		return e.registry.devicePath(devname), true
	}
	v := readSysfsFile(filepath.Join(e.path, key))
	if v == "" {
		return nil, false
	}
	return v, true
}

func (e *sysfsEntry) Parent() (Entry, bool) {
	if e.path == "" {
		return nil, false
	}
	parent := filepath.Dir(e.path)
	root := e.registry.devicesRoot()
	if parent == e.path || parent == root || !strings.HasPrefix(parent, root+string(filepath.Separator)) {
		return nil, false
	}
	return &sysfsEntry{registry: e.registry, path: parent}, true
}

// Release is a no-op: sysfs entries hold no kernel object references
func (e *sysfsEntry) Release() {}

// readSysfsFile reads a single-value sysfs attribute, returning "" if it
// cannot be read
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readUeventFile parses KEY=VALUE lines from a sysfs uevent file
func readUeventFile(path string) map[string]string {
	env := make(map[string]string)
	f, err := os.Open(path)
	if err != nil {
		return env
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if k, v, ok := strings.Cut(scanner.Text(), "="); ok {
			env[k] = v
		}
	}
	return env
}

// sendNotification delivers n unless ctx ends first, in which case the
// entries are released
func sendNotification(ctx context.Context, ch chan<- Notification, n Notification) bool {
	select {
	case ch <- n:
		return true
	case <-ctx.Done():
		n.Entries.Close()
		return false
	}
}

// initialDrains returns the notifications every watcher starts with
func (r *SysfsRegistry) initialDrains(ctx context.Context) ([]Notification, error) {
	existing, err := r.Match(ctx)
	if err != nil {
		return nil, err
	}
	return []Notification{
		{Kind: Published, Entries: existing, Initial: true},
		{Kind: Terminated, Entries: NewSliceIterator(), Initial: true},
	}, nil
}

// pollTimeout bounds how long a watcher waits before rechecking its context
const pollTimeout = 250 * time.Millisecond
