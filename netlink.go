package serialwatch

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Netlink multicast groups for NETLINK_KOBJECT_UEVENT
const (
	ueventGroupKernel uint32 = 1
	ueventGroupUdev   uint32 = 2
)

// libudev prefixes its messages with this header
var udevPrefix = []byte("libudev\x00")

const udevMagic = 0xfeedcafe

// ueventWatcher reads uevents from a netlink socket and turns tty add/remove
// events into notifications
type ueventWatcher struct {
	fd       int
	registry *SysfsRegistry
	ch       chan Notification
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

func (r *SysfsRegistry) watchUevents(ctx context.Context, group uint32) (Watcher, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("failed to open uevent socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: group}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to bind uevent socket: %w", err)
	}

	// The socket is bound before the existing devices are listed so that a
	// device attached in between is reported at least once.
	initial, err := r.initialDrains(ctx)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &ueventWatcher{
		fd:       fd,
		registry: r,
		ch:       make(chan Notification, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.loop(ctx, initial)
	return w, nil
}

func (w *ueventWatcher) Notifications() <-chan Notification {
	return w.ch
}

func (w *ueventWatcher) Close() error {
	w.once.Do(w.cancel)
	<-w.done
	return nil
}

func (w *ueventWatcher) loop(ctx context.Context, initial []Notification) {
	defer close(w.done)
	defer close(w.ch)
	defer unix.Close(w.fd)

	for i, n := range initial {
		if !sendNotification(ctx, w.ch, n) {
			for _, rest := range initial[i+1:] {
				rest.Entries.Close()
			}
			return
		}
	}

	buf := make([]byte, os.Getpagesize()*2)
	for ctx.Err() == nil {
		fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(pollTimeout.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			w.registry.logger.Error("Polling uevent socket failed", zap.Error(err))
			return
		}
		if n == 0 {
			continue
		}

		size, _, err := unix.Recvfrom(w.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			if errors.Is(err, unix.ENOBUFS) {
				w.registry.logger.Warn("Uevent socket overflowed, events were lost")
				continue
			}
			w.registry.logger.Error("Reading uevent socket failed", zap.Error(err))
			return
		}

		env, ok := parseUevent(buf[:size])
		if !ok {
			continue
		}
		notification, ok := w.registry.notificationFor(env)
		if !ok {
			continue
		}
		if !sendNotification(ctx, w.ch, notification) {
			return
		}
	}
}

// notificationFor maps a tty add/remove uevent to a notification. Everything
// else is ignored.
func (r *SysfsRegistry) notificationFor(env map[string]string) (Notification, bool) {
	if env["SUBSYSTEM"] != "tty" {
		return Notification{}, false
	}
	devname := env["DEVNAME"]
	if !matchesSerialName(filepath.Base(devname)) {
		return Notification{}, false
	}

	var kind NotificationKind
	switch env["ACTION"] {
	case "add":
		kind = Published
	case "remove":
		kind = Terminated
	default:
		return Notification{}, false
	}

	entry := &sysfsEntry{registry: r, env: env}
	if devpath := env["DEVPATH"]; devpath != "" {
		entry.path = filepath.Join(r.sysRoot, devpath)
	}
	if kind == Published && entry.path != "" {
		if _, err := os.Stat(filepath.Join(entry.path, "device")); err != nil {
			return Notification{}, false
		}
	}

	return Notification{Kind: kind, Entries: NewSliceIterator(entry)}, true
}

// parseUevent decodes a kernel or libudev uevent message into its
// environment
func parseUevent(msg []byte) (map[string]string, bool) {
	var payload []byte
	if bytes.HasPrefix(msg, udevPrefix) {
		// prefix[8] magic(be32) header_size properties_off properties_len ...
		if len(msg) < 24 || binary.BigEndian.Uint32(msg[8:12]) != udevMagic {
			return nil, false
		}
		off := binary.NativeEndian.Uint32(msg[16:20])
		length := binary.NativeEndian.Uint32(msg[20:24])
		if uint64(off)+uint64(length) > uint64(len(msg)) {
			return nil, false
		}
		payload = msg[off : off+length]
	} else {
		// "action@devpath\0KEY=VALUE\0..."
		header, rest, ok := bytes.Cut(msg, []byte{0})
		if !ok || !bytes.Contains(header, []byte{'@'}) {
			return nil, false
		}
		payload = rest
	}

	env := make(map[string]string)
	for _, field := range bytes.Split(payload, []byte{0}) {
		if k, v, ok := bytes.Cut(field, []byte{'='}); ok && len(k) > 0 {
			env[string(k)] = string(v)
		}
	}
	if env["ACTION"] == "" {
		return nil, false
	}
	return env, true
}
