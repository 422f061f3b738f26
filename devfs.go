package serialwatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// devfsWatcher reports serial device nodes appearing in and disappearing
// from the device directory. It works where netlink sockets are unavailable,
// such as unprivileged containers with a bind-mounted /dev.
type devfsWatcher struct {
	fs       *fsnotify.Watcher
	registry *SysfsRegistry
	ch       chan Notification
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
}

func (r *SysfsRegistry) watchDevfs(ctx context.Context) (Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create devfs watcher: %w", err)
	}
	if err := fs.Add(r.devDir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.devDir, err)
	}

	initial, err := r.initialDrains(ctx)
	if err != nil {
		fs.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &devfsWatcher{
		fs:       fs,
		registry: r,
		ch:       make(chan Notification, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.loop(ctx, initial)
	return w, nil
}

func (w *devfsWatcher) Notifications() <-chan Notification {
	return w.ch
}

func (w *devfsWatcher) Close() error {
	w.once.Do(w.cancel)
	<-w.done
	return nil
}

func (w *devfsWatcher) loop(ctx context.Context, initial []Notification) {
	defer close(w.done)
	defer close(w.ch)
	defer w.fs.Close()

	for i, n := range initial {
		if !sendNotification(ctx, w.ch, n) {
			for _, rest := range initial[i+1:] {
				rest.Entries.Close()
			}
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			notification, ok := w.registry.devfsNotification(ev)
			if !ok {
				continue
			}
			if !sendNotification(ctx, w.ch, notification) {
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.registry.logger.Warn("Devfs watcher error", zap.Error(err))
		}
	}
}

// devfsNotification maps a create/remove of a serial device node to a
// notification
func (r *SysfsRegistry) devfsNotification(ev fsnotify.Event) (Notification, bool) {
	name := filepath.Base(ev.Name)
	if !matchesSerialName(name) {
		return Notification{}, false
	}
	env := map[string]string{PropertyCalloutDevice: ev.Name}

	switch {
	case ev.Has(fsnotify.Create):
		if !isCharacterDevice(ev.Name) {
			return Notification{}, false
		}
		return Notification{Kind: Published, Entries: NewSliceIterator(r.classEntry(name, env))}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Notification{Kind: Terminated, Entries: NewSliceIterator(&sysfsEntry{registry: r, env: env})}, true
	default:
		return Notification{}, false
	}
}
