package snapshot

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/records-go/internal/telemetry/logger"
)

// EventKind says what happened to a snapshot file.
type EventKind string

const (
	EventWritten EventKind = "written"
	EventRemoved EventKind = "removed"
)

// Event reports a snapshot appearing in or leaving the directory.
type Event struct {
	Kind EventKind
	Info *Info
}

// Watcher reports snapshot files written or removed by any process.
type Watcher struct {
	dir       string
	watcher   *fsnotify.Watcher
	callbacks []func(Event)
	mu        sync.RWMutex
	logger    logger.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher creates a watcher over the snapshot directory dir. The
// directory must exist.
func NewWatcher(dir string, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:     dir,
		watcher: fw,
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fw.Add(dir); err != nil {
		fw.Close()
		w.logger.Error("failed to watch snapshot directory",
			"path", dir,
			"error", err,
		)
		return nil, err
	}
	return w, nil
}

// OnChange registers a callback for snapshot events.
func (w *Watcher) OnChange(callback func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Run delivers events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.logger.Debug("snapshot watcher started", "path", w.dir)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev, ok := translate(event); ok {
				w.notify(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("snapshot watcher error", "error", err)
		case <-ctx.Done():
			w.logger.Debug("snapshot watcher stopped", "path", w.dir)
			return nil
		}
	}
}

// translate maps a file system event to a snapshot event. A snapshot
// becomes visible when its temporary file is renamed into place, which
// fsnotify reports as a create of the final name.
func translate(event fsnotify.Event) (Event, bool) {
	info, err := ParseName(filepath.Base(event.Name))
	if err != nil {
		return Event{}, false
	}
	info.Path = event.Name

	switch {
	case event.Has(fsnotify.Create):
		return Event{Kind: EventWritten, Info: info}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Event{Kind: EventRemoved, Info: info}, true
	}
	return Event{}, false
}

func (w *Watcher) notify(ev Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, cb := range w.callbacks {
		cb(ev)
	}
}
