// Package watcher reports changes to WDL source files.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/wdlcache/internal/core/domain"
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is the default time window for debouncing file events.
const DefaultDebounceWindow = 50 * time.Millisecond

var skipDirectories = map[string]bool{
	".git":              true,
	".jj":               true,
	"node_modules":      true,
	"vendor":            true,
	domain.CacheDirName: true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	log       ports.Logger
	debouncer *Debouncer
	events    chan domain.FileChangeEvent

	mu      sync.Mutex
	kinds   map[string]domain.ChangeType
	closed  bool
	stop    chan struct{}
	stopped sync.Once
}

// NewWatcher creates a new file system watcher.
func NewWatcher(log ports.Logger, window time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	w := &Watcher{
		fsWatcher: fsw,
		log:       log,
		events:    make(chan domain.FileChangeEvent, eventChannelBuffer),
		kinds:     make(map[string]domain.ChangeType),
		stop:      make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.emit)
	return w, nil
}

// Start begins watching the given root directory recursively.
func (w *Watcher) Start(ctx context.Context, root string) error {
	for dir := range watchRecursively(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	err := w.fsWatcher.Close()
	w.shutdown()
	return err
}

// Events returns an iterator of debounced change events. The sequence ends
// when the watcher stops.
func (w *Watcher) Events() iter.Seq[domain.FileChangeEvent] {
	return func(yield func(domain.FileChangeEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if d.IsDir() {
				if path != root && skipDirectories[d.Name()] {
					return fs.SkipDir
				}
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error: " + err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDirectories[info.Name()] {
				for dir := range watchRecursively(event.Name) {
					_ = w.fsWatcher.Add(dir)
				}
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, domain.WDLExtension) {
		return
	}
	kind, ok := changeType(event)
	if !ok {
		return
	}

	w.mu.Lock()
	w.kinds[event.Name] = merge(w.kinds[event.Name], kind)
	w.mu.Unlock()

	w.debouncer.Add(event.Name)
}

func changeType(event fsnotify.Event) (domain.ChangeType, bool) {
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true
	case event.Has(fsnotify.Create):
		return domain.ChangeCreated, true
	case event.Has(fsnotify.Write):
		return domain.ChangeModified, true
	default:
		return "", false
	}
}

// merge folds a new change into the pending one for the same path.
func merge(prev, next domain.ChangeType) domain.ChangeType {
	if prev == domain.ChangeCreated && next == domain.ChangeModified {
		return domain.ChangeCreated
	}
	return next
}

func (w *Watcher) emit(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	now := time.Now()
	for _, path := range paths {
		kind, ok := w.kinds[path]
		if !ok {
			continue
		}
		delete(w.kinds, path)

		ev := domain.FileChangeEvent{URI: domain.PathToURI(path), Type: kind, Timestamp: now}
		select {
		case w.events <- ev:
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) shutdown() {
	w.stopped.Do(func() {
		close(w.stop)
		w.mu.Lock()
		w.closed = true
		close(w.events)
		w.mu.Unlock()
	})
}
