// Package watch rebuilds documentation when files under the docs directory
// change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// DefaultQuietWindow is how long the tree must stay quiet before a rebuild.
const DefaultQuietWindow = 300 * time.Millisecond

// ignoredDirs never trigger rebuilds and are not watched. Build output lands
// there, so watching them would loop.
var ignoredDirs = map[string]bool{
	"_build":       true,
	"public":       true,
	"node_modules": true,
}

// RebuildFunc is invoked after a burst of changes settles.
type RebuildFunc func(ctx context.Context) error

// Watcher recursively watches a directory and triggers debounced rebuilds.
// Changes arriving while a rebuild runs coalesce into exactly one follow-up.
type Watcher struct {
	root    string
	quiet   time.Duration
	rebuild RebuildFunc

	readyOnce sync.Once
	ready     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithQuietWindow overrides DefaultQuietWindow.
func WithQuietWindow(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.quiet = d
		}
	}
}

// New returns a Watcher for root.
func New(root string, rebuild RebuildFunc, opts ...Option) *Watcher {
	w := &Watcher{root: root, quiet: DefaultQuietWindow, rebuild: rebuild, ready: make(chan struct{})}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is canceled. Rebuild errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.root)
	if err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := addDirsRecursive(fw, abs); err != nil {
		return err
	}

	rebuildReq, trigger, stop := newDebouncer(w.quiet)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx, rebuildReq)
	}()
	defer wg.Wait()

	slog.Info("Watching for changes", logfields.Path(abs))
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, abs, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context, req <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			if err := w.rebuild(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, root string, ev fsnotify.Event, trigger func()) {
	if shouldIgnore(root, ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// newDebouncer returns a channel that receives one value per settled burst of
// trigger calls. The channel holds at most one pending request.
func newDebouncer(quiet time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(quiet, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func ignoredDir(name string) bool {
	return ignoredDirs[name] || strings.HasPrefix(name, ".")
}

// shouldIgnore reports whether a change at path must not trigger a rebuild:
// anything inside an ignored directory, hidden files, and editor temp files.
func shouldIgnore(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, p := range parts[:len(parts)-1] {
		if ignoredDir(p) {
			return true
		}
	}
	base := parts[len(parts)-1]
	if ignoredDir(base) {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"))
}
