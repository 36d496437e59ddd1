// Package watch reloads tests when Rust sources or manifests change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
)

const (
	// DefaultDebounce is how long a path must stay quiet before a change
	// is reported. Editors often write a file several times per save.
	DefaultDebounce = 300 * time.Millisecond

	tickInterval = 50 * time.Millisecond
)

// sourceDirs are the package subdirectories that hold test sources.
var sourceDirs = []string{"src", "tests"}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher reports settled changes of .rs files and Cargo.toml manifests
// under a set of package directories.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onChange func(ctx context.Context, paths []string)
	pending  map[string]time.Time
	debounce time.Duration
	logger   *zap.Logger
	now      func() time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher over the given package directories. onChange
// receives the changed paths, sorted, once they have settled.
func New(packageDirs []string, onChange func(ctx context.Context, paths []string), opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create file watcher")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		watcher:  fw,
		onChange: onChange,
		pending:  make(map[string]time.Time),
		debounce: debounce,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, dir := range WatchDirs(packageDirs) {
		w.add(dir)
	}
	return w, nil
}

// WatchDirs lists every directory to watch: the package roots for their
// manifests and every directory below src/ and tests/.
func WatchDirs(packageDirs []string) []string {
	var dirs []string
	for _, pkg := range packageDirs {
		dirs = append(dirs, pkg)
		for _, sub := range sourceDirs {
			root := filepath.Join(pkg, sub)
			_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					dirs = append(dirs, path)
				}
				return nil
			})
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("unable to watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.logger.Debug("watching directory", zap.String("dir", dir))
}

// Start begins watching in a background goroutine. It is a no-op when the
// watcher is already running.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	go w.run(ctx)
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
}

// WatchList returns the directories being watched.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-ticker.C:
			if paths := w.settled(); len(paths) > 0 {
				w.onChange(ctx, paths)
			}
		}
	}
}

// handleEvent records relevant events and follows newly created
// directories.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(event.Name)
			return
		}
	}
	if !Relevant(event.Name) || event.Op == fsnotify.Chmod {
		return
	}

	w.logger.Debug("source changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[event.Name] = w.now()
	w.mu.Unlock()
}

// settled returns the pending paths once every one of them has been quiet
// for the debounce window, so that a burst of saves yields one batch.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	now := w.now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounce {
			return nil
		}
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	clear(w.pending)
	slices.Sort(paths)
	return paths
}

// Relevant reports whether a change to path can change the test tree.
func Relevant(path string) bool {
	base := filepath.Base(path)
	return base == cargo.ManifestFileName || strings.HasSuffix(base, ".rs")
}
