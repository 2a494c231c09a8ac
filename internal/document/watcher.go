package document

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultExcludes are doublestar patterns the watcher never descends into.
var DefaultExcludes = []string{"**/.git", "**/node_modules", "**/vendor"}

// Watcher invalidates cached snapshots when their markdown files change.
type Watcher struct {
	cache    *Cache
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	excludes []string
	started  bool
	done     chan struct{}
}

// NewWatcher creates a watcher over the cache root. A nil excludes slice
// means DefaultExcludes.
func NewWatcher(cache *Cache, excludes []string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if excludes == nil {
		excludes = DefaultExcludes
	}
	return &Watcher{
		cache:    cache,
		fsw:      fsw,
		logger:   logger,
		excludes: excludes,
		done:     make(chan struct{}),
	}, nil
}

// Start adds watches for every directory under the root and processes
// events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.cache.Root()); err != nil {
		return err
	}
	w.started = true
	go w.loop(ctx)
	w.logger.Info("document watcher started", "root", w.cache.Root())
	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	if w.started {
		<-w.done
	}
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("document watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.cache.Root(), ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	if w.excluded(rel) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if err := w.addRecursive(ev.Name); err != nil {
			w.logger.Warn("watch new directory failed", "path", rel, "error", err)
		}
	}

	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		return
	}
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		docPath := "/" + rel
		w.cache.Invalidate(docPath)
		w.logger.Debug("document invalidated", "path", docPath, "op", ev.Op.String())
	}
}

// addRecursive watches dir and every non-excluded directory below it.
// Paths that are not directories are ignored.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished between the event and the walk.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.cache.Root(), p)
		if relErr == nil && rel != "." && w.excluded(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}
