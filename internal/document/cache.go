package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/HendryAvila/docmesh/internal/lru"
	"github.com/bmatcuk/doublestar/v4"
)

// DefaultCapacity bounds the number of cached snapshots.
const DefaultCapacity = 100

// DefaultPattern selects every markdown file under the root.
const DefaultPattern = "**/*.md"

// Options configures a Cache.
type Options struct {
	Root     string
	Capacity int
	Logger   *slog.Logger
}

// Cache serves document snapshots from a directory tree, keyed by absolute
// document path ("/guides/setup.md").
//
// The generation counter of a path increases every time its snapshot is
// replaced or invalidated and never decreases, so a holder can compare
// Snapshot.Metadata.CacheGeneration with Generation to detect staleness.
type Cache struct {
	root    string
	entries *lru.Cache[string, *Snapshot]
	logger  *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64
	listeners   []func(docPath string)
}

// NewCache creates a cache over opts.Root, which must be an existing directory.
func NewCache(opts Options) (*Cache, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("document: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("document: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document: root %s is not a directory", root)
	}

	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		root:        root,
		entries:     lru.New[string, *Snapshot](capacity),
		logger:      logger,
		generations: make(map[string]uint64),
	}, nil
}

// Root returns the absolute filesystem directory the cache reads from.
func (c *Cache) Root() string {
	return c.root
}

// GetDocument returns the snapshot for docPath, parsing the file on a miss
// or when it changed on disk since it was cached. A missing file yields an
// error wrapping ErrNotFound. Replacing or dropping a cached snapshot
// notifies OnInvalidate listeners.
func (c *Cache) GetDocument(ctx context.Context, docPath string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := CleanPath(docPath)
	fsPath, err := c.filePath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fsPath)
	if err != nil || info.IsDir() {
		if c.entries.Remove(key) {
			c.bump(key)
			c.notify(key)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document: stat %s: %w", key, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	cached, reload := c.entries.Get(key)
	if reload {
		if cached.Metadata.LastModified.Equal(info.ModTime()) && cached.Metadata.Size == info.Size() {
			return cached, nil
		}
		c.logger.Debug("document changed on disk, reloading", "path", key)
	}

	src, err := os.ReadFile(fsPath)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", key, err)
	}
	snap, err := Parse(key, src)
	if err != nil {
		return nil, fmt.Errorf("document: parse %s: %w", key, err)
	}
	snap.Metadata.LastModified = info.ModTime()
	snap.Metadata.Size = info.Size()
	snap.Metadata.CacheGeneration = c.bump(key)

	c.entries.Put(key, snap)
	// A replaced snapshot is an invalidation; a first load is not.
	if reload {
		c.notify(key)
	}
	return snap, nil
}

// GetSectionContent returns the content of one section of docPath.
func (c *Cache) GetSectionContent(ctx context.Context, docPath, slug string) (string, error) {
	snap, err := c.GetDocument(ctx, docPath)
	if err != nil {
		return "", err
	}
	content, ok := snap.Section(slug)
	if !ok {
		return "", fmt.Errorf("%w: %s#%s", ErrSectionNotFound, snap.Metadata.Path, slug)
	}
	return content, nil
}

// Invalidate drops the cached snapshot of docPath, advances its generation
// and notifies OnInvalidate listeners. It reports whether an entry was cached.
func (c *Cache) Invalidate(docPath string) bool {
	key := CleanPath(docPath)
	removed := c.entries.Remove(key)
	c.bump(key)
	c.notify(key)
	return removed
}

// InvalidateAll drops every cached snapshot and notifies listeners for each.
func (c *Cache) InvalidateAll() {
	keys := c.entries.Keys()
	c.entries.Clear()
	for _, k := range keys {
		c.bump(k)
		c.notify(k)
	}
}

// OnInvalidate registers fn to run after every invalidation, outside any
// cache lock.
func (c *Cache) OnInvalidate(fn func(docPath string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Generation returns the current generation of docPath, 0 if it was never
// loaded or invalidated.
func (c *Cache) Generation(docPath string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[CleanPath(docPath)]
}

// IsStale reports whether snap has been replaced or invalidated since it
// was handed out.
func (c *Cache) IsStale(snap *Snapshot) bool {
	return c.Generation(snap.Metadata.Path) != snap.Metadata.CacheGeneration
}

// List returns the absolute document paths under the root matching a
// doublestar pattern, sorted. An empty pattern means DefaultPattern.
func (c *Cache) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(c.root), strings.TrimPrefix(pattern, "/"))
	if err != nil {
		return nil, fmt.Errorf("document: glob %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(m)))
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, "/"+m)
	}
	sort.Strings(out)
	return out, nil
}

// Stats returns the snapshot LRU counters.
func (c *Cache) Stats() lru.Stats {
	return c.entries.Stats()
}

// CleanPath canonicalizes a document path to its absolute slash form.
func CleanPath(docPath string) string {
	return path.Clean("/" + strings.TrimSpace(docPath))
}

func (c *Cache) filePath(key string) (string, error) {
	fsPath := filepath.Join(c.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(c.root, fsPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, key)
	}
	return fsPath, nil
}

func (c *Cache) bump(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key]
}

func (c *Cache) notify(key string) {
	c.mu.Lock()
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(key)
	}
}
