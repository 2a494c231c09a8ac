// Package document holds parsed markdown snapshots and the cache that
// serves them.
//
// A Snapshot is immutable once published. When a file changes the cache
// builds a new snapshot and swaps it in whole, stamping it with a higher
// generation so holders of the old one can tell it is stale.
package document

import (
	"errors"
	"time"

	"github.com/HendryAvila/docmesh/internal/slugpath"
)

// Sentinel errors for document access.
var (
	// ErrNotFound is returned when no document exists at a path.
	ErrNotFound = errors.New("document not found")

	// ErrSectionNotFound is returned when a document has no heading with
	// the requested slug.
	ErrSectionNotFound = errors.New("section not found")

	// ErrOutsideRoot is returned for paths that resolve outside the docs root.
	ErrOutsideRoot = errors.New("path outside document root")
)

// Metadata describes a snapshot without its content.
type Metadata struct {
	Path            string         `json:"path"`
	Title           string         `json:"title"`
	Namespace       string         `json:"namespace"`
	ContentHash     string         `json:"content_hash"`
	CacheGeneration uint64         `json:"cache_generation"`
	LastModified    time.Time      `json:"last_modified"`
	Size            int64          `json:"size"`
	WordCount       int            `json:"word_count"`
	Frontmatter     map[string]any `json:"frontmatter,omitempty"`
}

// Heading is one markdown heading of a document.
type Heading struct {
	Index int    `json:"index"`
	Level int    `json:"level"`
	Title string `json:"title"`
	// Slug is unique within the document ("examples", "examples-1", ...).
	Slug string `json:"slug"`
	// Path is the hierarchical slug built from the enclosing headings.
	Path string `json:"path"`
	// Parent is the index of the enclosing heading, -1 at top level.
	Parent int `json:"parent"`
}

// Snapshot is a parsed document.
type Snapshot struct {
	Metadata Metadata  `json:"metadata"`
	Headings []Heading `json:"headings"`
	// SlugIndex maps both flat slugs and hierarchical paths to an index
	// into Headings.
	SlugIndex map[string]int `json:"slug_index"`
	// Sections maps the same keys as SlugIndex to the section text, from
	// the heading line up to the next heading of equal or shallower level.
	Sections map[string]string `json:"-"`
	// Content is the document body without frontmatter.
	Content string `json:"-"`
}

// ResolveSlug finds the heading addressed by slug, which may be a flat
// slug or a hierarchical path.
func (s *Snapshot) ResolveSlug(slug string) (Heading, bool) {
	i, ok := s.SlugIndex[slugpath.Normalize(slug)]
	if !ok {
		return Heading{}, false
	}
	return s.Headings[i], true
}

// HasSection reports whether slug addresses a heading of the document.
func (s *Snapshot) HasSection(slug string) bool {
	_, ok := s.ResolveSlug(slug)
	return ok
}

// Section returns the content of the section addressed by slug.
func (s *Snapshot) Section(slug string) (string, bool) {
	content, ok := s.Sections[slugpath.Normalize(slug)]
	return content, ok
}

// Slugs returns the flat slug of every heading in document order.
func (s *Snapshot) Slugs() []string {
	out := make([]string, len(s.Headings))
	for i, h := range s.Headings {
		out[i] = h.Slug
	}
	return out
}
