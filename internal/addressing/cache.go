package addressing

import (
	"github.com/HendryAvila/docmesh/internal/lru"
)

// DefaultCacheCapacity bounds each address map unless configured otherwise.
const DefaultCacheCapacity = 1000

// CacheStats groups the counters of the three address maps.
type CacheStats struct {
	Documents lru.Stats `json:"documents"`
	Sections  lru.Stats `json:"sections"`
	Tasks     lru.Stats `json:"tasks"`
}

// Cache memoizes parsed addresses, one bounded LRU per address kind.
// It is safe for concurrent use and is meant to be created once and
// injected into a Parser.
type Cache struct {
	documents *lru.Cache[string, DocumentAddress]
	sections  *lru.Cache[string, SectionAddress]
	tasks     *lru.Cache[string, SectionAddress]
}

// NewCache creates an address cache; capacity applies to each map.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		documents: lru.New[string, DocumentAddress](capacity),
		sections:  lru.New[string, SectionAddress](capacity),
		tasks:     lru.New[string, SectionAddress](capacity),
	}
}

// Clear empties every map.
func (c *Cache) Clear() {
	c.documents.Clear()
	c.sections.Clear()
	c.tasks.Clear()
}

// InvalidateDocument drops every cached address that resolves to docPath
// and returns how many entries were removed.
func (c *Cache) InvalidateDocument(docPath string) int {
	n := c.documents.RemoveFunc(func(_ string, a DocumentAddress) bool {
		return a.Path == docPath
	})
	inDoc := func(_ string, a SectionAddress) bool { return a.Document.Path == docPath }
	n += c.sections.RemoveFunc(inDoc)
	n += c.tasks.RemoveFunc(inDoc)
	return n
}

// Stats returns the counters of each map.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Documents: c.documents.Stats(),
		Sections:  c.sections.Stats(),
		Tasks:     c.tasks.Stats(),
	}
}
