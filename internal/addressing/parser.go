package addressing

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/HendryAvila/docmesh/internal/lru"
	"github.com/HendryAvila/docmesh/internal/slugpath"
)

// slugComponent is the heading slug grammar with "#" allowed, since
// everything after the first "#" of an address belongs to the slug.
var slugComponent = regexp.MustCompile(`^[a-z0-9#]+(-[a-z0-9#]+)*$`)

// Parser turns raw address strings into validated addresses, consulting
// its Cache before doing any work.
type Parser struct {
	cache *Cache
}

// NewParser creates a Parser backed by cache. A nil cache gets a private
// one with the default capacity.
func NewParser(cache *Cache) *Parser {
	if cache == nil {
		cache = NewCache(DefaultCacheCapacity)
	}
	return &Parser{cache: cache}
}

// Cache returns the cache the parser memoizes into.
func (p *Parser) Cache() *Cache {
	return p.cache
}

// ParseDocumentAddress resolves a document path. A missing leading "/" is
// added and a path without extension gets ".md".
func (p *Parser) ParseDocumentAddress(input string) (DocumentAddress, error) {
	if addr, ok := p.cache.documents.Get(input); ok {
		return addr, nil
	}

	docPath, err := normalizeDocumentPath(input)
	if err != nil {
		return DocumentAddress{}, err
	}

	addr := DocumentAddress{
		Path:      docPath,
		Namespace: Namespace(docPath),
		FullPath:  docPath,
		CacheKey:  input,
	}
	p.cache.documents.Put(input, addr)
	return addr, nil
}

// ParseSectionAddress resolves a section address. contextDocument is
// required unless input names its document explicitly ("doc.md#slug").
func (p *Parser) ParseSectionAddress(input, contextDocument string) (SectionAddress, error) {
	return p.parseSection(p.cache.sections, input, contextDocument, false)
}

// ParseTaskAddress resolves a task address. Tasks share the section
// grammar and are cached separately.
func (p *Parser) ParseTaskAddress(input, contextDocument string) (SectionAddress, error) {
	return p.parseSection(p.cache.tasks, input, contextDocument, true)
}

// ParseAddress accepts either a document or a section address and reports
// which one it got. hasSection is false for plain document paths.
func (p *Parser) ParseAddress(input string) (doc DocumentAddress, section SectionAddress, hasSection bool, err error) {
	if !strings.Contains(input, "#") {
		doc, err = p.ParseDocumentAddress(input)
		return doc, SectionAddress{}, false, err
	}
	section, err = p.ParseSectionAddress(input, "")
	if err != nil {
		return DocumentAddress{}, SectionAddress{}, false, err
	}
	return section.Document, section, true, nil
}

// InvalidateDocument forgets every cached address that resolves to docPath.
func (p *Parser) InvalidateDocument(docPath string) int {
	return p.cache.InvalidateDocument(docPath)
}

func (p *Parser) parseSection(
	cache *lru.Cache[string, SectionAddress],
	input, contextDocument string,
	isTask bool,
) (SectionAddress, error) {
	key := cacheKey(input, contextDocument)
	if addr, ok := cache.Get(key); ok {
		return addr, nil
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return SectionAddress{}, invalidAddress(CodeEmptyAddress, "address is empty",
			map[string]any{"input": input, "context_document": contextDocument})
	}

	var (
		doc     DocumentAddress
		rawSlug string
		err     error
	)

	hashAt := strings.Index(trimmed, "#")
	switch {
	case hashAt > 0:
		// Everything after the first "#" is slug, including further "#".
		doc, err = p.ParseDocumentAddress(trimmed[:hashAt])
		if err != nil {
			return SectionAddress{}, err
		}
		rawSlug = trimmed[hashAt+1:]
	default:
		rawSlug = strings.TrimPrefix(trimmed, "#")
		if strings.TrimSpace(contextDocument) == "" {
			return SectionAddress{}, invalidAddress(CodeMissingContext,
				fmt.Sprintf("section %q requires a context document", input),
				map[string]any{"input": input})
		}
		doc, err = p.ParseDocumentAddress(contextDocument)
		if err != nil {
			return SectionAddress{}, err
		}
	}

	slug, err := normalizeSlug(rawSlug, input)
	if err != nil {
		return SectionAddress{}, err
	}

	addr := SectionAddress{
		Document: doc,
		Slug:     slug,
		FullPath: FormatAddress(doc.Path, slug),
		CacheKey: key,
		IsTask:   isTask,
	}
	cache.Put(key, addr)
	return addr, nil
}

func normalizeDocumentPath(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", invalidAddress(CodeEmptyAddress, "document path is empty",
			map[string]any{"input": input})
	}
	if strings.Contains(trimmed, "#") {
		return "", invalidAddress(CodeInvalidDocumentPath,
			fmt.Sprintf("document path %q must not contain a section", input),
			map[string]any{"input": input})
	}

	docPath := path.Clean("/" + trimmed)
	if docPath == "/" {
		return "", invalidAddress(CodeInvalidDocumentPath,
			fmt.Sprintf("document path %q has no file name", input),
			map[string]any{"input": input})
	}
	if path.Ext(docPath) == "" {
		docPath += ".md"
	}
	return docPath, nil
}

func normalizeSlug(raw, input string) (string, error) {
	slug := slugpath.Normalize(raw)
	if slug == "" {
		return "", invalidAddress(CodeEmptySlug,
			fmt.Sprintf("address %q has an empty section slug", input),
			map[string]any{"input": input})
	}
	if d := slugpath.Depth(slug); d > slugpath.MaxDepth {
		return "", invalidAddress(CodeSlugTooDeep,
			fmt.Sprintf("slug depth %d exceeds maximum of %d", d, slugpath.MaxDepth),
			map[string]any{"input": input, "depth": d})
	}
	for _, c := range slugpath.Split(slug) {
		if !slugComponent.MatchString(c) {
			return "", invalidAddress(CodeInvalidSlug,
				fmt.Sprintf("slug component %q must be lowercase letters, digits and single hyphens", c),
				map[string]any{"input": input, "component": c})
		}
	}
	return slug, nil
}
