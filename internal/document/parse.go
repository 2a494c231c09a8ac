package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/slugpath"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// fallbackSlug names headings whose title has no alphanumerics.
const fallbackSlug = "section"

// Parse builds a Snapshot from raw markdown. docPath is the absolute
// document path the snapshot will be addressed by. Generation, size and
// modification time are left for the cache to stamp.
func Parse(docPath string, src []byte) (*Snapshot, error) {
	fm, offset := splitFrontmatter(src)
	body := string(src[offset:])

	headings, bounds := scanHeadings(src[offset:])

	snap := &Snapshot{
		Metadata: Metadata{
			Path:        docPath,
			Namespace:   addressing.Namespace(docPath),
			ContentHash: contentHash(src),
			WordCount:   len(strings.Fields(body)),
			Frontmatter: fm,
		},
		Headings:  headings,
		SlugIndex: make(map[string]int, len(headings)*2),
		Sections:  make(map[string]string, len(headings)*2),
		Content:   body,
	}

	for i, h := range headings {
		snap.SlugIndex[h.Slug] = i
		snap.Sections[h.Slug] = strings.TrimRight(body[bounds[i][0]:bounds[i][1]], " \t\r\n")
	}
	for i, h := range headings {
		if _, taken := snap.SlugIndex[h.Path]; !taken {
			snap.SlugIndex[h.Path] = i
			snap.Sections[h.Path] = snap.Sections[h.Slug]
		}
	}

	snap.Metadata.Title = documentTitle(docPath, fm, headings)
	return snap, nil
}

// contentHash fingerprints a file for change detection. Line endings are
// normalized so a CRLF round trip does not force a reindex.
func contentHash(src []byte) string {
	sum := sha256.Sum256(bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n")))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// scanHeadings walks the top-level goldmark AST and returns the headings
// with the byte range of each section in src.
func scanHeadings(src []byte) ([]Heading, [][2]int) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type stackEntry struct {
		level int
		index int
		path  string
	}

	var (
		headings []Heading
		starts   []int
		stack    []stackEntry
		seen     = map[string]bool{}
		paths    = map[string]bool{}
	)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}

		first := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(src[:first.Start], '\n') + 1
		title := strings.TrimSpace(string(h.Text(src)))

		base := slugpath.Slugify(title)
		if base == "" {
			base = fallbackSlug
		}
		slug := uniqueSlug(base, seen)

		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		hpath := base
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			parent = top.index
			hpath = top.path + slugpath.Separator + base
		}
		if paths[hpath] {
			leaf := slug
			if parent >= 0 {
				hpath = stack[len(stack)-1].path + slugpath.Separator + leaf
			} else {
				hpath = leaf
			}
		}
		paths[hpath] = true

		idx := len(headings)
		headings = append(headings, Heading{
			Index:  idx,
			Level:  h.Level,
			Title:  title,
			Slug:   slug,
			Path:   hpath,
			Parent: parent,
		})
		starts = append(starts, lineStart)
		stack = append(stack, stackEntry{level: h.Level, index: idx, path: hpath})
	}

	bounds := make([][2]int, len(headings))
	for i := range headings {
		end := len(src)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].Level <= headings[i].Level {
				end = starts[j]
				break
			}
		}
		bounds[i] = [2]int{starts[i], end}
	}
	return headings, bounds
}

func uniqueSlug(base string, seen map[string]bool) string {
	if !seen[base] {
		seen[base] = true
		return base
	}
	for n := 1; ; n++ {
		slug := fmt.Sprintf("%s-%d", base, n)
		if !seen[slug] {
			seen[slug] = true
			return slug
		}
	}
}

func documentTitle(docPath string, fm map[string]any, headings []Heading) string {
	if t, ok := fm["title"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	for _, h := range headings {
		if h.Level == 1 {
			return h.Title
		}
	}
	base := path.Base(docPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// splitFrontmatter decodes a leading YAML block fenced by "---" lines and
// returns it with the byte offset where the markdown body starts. The closing
// fence may also be "...". Without a well-formed block it returns nil, 0 and
// the whole source is body.
func splitFrontmatter(src []byte) (map[string]any, int) {
	line, off := nextLine(src, 0)
	if line != "---" {
		return nil, 0
	}
	yamlStart := off
	for off < len(src) {
		fence := off
		line, off = nextLine(src, off)
		if line != "---" && line != "..." {
			continue
		}

		var fm map[string]any
		if err := yaml.Unmarshal(src[yamlStart:fence], &fm); err != nil {
			return nil, 0
		}
		for off < len(src) {
			l, next := nextLine(src, off)
			if l != "" {
				break
			}
			off = next
		}
		return fm, off
	}
	return nil, 0
}

// nextLine returns the line starting at off without its terminator or
// trailing blanks, and the offset of the following line.
func nextLine(src []byte, off int) (string, int) {
	end := len(src)
	next := end
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		end = off + i
		next = end + 1
	}
	return strings.TrimRight(string(src[off:end]), " \t\r"), next
}
