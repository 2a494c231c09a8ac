package references

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/docmesh/internal/document"
)

// DocumentAccessor is the loader's only window onto stored documents.
// GetDocument returns an error wrapping document.ErrNotFound for missing
// documents; GetSectionContent returns one wrapping
// document.ErrSectionNotFound for missing sections.
type DocumentAccessor interface {
	GetDocument(ctx context.Context, docPath string) (*document.Snapshot, error)
	GetSectionContent(ctx context.Context, docPath, slug string) (string, error)
}

// HierarchicalContent is one loaded reference and the references found in
// its own content. Each node belongs to exactly one parent.
type HierarchicalContent struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Depth     int    `json:"depth"`
	Namespace string `json:"namespace"`

	Children []*HierarchicalContent `json:"children"`
}

// Loader expands references into HierarchicalContent trees.
type Loader struct {
	accessor DocumentAccessor
	logger   *slog.Logger
}

// NewLoader creates a Loader reading through accessor.
func NewLoader(accessor DocumentAccessor, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{accessor: accessor, logger: logger}
}

// frame is one pending reference on the traversal stack. visited holds the
// resolved paths on the branch leading to it and is never mutated once the
// frame exists; descending copies it.
type frame struct {
	ref     NormalizedReference
	depth   int
	parent  *HierarchicalContent
	visited map[string]bool
}

// LoadReferences loads refs at currentDepth and, while currentDepth+1 is
// below maxDepth, the references inside each loaded node.
//
// References are processed one at a time in input order. A reference
// whose resolved path already appears on its own branch is a cycle and is
// skipped; the same document reached through two unrelated branches is
// loaded on both. Missing documents, missing sections and accessor
// failures are logged and skipped. Only negative depths are errors.
//
// visited seeds the branch set and may be nil; it is not modified.
func (l *Loader) LoadReferences(
	ctx context.Context,
	refs []NormalizedReference,
	maxDepth, currentDepth int,
	visited map[string]bool,
) ([]*HierarchicalContent, error) {
	if maxDepth < 0 || currentDepth < 0 {
		return nil, fmt.Errorf("%w: maxDepth=%d currentDepth=%d", ErrInvalidDepth, maxDepth, currentDepth)
	}

	roots := make([]*HierarchicalContent, 0, len(refs))
	if currentDepth >= maxDepth || len(refs) == 0 {
		return roots, nil
	}

	seed := make(map[string]bool, len(visited))
	for k, v := range visited {
		if v {
			seed[k] = true
		}
	}

	stack := make([]frame, 0, len(refs))
	stack = pushFrames(stack, refs, currentDepth, nil, seed)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return roots, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := l.resolve(ctx, f)
		if !ok {
			continue
		}
		if f.parent == nil {
			roots = append(roots, node)
		} else {
			f.parent.Children = append(f.parent.Children, node)
		}

		if f.depth+1 >= maxDepth {
			continue
		}
		children := l.childReferences(node.Content, f.ref.DocumentPath)
		if len(children) == 0 {
			continue
		}
		branch := make(map[string]bool, len(f.visited)+1)
		for k := range f.visited {
			branch[k] = true
		}
		branch[f.ref.ResolvedPath] = true
		stack = pushFrames(stack, children, f.depth+1, node, branch)
	}

	return roots, nil
}

// LoadReferencesFromContent extracts and normalizes the references in
// content, then loads them starting at depth 0.
func (l *Loader) LoadReferencesFromContent(
	ctx context.Context,
	content, contextPath string,
	maxDepth int,
) ([]*HierarchicalContent, error) {
	refs, err := NormalizeReferences(ExtractReferences(content), contextPath, l.logger)
	if err != nil {
		return nil, err
	}
	return l.LoadReferences(ctx, refs, maxDepth, 0, nil)
}

// pushFrames pushes refs in reverse so they pop in input order.
func pushFrames(stack []frame, refs []NormalizedReference, depth int, parent *HierarchicalContent, visited map[string]bool) []frame {
	for i := len(refs) - 1; i >= 0; i-- {
		stack = append(stack, frame{ref: refs[i], depth: depth, parent: parent, visited: visited})
	}
	return stack
}

func (l *Loader) childReferences(content, contextPath string) []NormalizedReference {
	raw := ExtractReferences(content)
	if len(raw) == 0 {
		return nil
	}
	refs, err := NormalizeReferences(raw, contextPath, l.logger)
	if err != nil {
		l.logger.Warn("reference load failed", "path", contextPath, "error", err)
		return nil
	}
	return refs
}

// resolve turns one frame into a node, or logs why it cannot.
func (l *Loader) resolve(ctx context.Context, f frame) (*HierarchicalContent, bool) {
	ref := f.ref
	log := l.logger.With("ref", ref.OriginalRef, "path", ref.ResolvedPath, "depth", f.depth)

	if f.visited[ref.ResolvedPath] {
		log.Warn("reference cycle detected")
		return nil, false
	}

	snap, err := l.accessor.GetDocument(ctx, ref.DocumentPath)
	switch {
	case errors.Is(err, document.ErrNotFound) || (err == nil && snap == nil):
		log.Warn("referenced document not found")
		return nil, false
	case err != nil:
		log.Warn("reference load failed", "error", err)
		return nil, false
	}

	node := &HierarchicalContent{
		Path:      ref.ResolvedPath,
		Title:     snap.Metadata.Title,
		Content:   snap.Content,
		Depth:     f.depth,
		Namespace: snap.Metadata.Namespace,
		Children:  []*HierarchicalContent{},
	}
	if !ref.HasSection() {
		return node, true
	}

	heading, ok := snap.ResolveSlug(ref.SectionSlug)
	if !ok {
		log.Warn("referenced section not found", "section", ref.SectionSlug)
		return nil, false
	}
	content, err := l.accessor.GetSectionContent(ctx, ref.DocumentPath, ref.SectionSlug)
	switch {
	case errors.Is(err, document.ErrSectionNotFound):
		log.Warn("referenced section not found", "section", ref.SectionSlug)
		return nil, false
	case errors.Is(err, document.ErrNotFound):
		log.Warn("referenced document not found")
		return nil, false
	case err != nil:
		log.Warn("reference load failed", "section", ref.SectionSlug, "error", err)
		return nil, false
	}

	node.Title = heading.Title
	node.Content = content
	return node, true
}
