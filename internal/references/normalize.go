package references

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/HendryAvila/docmesh/internal/addressing"
	"github.com/HendryAvila/docmesh/internal/slugpath"
)

// Sentinel errors for reference resolution.
var (
	// ErrEmptyContext is returned when references are normalized without a
	// context document to resolve them against.
	ErrEmptyContext = errors.New("context path is empty")

	// ErrMalformedReference marks a single reference that cannot be resolved.
	ErrMalformedReference = errors.New("malformed reference")

	// ErrInvalidDepth is returned for negative traversal depths.
	ErrInvalidDepth = errors.New("invalid traversal depth")
)

// NormalizedReference is a reference resolved independently of the
// document it appeared in.
type NormalizedReference struct {
	OriginalRef string `json:"original_ref"`
	// ResolvedPath is "{DocumentPath}#{SectionSlug}", or DocumentPath alone.
	ResolvedPath string `json:"resolved_path"`
	// DocumentPath is absolute and carries a file extension.
	DocumentPath string `json:"document_path"`
	SectionSlug  string `json:"section_slug,omitempty"`
}

// HasSection reports whether the reference targets a single section.
func (r NormalizedReference) HasSection() bool {
	return r.SectionSlug != ""
}

// NormalizeReference resolves one raw reference (with or without its
// leading "@") relative to contextPath.
func NormalizeReference(ref, contextPath string) (NormalizedReference, error) {
	if strings.TrimSpace(contextPath) == "" {
		return NormalizedReference{}, ErrEmptyContext
	}
	contextDoc := path.Clean("/" + strings.TrimSpace(contextPath))

	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ref), "@"))
	if body == "" {
		return NormalizedReference{}, fmt.Errorf("%w: %q is empty", ErrMalformedReference, ref)
	}

	docPart, fragment, _ := strings.Cut(body, "#")

	var docPath string
	switch {
	case docPart == "":
		docPath = contextDoc
	case strings.HasPrefix(docPart, "/"):
		docPath = path.Clean(docPart)
	default:
		docPath = path.Join(path.Dir(contextDoc), docPart)
	}
	if docPath == "/" || strings.ContainsAny(docPath, " \t\n") {
		return NormalizedReference{}, fmt.Errorf("%w: %q has no usable document path", ErrMalformedReference, ref)
	}
	if docPart != "" && path.Ext(docPath) == "" {
		docPath += ".md"
	}

	slug := slugpath.SlugifyPath(strings.ReplaceAll(fragment, "#", "-"))
	if strings.Trim(fragment, "/# ") != "" && slug == "" {
		return NormalizedReference{}, fmt.Errorf("%w: %q has an unusable section %q", ErrMalformedReference, ref, fragment)
	}
	if docPart == "" && slug == "" {
		return NormalizedReference{}, fmt.Errorf("%w: %q names neither document nor section", ErrMalformedReference, ref)
	}

	return NormalizedReference{
		OriginalRef:  ref,
		ResolvedPath: addressing.FormatAddress(docPath, slug),
		DocumentPath: docPath,
		SectionSlug:  slug,
	}, nil
}

// NormalizeReferences resolves refs relative to contextPath, preserving
// order. Malformed entries are logged and skipped; only an empty
// contextPath fails the whole batch.
func NormalizeReferences(refs []string, contextPath string, logger *slog.Logger) ([]NormalizedReference, error) {
	if strings.TrimSpace(contextPath) == "" {
		return nil, ErrEmptyContext
	}
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]NormalizedReference, 0, len(refs))
	for _, ref := range refs {
		n, err := NormalizeReference(ref, contextPath)
		if err != nil {
			logger.Warn("skipping malformed reference", "ref", ref, "context", contextPath, "error", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
