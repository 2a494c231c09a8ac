// Package slugpath implements the algebra of hierarchical slugs.
//
// A hierarchical slug is a "/"-joined sequence of heading slugs such as
// "api/authentication/jwt-tokens". It addresses a nested section
// independently of the markdown heading depth that produced it.
//
// Every function here is pure: no I/O, no shared state.
package slugpath

import (
	"fmt"
	"regexp"
	"strings"
)

// Separator joins the components of a hierarchical slug.
const Separator = "/"

// MaxDepth is the deepest hierarchical slug Validate accepts.
const MaxDepth = 10

var componentPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// HierarchicalSlug is the decomposed form of a slug path.
type HierarchicalSlug struct {
	Full   string   `json:"full"`
	Parts  []string `json:"parts"`
	Depth  int      `json:"depth"`
	Parent string   `json:"parent,omitempty"`
}

// HasParent reports whether the slug has a parent, i.e. Depth > 1.
func (h HierarchicalSlug) HasParent() bool {
	return h.Depth > 1
}

// Parse decomposes path into a HierarchicalSlug. Full is always the
// normalized form, so Full == Join(Parts) and Depth == len(Parts).
func Parse(path string) HierarchicalSlug {
	parts := Split(path)
	h := HierarchicalSlug{
		Full:  Join(parts),
		Parts: parts,
		Depth: len(parts),
	}
	if p, ok := Parent(path); ok {
		h.Parent = p
	}
	return h
}

// Split returns the non-empty components of path. Leading, trailing and
// repeated separators are dropped.
func Split(path string) []string {
	if path == "" {
		return []string{}
	}
	raw := strings.Split(path, Separator)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Join concatenates parts with the separator, skipping empty and
// whitespace-only entries.
func Join(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, Separator)
}

// Normalize collapses repeated separators and strips leading and trailing
// ones: "api//auth///jwt/" becomes "api/auth/jwt".
func Normalize(path string) string {
	return Join(Split(path))
}

// Depth returns the number of components in path.
func Depth(path string) int {
	return len(Split(path))
}

// Parent returns path without its last component. ok is false when path
// has fewer than two components.
func Parent(path string) (parent string, ok bool) {
	parts := Split(path)
	if len(parts) <= 1 {
		return "", false
	}
	return Join(parts[:len(parts)-1]), true
}

// Leaf returns the last component of path. Paths with at most one
// component are returned unchanged.
func Leaf(path string) string {
	parts := Split(path)
	if len(parts) <= 1 {
		return path
	}
	return parts[len(parts)-1]
}

// IsAncestor reports whether descendant strictly extends ancestor by at
// least one component. The empty path is an ancestor of every non-empty
// path; no path is its own ancestor.
func IsAncestor(ancestor, descendant string) bool {
	a := Split(ancestor)
	d := Split(descendant)
	if len(d) <= len(a) {
		return false
	}
	return hasPrefix(d, a)
}

// IsDirectChild reports whether child extends parent by exactly one component.
func IsDirectChild(parent, child string) bool {
	p := Split(parent)
	c := Split(child)
	if len(c) != len(p)+1 {
		return false
	}
	return hasPrefix(c, p)
}

// Descendants filters all down to the slugs that descend from root,
// preserving input order.
func Descendants(root string, all []string) []string {
	out := make([]string, 0)
	for _, s := range all {
		if IsAncestor(root, s) {
			out = append(out, s)
		}
	}
	return out
}

// DirectChildren filters all down to the immediate children of root,
// preserving input order.
func DirectChildren(root string, all []string) []string {
	out := make([]string, 0)
	for _, s := range all {
		if IsDirectChild(root, s) {
			out = append(out, s)
		}
	}
	return out
}

// RelativePath returns the "../"-style traversal leading from one slug to
// another through their longest common prefix. Identical slugs yield ".".
//
//	RelativePath("api/auth/jwt", "api/users") == "../../users"
//	RelativePath("api", "api/auth")           == "auth"
func RelativePath(from, to string) string {
	f := Split(from)
	t := Split(to)

	common := 0
	for common < len(f) && common < len(t) && f[common] == t[common] {
		common++
	}
	if common == len(f) && common == len(t) {
		return "."
	}

	steps := make([]string, 0, len(f)-common+len(t)-common)
	for i := common; i < len(f); i++ {
		steps = append(steps, "..")
	}
	steps = append(steps, t[common:]...)
	return strings.Join(steps, Separator)
}

// ValidationError describes why Validate rejected a path.
type ValidationError struct {
	Reason    string
	Path      string
	Component string
	Depth     int
}

func (e *ValidationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("invalid slug path %q: %s (component %q)", e.Path, e.Reason, e.Component)
	}
	return fmt.Sprintf("invalid slug path %q: %s", e.Path, e.Reason)
}

// Validate checks that path is a well-formed hierarchical slug and returns
// its normalized form. Every component must be lowercase alphanumeric
// words joined by single hyphens, and the depth may not exceed MaxDepth.
func Validate(path string) (string, error) {
	parts := Split(path)
	if len(parts) == 0 {
		return "", &ValidationError{Reason: "slug path is empty", Path: path}
	}
	if len(parts) > MaxDepth {
		return "", &ValidationError{
			Reason: fmt.Sprintf("depth %d exceeds maximum of %d", len(parts), MaxDepth),
			Path:   path,
			Depth:  len(parts),
		}
	}
	for _, p := range parts {
		if !componentPattern.MatchString(p) {
			return "", &ValidationError{
				Reason:    "component must match " + componentPattern.String(),
				Path:      path,
				Component: p,
				Depth:     len(parts),
			}
		}
	}
	return Join(parts), nil
}

func hasPrefix(parts, prefix []string) bool {
	for i := range prefix {
		if parts[i] != prefix[i] {
			return false
		}
	}
	return true
}
