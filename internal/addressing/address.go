// Package addressing parses and memoizes document, section and task
// addresses.
//
// Accepted forms:
//
//	/docs/api.md                  document
//	/docs/api.md#auth/jwt-tokens  section in an explicit document
//	#auth/jwt-tokens              section in the context document
//	auth/jwt-tokens               section in the context document
//
// Addresses are values; a Parser hands out copies of what it cached, so a
// returned address can never be changed behind the cache's back.
package addressing

import (
	"path"
	"strings"
)

// RootNamespace is the namespace of documents at the top of the corpus.
const RootNamespace = "root"

// DocumentAddress points at a whole document.
type DocumentAddress struct {
	// Path is absolute ("/...") and carries a file extension.
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
	FullPath  string `json:"full_path"`
	// CacheKey is the raw input the address was parsed from.
	CacheKey string `json:"cache_key"`
}

// SectionAddress points at a section, or a task when IsTask is set.
type SectionAddress struct {
	Document DocumentAddress `json:"document"`
	// Slug is the normalized hierarchical slug.
	Slug     string `json:"slug"`
	FullPath string `json:"full_path"`
	// CacheKey is built from the raw (input, context) pair, before any
	// normalization.
	CacheKey string `json:"cache_key"`
	IsTask   bool   `json:"is_task,omitempty"`
}

// Namespace derives the namespace of a document path from its directory:
// "/api/specs/auth.md" is in "api/specs", "/readme.md" is in "root".
func Namespace(docPath string) string {
	dir := strings.Trim(path.Dir(path.Clean("/"+docPath)), "/")
	if dir == "" || dir == "." {
		return RootNamespace
	}
	return dir
}

// FormatAddress renders the canonical "{document}#{slug}" form.
func FormatAddress(document, slug string) string {
	if slug == "" {
		return document
	}
	return document + "#" + slug
}

func cacheKey(input, contextDocument string) string {
	if contextDocument == "" {
		return input
	}
	return input + "|" + contextDocument
}
