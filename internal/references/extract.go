// Package references finds @references in document content, resolves
// them against a context document and loads the referenced content into a
// depth-bounded tree.
//
// Reference syntax:
//
//	@/guides/setup.md           whole document, absolute
//	@/guides/setup.md#install   section of a document
//	@#install                   section of the context document
//	@setup.md, @guides/setup    document relative to the context directory
//
// Broken references never fail a traversal: they are logged and skipped.
package references

import (
	"strings"
)

// ExtractReferences scans content for @references and returns them in
// order of first appearance, without duplicates. Each result keeps its
// leading "@". Trailing sentence punctuation is not part of a reference,
// markdown link wrapping such as "[text](@/a.md)" is ignored, and so are
// a bare "@", "@@", e-mail addresses and mentions like "@alice".
func ExtractReferences(content string) []string {
	refs := make([]string, 0)
	seen := make(map[string]bool)

	for i := 0; i < len(content); i++ {
		if content[i] != '@' {
			continue
		}
		if i > 0 && !opensReference(content[i-1]) {
			continue
		}
		if i+1 < len(content) && content[i+1] == '@' {
			for i+1 < len(content) && content[i+1] == '@' {
				i++
			}
			continue
		}

		end := i + 1
		for end < len(content) && !terminatesReference(content[end]) {
			end++
		}
		token := strings.TrimRight(content[i+1:end], ".:!?")
		i = end - 1

		ref, ok := classify(token)
		if !ok || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// classify decides whether token (the text after "@") is a reference and
// returns it in canonical "@..." form.
func classify(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	doc, section, hasSection := strings.Cut(token, "#")
	section = strings.Trim(section, "#/")
	if hasSection && section == "" {
		// "@/a.md#" means the whole document; "@#" means nothing.
		hasSection = false
		token = doc
	}

	switch {
	case doc == "":
		if !hasSection || !hasAlnum(section) {
			return "", false
		}
	case doc[0] == '/':
		if !hasAlnum(doc) {
			return "", false
		}
	case isAlnum(doc[0]) || doc[0] == '.':
		if !hasAlnum(doc) {
			return "", false
		}
		// Bare words after "@" are mentions, not paths.
		looksLikePath := strings.Contains(doc, "/") ||
			strings.HasSuffix(strings.ToLower(doc), ".md") ||
			hasSection
		if !looksLikePath {
			return "", false
		}
	default:
		return "", false
	}
	return "@" + token, true
}

// opensReference reports whether b may directly precede a reference.
func opensReference(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', '[', '{', '<', '"', '\'', '`', '*', '_', '~', '>', ',', ';', ':':
		return true
	}
	return false
}

// terminatesReference reports whether b ends a reference token.
func terminatesReference(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v',
		'(', ')', '[', ']', '{', '}', '<', '>',
		'"', '\'', '`', '|', ',', ';', '@', '*':
		return true
	}
	return false
}

func isAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func hasAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		if isAlnum(s[i]) {
			return true
		}
	}
	return false
}
