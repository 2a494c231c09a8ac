package slugpath

import "strings"

// Slugify turns heading text into a slug component: lowercase ASCII words
// joined by single hyphens. Apostrophes are dropped so "Don't Panic"
// becomes "dont-panic"; every other run of non-alphanumerics becomes a
// hyphen. The result matches the component pattern used by Validate, or is
// empty when text has no alphanumerics.
func Slugify(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			pendingHyphen = true
		}
	}
	return sb.String()
}

// SlugifyPath slugifies every component of a hierarchical path and joins
// the non-empty results.
func SlugifyPath(path string) string {
	parts := Split(path)
	for i, p := range parts {
		parts[i] = Slugify(p)
	}
	return Join(parts)
}
