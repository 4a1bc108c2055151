package registry

import (
	"strings"
	"unicode"
)

// Slugify converts a display name into a stable lowercase identifier.
// Runs of non-alphanumeric characters collapse into single underscores:
// "First floor" becomes "first_floor".
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true // suppress a leading underscore
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		slug = "unnamed"
	}
	return slug
}

// NormalizeName produces the uniqueness key for a display name:
// case-folded with all whitespace removed, so "First floor" and
// "FIRSTFLOOR" collide.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
