package utils

import (
	"path"
	"regexp"
	"strings"
)

var (
	unsafeChars    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	dotRuns        = regexp.MustCompile(`\.{2,}`)
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeFilename reduces a filename to a safe single path segment before
// it is used inside a storage key. Directory components and parent
// references are stripped, never preserved, so attachment names cannot
// steer where the object lands.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.Trim(name, ".")
	if name == "" {
		return "audio"
	}
	return name
}

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
