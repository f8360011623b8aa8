package util

import (
	"errors"
	"strings"
)

// reservedNameChars are characters stripped from synthesized display names.
const reservedNameChars = `/\?%*:|"<>`

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeDisplayName strips reserved characters and collapses whitespace
// runs to a single underscore. Used when the pipeline synthesizes a new
// display name for a document.
func SanitizeDisplayName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(reservedNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), "_")
}
