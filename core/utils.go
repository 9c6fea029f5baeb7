package core

import (
	"regexp"
	"strings"
)

var keyJunkRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizeKey turns a human name into a filesystem-safe key:
// lowercased, spaces to underscores, anything else non [a-z0-9_-] stripped.
func NormalizeKey(name string) string {
	key := CleanString(name, true /* lower */)
	key = strings.Join(strings.Fields(key), "_")
	return keyJunkRegex.ReplaceAllString(key, "")
}
