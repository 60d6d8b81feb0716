// Package utils provides common utility functions.
package utils

import "strings"

// NormalizeWhitespace replaces runs of whitespace with a single space and trims the ends.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateRunes truncates str to at most maxRunes runes, appending "..." when cut.
func TruncateRunes(str string, maxRunes int) string {
	runes := []rune(str)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return str
	}

	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}

	return string(runes[:maxRunes-3]) + "..."
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
