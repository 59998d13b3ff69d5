package utils

import "strings"

const ellipsis = "..."

// TruncateForLog flattens s onto one line and cuts it to limit runes.
// Runs of whitespace, newlines included, become a single space.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(s), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + ellipsis
}
