package speech

import "strings"

const (
	tamilBlockStart = '\u0B80'
	tamilBlockEnd   = '\u0BFF'
)

// IsTargetScript reports whether text contains at least one Tamil code point.
func IsTargetScript(text string) bool {
	for _, r := range text {
		if r >= tamilBlockStart && r <= tamilBlockEnd {
			return true
		}
	}
	return false
}

// isBlank reports whether text is empty or whitespace only.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
