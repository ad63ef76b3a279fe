package utils

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizePolicy = bluemonday.StrictPolicy()

// SanitizeString strips markup and control characters from free-text client
// input and trims it to max runes. A max of zero leaves the length unbounded.
// Newlines and tabs survive so multi-line answers keep their shape.
func SanitizeString(input string, max int) string {
	cleaned := strings.TrimSpace(sanitizePolicy.Sanitize(input))
	cleaned = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, cleaned)
	if max > 0 {
		runes := []rune(cleaned)
		if len(runes) > max {
			cleaned = string(runes[:max])
		}
	}
	return cleaned
}
