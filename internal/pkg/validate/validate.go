package validate

import (
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxRunes reports whether value fits in limit characters.
func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

// Text trims value and checks it is non-empty and at most limit characters.
func Text(value string, limit int) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || !MaxRunes(trimmed, limit) {
		return trimmed, false
	}
	return trimmed, true
}
