package textutil

import (
	"strings"
	"unicode/utf8"
)

// ContainsAny reports whether any non-empty keyword is a substring of text. Matching is exact,
// case and width sensitive.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Truncate shortens text to at most max runes, marking the cut with an ellipsis.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "…"
}

// SingleLine collapses line breaks so text fits in one table cell or list item.
func SingleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
