package lyrics

import (
	"strings"
	"unicode"
)

const trailer = "you might also like"

// Clean drops scraped page furniture from lyrics text: a header line ending
// in "Lyrics", a trailing "You might also like" block and lines that are
// only digits.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if first, rest, ok := strings.Cut(text, "\n"); ok && strings.HasSuffix(strings.TrimSpace(first), "Lyrics") {
		text = rest
	}
	if i := strings.LastIndex(strings.ToLower(text), trailer); i >= 0 {
		text = text[:i]
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNumeric(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
