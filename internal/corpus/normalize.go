package corpus

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize prepares raw query text for analysis:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Strip punctuation (kept: letters, digits, spaces, apostrophes inside words)
// 4. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'':
			// keep contractions ("what's") intact
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// punctuation becomes a space so "sleep,focus" splits cleanly
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits normalized text into tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// FormatTimestamp renders seconds as a human-readable time label:
// "m:ss" under an hour, "h:mm:ss" above.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
