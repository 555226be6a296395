package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitizer adjusts a display value before it is written to a destination sheet.
type Sanitizer func(string) string

// quoteRunes force text mode in spreadsheets when they lead a value.
const quoteRunes = "'’‘`"

// Identity returns v unchanged.
func Identity(v string) string {
	return v
}

// StripLeadingQuote removes leading whitespace and any leading quote
// characters (', ’, ‘, `).
func StripLeadingQuote(v string) string {
	return trimLeadingQuotes(strings.TrimLeft(v, " \t\r\n"))
}

// TruncateDisplay keeps the formatted display string but drops its last two
// characters, e.g. "407.918.004" becomes "407.918.0". Values of two characters
// or fewer become empty.
func TruncateDisplay(v string) string {
	s := trimLeadingQuotes(strings.TrimSpace(v))
	r := []rune(s)
	if len(r) <= 2 {
		return ""
	}
	return strings.TrimRight(string(r[:len(r)-2]), " \t\r\n")
}

func trimLeadingQuotes(s string) string {
	for s != "" {
		r, size := utf8.DecodeRuneInString(s)
		if !strings.ContainsRune(quoteRunes, r) {
			break
		}
		s = strings.TrimLeft(s[size:], " \t\r\n")
	}
	return s
}
