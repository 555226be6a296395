package normalize

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumberES formats the magnitude of v with "." as thousands separator
// and "," as decimal separator. The sign is dropped; callers place it.
func FormatNumberES(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// IsPercentFormat reports whether a number format code displays a percentage.
func IsPercentFormat(format string) bool {
	return strings.Contains(format, "%")
}

// IsCurrencyFormat reports whether a number format code carries a currency symbol.
func IsCurrencyFormat(format string) bool {
	return strings.ContainsAny(format, "$€¤")
}

func percentDecimals(format string) int {
	f := strings.ToLower(format)
	if strings.Contains(f, "0.0") || strings.Contains(f, "0,0") {
		return 1
	}
	return 0
}

func currencyDecimals(format string) int {
	f := strings.ToLower(format)
	if strings.Contains(f, "0.00") || strings.Contains(f, "0,00") {
		return 2
	}
	return 0
}

// HasTimeComponent reports whether a date format code shows a time of day.
// Quoted literals, bracketed sections and escaped characters are ignored.
func HasTimeComponent(format string) bool {
	for _, r := range formatTokens(format) {
		switch r {
		case 'h', 's':
			return true
		}
	}
	return false
}

// IsDateFormat reports whether a number format code renders a date or time.
func IsDateFormat(format string) bool {
	f := strings.ToLower(format)
	if f == "" || f == "general" || f == "@" {
		return false
	}
	for _, r := range formatTokens(f) {
		switch r {
		case 'y', 'd', 'm', 'h', 's':
			return true
		}
	}
	return false
}

// formatTokens returns the lower-cased format characters that are not part
// of a literal, a [..] section or an escape.
func formatTokens(format string) []rune {
	var out []rune
	inQuote, inBracket, skip := false, false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case skip:
			skip = false
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case inBracket:
			if r == ']' {
				inBracket = false
			}
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\', r == '_', r == '*':
			skip = true
		default:
			out = append(out, r)
		}
	}
	return out
}
