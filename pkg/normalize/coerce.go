package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	decimalPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	nonDecimal     = regexp.MustCompile(`[^0-9.\-]`)
)

// CoerceNumeric turns a display string into an int64 or float64 when it
// reads as a number, otherwise it returns the cleaned string.
//
// The decimal separator is whichever of "." and "," appears rightmost; when
// only one of them appears, a comma is decimal and a dot groups thousands.
// Floats within 1e-9 of an integer collapse to that integer.
//
// The integer reading is only tried when no decimal separator is present,
// so "12,3%" becomes 12.3 rather than the digits-only 123. This keeps
// CoerceNumeric(Normalize(x)) equal to x rounded to two decimals.
func CoerceNumeric(v string) interface{} {
	s := trimLeadingQuotes(strings.TrimSpace(v))
	if s == "" {
		return ""
	}

	if decimalSeparator(s) == 0 {
		if n, ok := tryInt(s); ok {
			return n
		}
	}
	if f, ok := tryFloat(s); ok {
		if r := math.Round(f); math.Abs(f-r) < 1e-9 && math.Abs(r) < math.MaxInt64 {
			return int64(r)
		}
		return f
	}
	return s
}

// decimalSeparator returns the byte acting as decimal separator in s, or 0
// when the number has no fractional part.
func decimalSeparator(s string) byte {
	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return ','
		}
		return '.'
	case comma >= 0:
		return ','
	default:
		return 0
	}
}

func tryInt(s string) (int64, bool) {
	cleaned := nonDigitOrMinus.ReplaceAllString(s, "")
	if cleaned == "" || !integerPattern.MatchString(cleaned) {
		return 0, false
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func tryFloat(s string) (float64, bool) {
	t := strings.ReplaceAll(s, " ", "")
	switch decimalSeparator(t) {
	case ',':
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case '.':
		t = strings.ReplaceAll(t, ",", "")
	default:
		// A lone dot groups thousands.
		t = strings.ReplaceAll(t, ".", "")
	}
	t = nonDecimal.ReplaceAllString(t, "")
	if !decimalPattern.MatchString(t) {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
