// Package mapper aligns source record keys with the header row of a
// destination sheet.
package mapper

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultDateHeader names the leading date column when a sheet has none.
const DefaultDateHeader = "fecha"

var (
	whitespace  = regexp.MustCompile(`\s+`)
	nonAlnum    = regexp.MustCompile(`[^0-9a-z]`)
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Binding pairs a destination header with the source key feeding it.
// Key is empty when nothing matched; such columns render as empty cells.
type Binding struct {
	Header string
	Key    string
}

func (b Binding) Bound() bool {
	return b.Key != ""
}

// Normalize collapses runs of whitespace, trims and lower-cases s.
func Normalize(s string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// simplify keeps only ASCII letters and digits of a normalized header;
// accented letters are folded to their base letter first.
func simplify(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	return nonAlnum.ReplaceAllString(folded, "")
}

// MapColumns binds every destination header to a source key. For each
// header the first rule that hits wins:
//
//  1. equal after Normalize
//  2. equal after also dropping every non-alphanumeric character
//  3. either normalized form contains the other
//
// Candidates are tried in source key order.
func MapColumns(headers, keys []string) []Binding {
	type candidate struct {
		key, norm, simple string
	}
	candidates := make([]candidate, 0, len(keys))
	exact := make(map[string]string, len(keys))
	for _, k := range keys {
		n := Normalize(k)
		if n == "" {
			continue
		}
		if _, ok := exact[n]; !ok {
			exact[n] = k
			candidates = append(candidates, candidate{key: k, norm: n, simple: simplify(n)})
		}
	}

	out := make([]Binding, len(headers))
	for i, h := range headers {
		out[i] = Binding{Header: h}
		nh := Normalize(h)
		if nh == "" {
			continue
		}
		if k, ok := exact[nh]; ok {
			out[i].Key = k
			continue
		}
		if sh := simplify(nh); sh != "" {
			for _, c := range candidates {
				if c.simple == sh {
					out[i].Key = c.key
					break
				}
			}
			if out[i].Bound() {
				continue
			}
		}
		for _, c := range candidates {
			if strings.Contains(c.norm, nh) || strings.Contains(nh, c.norm) {
				out[i].Key = c.key
				break
			}
		}
	}
	return out
}

// IsDateHeader reports whether a destination header names the leading date column.
func IsDateHeader(h string) bool {
	n := Normalize(h)
	return strings.Contains(n, "fecha") || strings.Contains(n, "date")
}

// SplitDateHeader separates the leading date column from the data headers.
// When the first header is not a date column, DefaultDateHeader is used and
// every header is a data header.
func SplitDateHeader(headers []string) (dateHeader string, data []string) {
	if len(headers) > 0 && IsDateHeader(headers[0]) {
		return headers[0], append([]string(nil), headers[1:]...)
	}
	return DefaultDateHeader, append([]string(nil), headers...)
}

// DateKey returns the first source key that looks like a per-row date
// ("fecha", "date" or "dia", accents ignored).
func DateKey(keys []string) (string, bool) {
	for _, k := range keys {
		n, _, err := transform.String(foldAccents, Normalize(k))
		if err != nil {
			n = Normalize(k)
		}
		if strings.Contains(n, "fecha") || strings.Contains(n, "date") || strings.Contains(n, "dia") {
			return k, true
		}
	}
	return "", false
}
