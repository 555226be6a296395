// Package policy holds the per-destination-sheet sync rules.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"exportsync/pkg/normalize"
)

// SanitizerKind selects the sanitizer applied to every mapped value.
type SanitizerKind string

const (
	SanitizeIdentity          SanitizerKind = "identity"
	SanitizeStripLeadingQuote SanitizerKind = "strip-leading-quote"
)

// Policy describes how one destination sheet is written. Column indices are
// zero-based and relative to the data columns, which start at sheet column B.
type Policy struct {
	Name      string        `toml:"name"`
	Sanitizer SanitizerKind `toml:"sanitizer"`
	// NumericColumns are coerced to numbers before writing.
	NumericColumns []int `toml:"numeric_columns"`
	// TruncateColumns keep their display string minus the last two characters
	// and skip sanitizing and coercion.
	TruncateColumns []int `toml:"truncate_columns"`
	// PreserveHeader leaves row 1 untouched even when it is empty.
	PreserveHeader bool `toml:"preserve_header"`
	// FormatNumeric applies a "#,##0" number format to NumericColumns.
	FormatNumeric bool `toml:"format_numeric"`
	// AuxClearColumns are sheet column letters cleared from row 2 down before
	// and after each write, so formula spill ranges can expand.
	AuxClearColumns []string `toml:"aux_clear_columns"`
}

// Default is applied to sheets without a registered policy.
func Default(name string) Policy {
	return Policy{Name: name, Sanitizer: SanitizeIdentity}
}

// Builtin returns the policies of the reference deployment.
func Builtin() []Policy {
	return []Policy{
		{
			Name:            "Sheet1",
			Sanitizer:       SanitizeIdentity,
			TruncateColumns: []int{1},
			PreserveHeader:  true,
			AuxClearColumns: []string{"D", "E"},
		},
		{
			Name:           "Sheet2",
			Sanitizer:      SanitizeStripLeadingQuote,
			NumericColumns: []int{1, 2, 3, 5, 7, 9},
			PreserveHeader: true,
			FormatNumeric:  true,
		},
	}
}

// SanitizerFunc returns the sanitizer selected by the policy.
func (p Policy) SanitizerFunc() normalize.Sanitizer {
	if p.Sanitizer == SanitizeStripLeadingQuote {
		return normalize.StripLeadingQuote
	}
	return normalize.Identity
}

func (p Policy) IsNumeric(dataCol int) bool {
	return containsInt(p.NumericColumns, dataCol)
}

func (p Policy) IsTruncated(dataCol int) bool {
	return containsInt(p.TruncateColumns, dataCol)
}

// NumericSheetColumns returns the zero-based sheet columns of NumericColumns.
func (p Policy) NumericSheetColumns() []int {
	cols := make([]int, 0, len(p.NumericColumns))
	for _, c := range p.NumericColumns {
		cols = append(cols, c+1)
	}
	sort.Ints(cols)
	return cols
}

// Validate checks column indices, column letters and the sanitizer name.
func (p Policy) Validate() error {
	var errs []string
	if Key(p.Name) == "" {
		errs = append(errs, "name is required")
	}
	switch p.Sanitizer {
	case "", SanitizeIdentity, SanitizeStripLeadingQuote:
	default:
		errs = append(errs, fmt.Sprintf("unknown sanitizer %q", p.Sanitizer))
	}
	for _, c := range append(append([]int(nil), p.NumericColumns...), p.TruncateColumns...) {
		if c < 0 {
			errs = append(errs, fmt.Sprintf("negative column index %d", c))
		}
	}
	for _, l := range p.AuxClearColumns {
		if !isColumnLetters(l) {
			errs = append(errs, fmt.Sprintf("invalid column letter %q", l))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("policy %q: %s", p.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Key is the registry key for a sheet name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func isColumnLetters(s string) bool {
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
