// Package normalize converts extracted cells into canonical display values
// and coerces display values back into numbers for numeric columns.
//
// Display values use Spanish number conventions: "." groups thousands and
// "," separates decimals. Nothing in this package returns an error; bad
// input degrades to a best-effort string.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"exportsync/pkg/models"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

var nonDigitOrMinus = regexp.MustCompile(`[^0-9\-]`)

// Normalize returns the canonical display value of a cell.
func Normalize(c models.Cell) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fallback(c)
		}
	}()

	switch c.Kind {
	case models.KindEmpty:
		return ""
	case models.KindDate:
		if c.Time.IsZero() {
			return ""
		}
		if HasTimeComponent(c.Format) {
			return c.Time.Format(dateTimeLayout)
		}
		return c.Time.Format(dateLayout)
	case models.KindNumber:
		return normalizeNumber(c.Number, c.Format)
	case models.KindBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return c.Text
	}
}

func normalizeNumber(v float64, format string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	if IsPercentFormat(format) {
		perc := v * 100
		s := FormatNumberES(perc, percentDecimals(format))
		if perc < 0 {
			return "-" + s + "%"
		}
		return s + "%"
	}

	if IsCurrencyFormat(format) {
		s := FormatNumberES(v, currencyDecimals(format))
		if v < 0 {
			s = "-" + s
		}
		// Only the numeral survives: symbols and separators are discarded.
		return nonDigitOrMinus.ReplaceAllString(s, "")
	}

	sign := ""
	if v < 0 {
		sign = "-"
	}
	if r := math.Round(v); math.Abs(v-r) < 0.005 {
		if r == 0 {
			sign = ""
		}
		return sign + FormatNumberES(r, 0)
	}
	return sign + FormatNumberES(v, 2)
}

func fallback(c models.Cell) string {
	switch c.Kind {
	case models.KindEmpty:
		return ""
	case models.KindNumber:
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case models.KindDate:
		return c.Time.String()
	case models.KindBool:
		return strconv.FormatBool(c.Bool)
	default:
		return fmt.Sprint(c.Text)
	}
}
