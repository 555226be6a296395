package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Spreadsheet is an opened remote spreadsheet.
type Spreadsheet interface {
	// Worksheet returns the named worksheet, creating it with the given
	// capacity when it does not exist.
	Worksheet(ctx context.Context, title string, rows, cols int) (Worksheet, error)
	// BatchFormat applies number formats in a single request.
	BatchFormat(ctx context.Context, reqs []FormatRequest) error
}

// Worksheet is a single tab of a Spreadsheet. Ranges are A1 notation without
// the sheet name, e.g. "2:500" or "D2:D500".
type Worksheet interface {
	Title() string
	SheetID() int64
	// RowCount is the grid row count when the worksheet was opened, 0 if unknown.
	RowCount() int
	HeaderRow(ctx context.Context) ([]string, error)
	BatchClear(ctx context.Context, ranges []string) error
	Update(ctx context.Context, startCell string, rows [][]interface{}) error
}

// FormatRequest sets the number format of one column over a row span.
// Indices are zero-based; EndRow is exclusive.
type FormatRequest struct {
	SheetID  int64
	Column   int
	StartRow int
	EndRow   int
	Pattern  string
}


// RowsRange is the A1 range covering whole rows from..to.
func RowsRange(from, to int) string {
	return fmt.Sprintf("%d:%d", from, to)
}

// ColumnRange is the A1 range of one column from..to.
func ColumnRange(letter string, from, to int) string {
	l := strings.ToUpper(letter)
	return fmt.Sprintf("%s%d:%s%d", l, from, l, to)
}

// qualify prefixes an A1 range with a quoted sheet title.
func qualify(title, rng string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + rng
}
