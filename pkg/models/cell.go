// Package models defines the data carried between extraction and sync.
package models

import "time"

// Kind tags the variant held by a Cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindString
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "empty"
	}
}

// Cell is a raw value read from a source workbook together with the
// number format it was displayed with. Cells are not modified after extraction.
type Cell struct {
	Kind   Kind
	Number float64
	Text   string
	Time   time.Time
	Bool   bool
	// Format is the display format code, e.g. "0.0%" or `"$"#,##0.00`.
	Format string
}

func EmptyCell() Cell {
	return Cell{Kind: KindEmpty}
}

func NumberCell(v float64, format string) Cell {
	return Cell{Kind: KindNumber, Number: v, Format: format}
}

func StringCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	return Cell{Kind: KindString, Text: s}
}

func DateCell(t time.Time, format string) Cell {
	return Cell{Kind: KindDate, Time: t, Format: format}
}

func BoolCell(b bool) Cell {
	return Cell{Kind: KindBool, Bool: b}
}
