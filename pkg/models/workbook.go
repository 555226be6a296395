package models

import (
	"bytes"
	"encoding/json"
)

// Workbook maps sheet names to their records, preserving the source sheet order.
// It is built once per extraction and read-only afterwards.
type Workbook struct {
	// BookName is the source file name (no path).
	BookName string
	names    []string
	sheets   map[string][]*Record
}

func NewWorkbook(bookName string) *Workbook {
	return &Workbook{BookName: bookName, sheets: make(map[string][]*Record)}
}

// AddSheet appends a sheet. Adding an existing name replaces its records.
func (w *Workbook) AddSheet(name string, records []*Record) {
	if w.sheets == nil {
		w.sheets = make(map[string][]*Record)
	}
	if _, ok := w.sheets[name]; !ok {
		w.names = append(w.names, name)
	}
	if records == nil {
		records = []*Record{}
	}
	w.sheets[name] = records
}

// SheetNames returns sheet names in source order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

func (w *Workbook) Records(name string) []*Record {
	return w.sheets[name]
}

// First returns the first sheet, or ok=false for an empty workbook.
func (w *Workbook) First() (name string, records []*Record, ok bool) {
	if len(w.names) == 0 {
		return "", nil, false
	}
	return w.names[0], w.sheets[w.names[0]], true
}

// RowCount is the total number of records across all sheets.
func (w *Workbook) RowCount() int {
	n := 0
	for _, recs := range w.sheets {
		n += len(recs)
	}
	return n
}

// MarshalJSON writes {sheetName: [record, ...], ...} in sheet order.
func (w *Workbook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range w.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteString(":[")
		for j, rec := range w.sheets[name] {
			if j > 0 {
				buf.WriteByte(',')
			}
			b, err := rec.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (w *Workbook) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	w.names = nil
	w.sheets = make(map[string][]*Record)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var records []*Record
		if err := dec.Decode(&records); err != nil {
			return err
		}
		w.AddSheet(name, records)
	}
	_, err := dec.Token()
	return err
}
