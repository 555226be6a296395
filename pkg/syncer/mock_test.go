package syncer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"exportsync/pkg/sheets"
)

// mockSpreadsheet keeps worksheets as in-memory grids and records every call.
type mockSpreadsheet struct {
	sheets  map[string]*mockWorksheet
	nextID  int64
	formats [][]sheets.FormatRequest
	calls   []string
	created []string
	fail    map[string]error
}

func newMockSpreadsheet() *mockSpreadsheet {
	return &mockSpreadsheet{sheets: make(map[string]*mockWorksheet), nextID: 100, fail: make(map[string]error)}
}

// add registers an existing worksheet with rowCount grid rows.
func (m *mockSpreadsheet) add(title string, rowCount int) *mockWorksheet {
	m.nextID++
	ws := &mockWorksheet{parent: m, title: title, id: m.nextID, rows: rowCount, cells: make(map[cellRef]interface{})}
	m.sheets[title] = ws
	return ws
}

func (m *mockSpreadsheet) Worksheet(ctx context.Context, title string, rows, cols int) (sheets.Worksheet, error) {
	m.calls = append(m.calls, "worksheet "+title)
	if err := m.fail["worksheet "+title]; err != nil {
		return nil, err
	}
	if ws, ok := m.sheets[title]; ok {
		return ws, nil
	}
	m.created = append(m.created, fmt.Sprintf("%s %dx%d", title, rows, cols))
	return m.add(title, rows), nil
}

func (m *mockSpreadsheet) BatchFormat(ctx context.Context, reqs []sheets.FormatRequest) error {
	m.calls = append(m.calls, "format")
	m.formats = append(m.formats, reqs)
	return m.fail["format"]
}

type cellRef struct {
	row, col int
}

type mockWorksheet struct {
	parent *mockSpreadsheet
	title  string
	id     int64
	rows   int
	cells  map[cellRef]interface{}
}

func (w *mockWorksheet) Title() string  { return w.title }
func (w *mockWorksheet) SheetID() int64 { return w.id }
func (w *mockWorksheet) RowCount() int  { return w.rows }

func (w *mockWorksheet) HeaderRow(ctx context.Context) ([]string, error) {
	w.parent.calls = append(w.parent.calls, "header "+w.title)
	if err := w.parent.fail["header "+w.title]; err != nil {
		return nil, err
	}
	var out []string
	for _, v := range w.row(1) {
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}

func (w *mockWorksheet) BatchClear(ctx context.Context, ranges []string) error {
	w.parent.calls = append(w.parent.calls, "clear "+w.title+" "+strings.Join(ranges, ","))
	if err := w.parent.fail["clear "+w.title]; err != nil {
		return err
	}
	for _, rng := range ranges {
		r0, c0, r1, c1 := parseRange(rng)
		for ref := range w.cells {
			if ref.row >= r0 && ref.row <= r1 && ref.col >= c0 && ref.col <= c1 {
				delete(w.cells, ref)
			}
		}
	}
	return nil
}

func (w *mockWorksheet) Update(ctx context.Context, startCell string, rows [][]interface{}) error {
	w.parent.calls = append(w.parent.calls, "update "+w.title+" "+startCell)
	if err := w.parent.fail["update "+w.title+" "+startCell]; err != nil {
		return err
	}
	r0, c0, _, _ := parseRange(startCell + ":" + startCell)
	for i, row := range rows {
		for j, v := range row {
			ref := cellRef{r0 + i, c0 + j}
			if v == "" {
				delete(w.cells, ref)
				continue
			}
			w.cells[ref] = v
		}
	}
	if last := r0 + len(rows) - 1; last > w.rows {
		w.rows = last
	}
	return nil
}

// row returns the values of one row with trailing blanks trimmed.
func (w *mockWorksheet) row(n int) []interface{} {
	maxCol := 0
	for ref := range w.cells {
		if ref.row == n && ref.col > maxCol {
			maxCol = ref.col
		}
	}
	out := make([]interface{}, maxCol)
	for c := 1; c <= maxCol; c++ {
		v, ok := w.cells[cellRef{n, c}]
		if !ok {
			v = ""
		}
		out[c-1] = v
	}
	return out
}

// dataRows returns rows 2 through the last non-empty row.
func (w *mockWorksheet) dataRows() [][]interface{} {
	last := 1
	for ref := range w.cells {
		if ref.row > last {
			last = ref.row
		}
	}
	var out [][]interface{}
	for r := 2; r <= last; r++ {
		out = append(out, w.row(r))
	}
	return out
}

// fill writes n data rows of placeholder text starting at row 2.
func (w *mockWorksheet) fill(n, cols int) {
	for r := 2; r < n+2; r++ {
		for c := 1; c <= cols; c++ {
			w.cells[cellRef{r, c}] = fmt.Sprintf("old-%d-%d", r, c)
		}
	}
}

func (w *mockWorksheet) setHeader(headers ...string) {
	for i, h := range headers {
		w.cells[cellRef{1, i + 1}] = h
	}
}

var rangePattern = regexp.MustCompile(`^([A-Z]*)(\d+):([A-Z]*)(\d+)$`)

// parseRange turns "2:500", "D2:D500" or "A2:A2" into 1-based bounds.
// Whole-row ranges span every column.
func parseRange(rng string) (r0, c0, r1, c1 int) {
	m := rangePattern.FindStringSubmatch(rng)
	if m == nil {
		panic("bad range " + rng)
	}
	r0, _ = strconv.Atoi(m[2])
	r1, _ = strconv.Atoi(m[4])
	c0, c1 = 1, 1<<20
	if m[1] != "" {
		c0 = columnNumber(m[1])
	}
	if m[3] != "" {
		c1 = columnNumber(m[3])
	}
	return r0, c0, r1, c1
}

func columnNumber(letters string) int {
	n := 0
	for _, r := range letters {
		n = n*26 + int(r-'A') + 1
	}
	return n
}
