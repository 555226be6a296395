// Package syncer writes extracted records into destination worksheets.
//
// A sync run owns the data region (row 2 downward) of every worksheet it
// touches: the region is cleared and rewritten, so repeating a run with the
// same input converges to the same state. Row 1 is never rewritten once it
// holds a header.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"exportsync/pkg/mapper"
	"exportsync/pkg/models"
	"exportsync/pkg/normalize"
	"exportsync/pkg/policy"
	"exportsync/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

const (
	// TimestampLayout renders the run time in the leading date column.
	TimestampLayout = "2006-01-02 15:04:05"

	// NumberPattern is the plain grouped format applied to numeric columns.
	NumberPattern = "#,##0"

	// maxTitleLen is the longest worksheet title the service accepts.
	maxTitleLen = 100

	fallbackRows   = 1000
	minCreateRows  = 100
	minCreateCols  = 20
	formatRowLimit = 1000
)

// Options control one Sync call.
type Options struct {
	// Target, when set, receives the first source sheet and nothing else.
	Target string
	// Clear empties the data region before writing.
	Clear bool
	// RunID is attached to log entries.
	RunID string
}

// Engine syncs workbooks into a spreadsheet following per-sheet policies.
type Engine struct {
	spreadsheet sheets.Spreadsheet
	policies    *policy.Registry
	now         func() time.Time
}

// NewEngine returns an Engine writing to ss. A nil registry means the
// built-in policies.
func NewEngine(ss sheets.Spreadsheet, policies *policy.Registry) *Engine {
	if policies == nil {
		policies = policy.NewBuiltinRegistry()
	}
	return &Engine{spreadsheet: ss, policies: policies, now: time.Now}
}

// Sync writes every sheet of wb to the worksheet of the same name, or only
// the first sheet to opts.Target. A failing sheet is logged and recorded in
// the report; the remaining sheets are still processed.
func (e *Engine) Sync(ctx context.Context, wb *models.Workbook, opts Options) Report {
	runTime := e.now()

	type job struct {
		source, dest string
	}
	var jobs []job
	if opts.Target != "" {
		if name, _, ok := wb.First(); ok {
			jobs = append(jobs, job{source: name, dest: opts.Target})
		}
	} else {
		for _, name := range wb.SheetNames() {
			jobs = append(jobs, job{source: name, dest: name})
		}
	}

	report := Report{RunTime: runTime}
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			for _, rest := range jobs[i:] {
				report.Results = append(report.Results, SheetResult{Source: rest.source, Sheet: truncateTitle(rest.dest), Err: err})
			}
			break
		}

		res := SheetResult{Source: j.source, Sheet: truncateTitle(j.dest)}
		logger := log.WithFields(log.Fields{"sheet": res.Sheet, "source": j.source, "run": opts.RunID})

		if !e.policies.Has(res.Sheet) {
			logger.Debug("No policy registered, using defaults")
		}
		res.Rows, res.Err = e.syncSheet(ctx, res.Sheet, wb.Records(j.source), opts.Clear, runTime)
		if res.Err != nil {
			var apiErr *sheets.APIError
			if errors.As(res.Err, &apiErr) && apiErr.RateLimited() {
				logger = logger.WithField("hint", "lower SHEETS_REQUESTS_PER_MINUTE")
			}
			logger.WithError(res.Err).Error("Abandoned sheet")
		} else {
			logger.WithField("rows", res.Rows).Info("Synced sheet")
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (e *Engine) syncSheet(ctx context.Context, title string, records []*models.Record, clear bool, runTime time.Time) (int, error) {
	pol := e.policies.For(title)

	var keys []string
	if len(records) > 0 {
		keys = records[0].Keys()
	}

	ws, err := e.spreadsheet.Worksheet(ctx, title, max(minCreateRows, len(records)+5), max(minCreateCols, len(keys)+1))
	if err != nil {
		return 0, fmt.Errorf("open worksheet: %w", err)
	}

	existing, err := ws.HeaderRow(ctx)
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	headers := existing
	if len(headers) == 0 {
		headers = keys
	}
	dateHeader, dataHeaders := mapper.SplitDateHeader(headers)

	lastRow := ws.RowCount()
	if lastRow <= 1 {
		lastRow = fallbackRows
	}
	auxRanges := make([]string, 0, len(pol.AuxClearColumns))
	for _, col := range pol.AuxClearColumns {
		auxRanges = append(auxRanges, sheets.ColumnRange(col, 2, lastRow))
	}

	if clear {
		if err := ws.BatchClear(ctx, append([]string{sheets.RowsRange(2, lastRow)}, auxRanges...)); err != nil {
			return 0, fmt.Errorf("clear data rows: %w", err)
		}
	}

	if len(existing) == 0 && len(headers) > 0 && !pol.PreserveHeader {
		row := make([]interface{}, 0, len(dataHeaders)+1)
		row = append(row, dateHeader)
		for _, h := range dataHeaders {
			row = append(row, h)
		}
		if err := ws.Update(ctx, "A1", [][]interface{}{row}); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	bindings := mapper.MapColumns(dataHeaders, keys)
	dateKey, hasDateKey := mapper.DateKey(keys)
	stamp := runTime.Format(TimestampLayout)

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		date := stamp
		if hasDateKey {
			if v := rec.Get(dateKey); v != "" {
				date = v
			}
		}
		rows = append(rows, buildRow(pol, bindings, rec, date))
	}

	if len(auxRanges) > 0 {
		if err := ws.BatchClear(ctx, auxRanges); err != nil {
			return 0, fmt.Errorf("clear aux columns: %w", err)
		}
	}
	if err := ws.Update(ctx, "A2", rows); err != nil {
		return 0, fmt.Errorf("write rows: %w", err)
	}
	if len(auxRanges) > 0 {
		if err := ws.BatchClear(ctx, auxRanges); err != nil {
			return len(rows), fmt.Errorf("clear aux columns after write: %w", err)
		}
	}

	if pol.FormatNumeric && len(pol.NumericColumns) > 0 {
		if err := e.formatNumeric(ctx, ws, pol, len(rows)); err != nil {
			return len(rows), fmt.Errorf("format numeric columns: %w", err)
		}
	}
	return len(rows), nil
}

// buildRow assembles one destination row: the date first, then one value per
// binding. Truncated columns keep their display text minus the last two
// characters; numeric columns are coerced after sanitizing.
func buildRow(pol policy.Policy, bindings []mapper.Binding, rec *models.Record, date string) []interface{} {
	sanitize := pol.SanitizerFunc()
	row := make([]interface{}, 0, len(bindings)+1)
	row = append(row, date)
	for i, b := range bindings {
		if !b.Bound() {
			row = append(row, "")
			continue
		}
		raw := rec.Get(b.Key)
		switch {
		case pol.IsTruncated(i):
			row = append(row, normalize.TruncateDisplay(raw))
		case pol.IsNumeric(i):
			row = append(row, normalize.CoerceNumeric(sanitize(raw)))
		default:
			row = append(row, sanitize(raw))
		}
	}
	return row
}

func (e *Engine) formatNumeric(ctx context.Context, ws sheets.Worksheet, pol policy.Policy, written int) error {
	end := max(formatRowLimit, written+1)
	cols := pol.NumericSheetColumns()
	reqs := make([]sheets.FormatRequest, 0, len(cols))
	for _, c := range cols {
		reqs = append(reqs, sheets.FormatRequest{
			SheetID:  ws.SheetID(),
			Column:   c,
			StartRow: 1,
			EndRow:   end,
			Pattern:  NumberPattern,
		})
	}
	return e.spreadsheet.BatchFormat(ctx, reqs)
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= maxTitleLen {
		return title
	}
	return string([]rune(title)[:maxTitleLen])
}
