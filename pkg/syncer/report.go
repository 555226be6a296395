package syncer

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoSheets is reported when a sync had nothing to write.
var ErrNoSheets = errors.New("no sheets to sync")

// SheetResult is the outcome of syncing one source sheet.
type SheetResult struct {
	Source string
	Sheet  string
	Rows   int
	Err    error
}

func (r SheetResult) OK() bool {
	return r.Err == nil
}

// Report collects the per-sheet outcomes of one Sync call.
type Report struct {
	RunTime time.Time
	Results []SheetResult
}

// OK reports whether at least one sheet was synced and none failed.
func (r Report) OK() bool {
	return r.Err() == nil
}

// Err joins the per-sheet failures, nil when every sheet succeeded.
func (r Report) Err() error {
	if len(r.Results) == 0 {
		return ErrNoSheets
	}
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("sheet %q: %w", res.Sheet, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Rows is the total number of data rows written.
func (r Report) Rows() int {
	n := 0
	for _, res := range r.Results {
		n += res.Rows
	}
	return n
}
