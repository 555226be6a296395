package api

import (
	"context"

	"exportsync/pkg/history"
	"exportsync/pkg/pipeline"
)

// Runner executes pipeline runs.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// History lists recorded runs.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Last(ctx context.Context) ([]history.Entry, error)
}

// SyncRequest is the body of POST /sync. Every field is optional; omitted
// fields take the server defaults and an empty path picks the newest download.
type SyncRequest struct {
	Path   string  `json:"path"`
	Target *string `json:"target"`
	Clear  *bool   `json:"clear"`
}

type SheetStatus struct {
	Source string `json:"source"`
	Sheet  string `json:"sheet"`
	Rows   int    `json:"rows"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

type SyncResponse struct {
	RunID  string        `json:"run_id"`
	Source string        `json:"source"`
	OK     bool          `json:"ok"`
	Rows   int           `json:"rows"`
	Sheets []SheetStatus `json:"sheets"`
	Error  string        `json:"error,omitempty"`
}

type IndexResponse struct {
	Status  string          `json:"status"`
	LastRun []history.Entry `json:"last_run"`
}

type RunsResponse struct {
	Runs []history.Entry `json:"runs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newSyncResponse(res *pipeline.Result, err error) SyncResponse {
	out := SyncResponse{
		RunID:  res.RunID,
		Source: res.Source,
		OK:     res.OK(),
		Rows:   res.Report.Rows(),
		Sheets: make([]SheetStatus, 0, len(res.Report.Results)),
	}
	for _, sr := range res.Report.Results {
		st := SheetStatus{Source: sr.Source, Sheet: sr.Sheet, Rows: sr.Rows, OK: sr.OK()}
		if sr.Err != nil {
			st.Error = sr.Err.Error()
		}
		out.Sheets = append(out.Sheets, st)
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}
