package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exportsync/pkg/extract"
	"exportsync/pkg/history"
	"exportsync/pkg/pipeline"
	"exportsync/pkg/syncer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okResult(req pipeline.Request) (*pipeline.Result, error) {
	return &pipeline.Result{
		RunID:  "run-1",
		Source: "/tmp/export.xlsx",
		Report: syncer.Report{Results: []syncer.SheetResult{
			{Source: "Sheet1", Sheet: req.Target, Rows: 4},
		}},
	}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostSyncUsesDefaults(t *testing.T) {
	runner := &mockRunner{RunFunc: okResult}
	h := GetRouter(NewServer(runner, nil, "Sheet2", true))

	rec := do(t, h, http.MethodPost, "/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	require.Len(t, runner.RunCalls, 1)
	assert.Equal(t, pipeline.Request{Target: "Sheet2", Clear: true}, runner.RunCalls[0])

	var resp SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, []SheetStatus{{Source: "Sheet1", Sheet: "Sheet2", Rows: 4, OK: true}}, resp.Sheets)
}

func TestPostSyncOverrides(t *testing.T) {
	runner := &mockRunner{RunFunc: okResult}
	h := GetRouter(NewServer(runner, nil, "Sheet2", true))

	rec := do(t, h, http.MethodPost, "/sync", `{"path": "/data/x.xlsx", "target": "", "clear": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.Request{Path: "/data/x.xlsx"}, runner.RunCalls[0])
}

func TestPostSyncErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result *pipeline.Result
		err    error
		status int
	}{
		{"bad body", `{"path": 1}`, nil, nil, http.StatusBadRequest},
		{"in progress", "", nil, pipeline.ErrRunInProgress, http.StatusConflict},
		{"no download", "", nil, fmt.Errorf("locate workbook: %w", extract.ErrNoCandidate), http.StatusNotFound},
		{"missing file", "", nil, fmt.Errorf("extract: %w", extract.ErrFileNotFound), http.StatusNotFound},
		{"not xlsx", "", nil, fmt.Errorf("extract: %w", extract.ErrInvalidFormat), http.StatusUnprocessableEntity},
		{"unexpected", "", nil, errors.New("boom"), http.StatusInternalServerError},
		{
			"sheet failed", "",
			&pipeline.Result{RunID: "r", Report: syncer.Report{Results: []syncer.SheetResult{{Sheet: "Sheet2", Err: errors.New("quota")}}}},
			errors.New(`sheet "Sheet2": quota`),
			http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{RunFunc: func(pipeline.Request) (*pipeline.Result, error) { return tt.result, tt.err }}
			rec := do(t, GetRouter(NewServer(runner, nil, "", true)), http.MethodPost, "/sync", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetRuns(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hist := &mockHistory{Entries: []history.Entry{
		{RunID: "b", StartedAt: at, Sheet: "Sheet2", Rows: 2, OK: true},
		{RunID: "a", StartedAt: at, Sheet: "Sheet1", OK: false, Error: "quota"},
	}}
	h := GetRouter(NewServer(&mockRunner{}, hist, "", true))

	rec := do(t, h, http.MethodGet, "/runs?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "b", resp.Runs[0].RunID)
	assert.Equal(t, []int{1}, hist.Limits)

	rec = do(t, h, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1, defaultRunsLimit}, hist.Limits)

	rec = do(t, h, http.MethodGet, "/runs?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hist.Err = errors.New("disk")
	rec = do(t, h, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetIndex(t *testing.T) {
	hist := &mockHistory{Entries: []history.Entry{{RunID: "b", Sheet: "Sheet2", OK: true}}}
	rec := do(t, GetRouter(NewServer(&mockRunner{}, hist, "", true)), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.LastRun, 1)
	assert.Equal(t, "b", resp.LastRun[0].RunID)

	rec = do(t, GetRouter(NewServer(&mockRunner{}, nil, "", true)), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "last_run": null}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, GetRouter(NewServer(&mockRunner{}, nil, "", true)), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, GetRouter(NewServer(&mockRunner{}, nil, "", true)), http.MethodGet, "/sync", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
