package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	query    map[string]string
	failOp   string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	op := ""
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		op = "header"
	case r.Method == http.MethodGet:
		op = "get"
	case strings.HasSuffix(path, "values:batchClear"):
		op = "clear"
	case r.Method == http.MethodPut:
		op = "update"
	case strings.HasSuffix(path, ":batchUpdate"):
		op = "batchUpdate"
	}
	f.requests = append(f.requests, op)
	f.bodies[op] = string(body)
	f.query[op] = r.URL.RawQuery

	if op == f.failOp {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota"}}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch op {
	case "get":
		_, _ = io.WriteString(w, `{"spreadsheetId":"abc","properties":{"title":"Book"},
			"sheets":[{"properties":{"sheetId":7,"title":"Sheet2","gridProperties":{"rowCount":500,"columnCount":26}}}]}`)
	case "header":
		_, _ = io.WriteString(w, `{"values":[["Fecha","Ventas",""]]}`)
	case "batchUpdate":
		_, _ = io.WriteString(w, `{"replies":[{"addSheet":{"properties":{"sheetId":9,"title":"Nueva","gridProperties":{"rowCount":100,"columnCount":20}}}}]}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func newTestClient(t *testing.T, fake *fakeSheetsAPI) *Client {
	t.Helper()
	fake.bodies = map[string]string{}
	fake.query = map[string]string{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	svc, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c, err := Open(ctx, svc, "abc", WithRequestsPerMinute(0), WithValueInputOption("raw"))
	require.NoError(t, err)
	return c
}

func TestWorksheetExisting(t *testing.T) {
	fake := &fakeSheetsAPI{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	ws, err := c.Worksheet(ctx, "Sheet2", 100, 20)
	require.NoError(t, err)
	assert.Equal(t, "Sheet2", ws.Title())
	assert.Equal(t, int64(7), ws.SheetID())
	assert.Equal(t, 500, ws.RowCount())

	header, err := ws.HeaderRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fecha", "Ventas"}, header)

	require.NoError(t, ws.BatchClear(ctx, []string{"2:500", "D2:D500"}))
	assert.Contains(t, fake.bodies["clear"], `'Sheet2'!2:500`)
	assert.Contains(t, fake.bodies["clear"], `'Sheet2'!D2:D500`)

	require.NoError(t, ws.Update(ctx, "A2", [][]interface{}{{"2024-01-02", 5}}))
	assert.Contains(t, fake.query["update"], "valueInputOption=RAW")
	var vr struct {
		Values [][]interface{} `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["update"]), &vr))
	assert.Equal(t, [][]interface{}{{"2024-01-02", float64(5)}}, vr.Values)

	assert.Equal(t, []string{"get", "get", "header", "clear", "update"}, fake.requests)
}

func TestWorksheetCreated(t *testing.T) {
	fake := &fakeSheetsAPI{}
	c := newTestClient(t, fake)

	ws, err := c.Worksheet(context.Background(), "Nueva", 100, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(9), ws.SheetID())
	assert.Equal(t, 100, ws.RowCount())
	assert.Contains(t, fake.bodies["batchUpdate"], `"addSheet"`)
	assert.Contains(t, fake.bodies["batchUpdate"], `"title":"Nueva"`)
}

func TestBatchFormat(t *testing.T) {
	fake := &fakeSheetsAPI{}
	c := newTestClient(t, fake)

	err := c.BatchFormat(context.Background(), []FormatRequest{
		{SheetID: 0, Column: 2, StartRow: 1, EndRow: 1000, Pattern: "#,##0"},
	})
	require.NoError(t, err)
	body := fake.bodies["batchUpdate"]
	assert.Contains(t, body, `"repeatCell"`)
	assert.Contains(t, body, `"sheetId":0`)
	assert.Contains(t, body, `"pattern":"#,##0"`)
	assert.Contains(t, body, `"fields":"userEnteredFormat.numberFormat"`)

	assert.NoError(t, c.BatchFormat(context.Background(), nil))
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	fake := &fakeSheetsAPI{failOp: "update"}
	c := newTestClient(t, fake)
	ctx := context.Background()

	ws, err := c.Worksheet(ctx, "Sheet2", 100, 20)
	require.NoError(t, err)

	err = ws.Update(ctx, "A2", [][]interface{}{{"x"}})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "update", apiErr.Op)
	assert.Equal(t, 429, apiErr.Code)
	assert.True(t, apiErr.RateLimited())
}

func TestRangeHelpers(t *testing.T) {
	assert.Equal(t, "2:1000", RowsRange(2, 1000))
	assert.Equal(t, "D2:D77", ColumnRange("d", 2, 77))
	assert.Equal(t, "'It''s'!A1", qualify("It's", "A1"))
}
