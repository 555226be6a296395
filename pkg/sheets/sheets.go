// Package sheets talks to the Google Sheets API.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	ValueInputRaw         = "RAW"
	ValueInputUserEntered = "USER_ENTERED"
)

// Client is an opened spreadsheet. Calls are paced to stay under the
// per-minute request quota; failures are returned as *APIError and never retried.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	valueInput    string
	limiter       *rate.Limiter
}

type ClientOption func(*Client)

// WithRequestsPerMinute paces API calls. Zero or less disables pacing.
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 5)
	}
}

// WithValueInputOption selects how written values are interpreted (RAW or USER_ENTERED).
func WithValueInputOption(v string) ClientOption {
	return func(c *Client) {
		if v != "" {
			c.valueInput = strings.ToUpper(v)
		}
	}
}

// NewClient authenticates with a service account credentials file and opens
// the spreadsheet by id.
func NewClient(ctx context.Context, credentialsPath, spreadsheetID string, opts ...ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return Open(ctx, srv, spreadsheetID, opts...)
}

// Open checks that the spreadsheet is reachable with srv.
func Open(ctx context.Context, srv *sheets.Service, spreadsheetID string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		service:       srv,
		spreadsheetID: spreadsheetID,
		valueInput:    ValueInputRaw,
	}
	WithRequestsPerMinute(60)(c)
	for _, opt := range opts {
		opt(c)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ss, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId,properties.title").Context(ctx).Do()
	if err != nil {
		return nil, newAPIError("open", spreadsheetID, err)
	}
	log.WithField("spreadsheet", ss.Properties.Title).Debug("Opened spreadsheet")
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Worksheet returns the named worksheet, adding it when absent.
func (c *Client) Worksheet(ctx context.Context, title string, rows, cols int) (Worksheet, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ss, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, newAPIError("worksheet", title, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return &worksheet{client: c, props: sh.Properties}, nil
		}
	}

	addSheetReq := &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: title,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(rows),
					ColumnCount: int64(cols),
				},
			},
		},
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{addSheetReq},
	}).Context(ctx).Do()
	if err != nil {
		return nil, newAPIError("worksheet", title, err)
	}
	log.WithFields(log.Fields{"sheet": title, "rows": rows, "cols": cols}).Info("Created worksheet")

	props := addSheetReq.AddSheet.Properties
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		props = resp.Replies[0].AddSheet.Properties
	}
	return &worksheet{client: c, props: props}, nil
}

// BatchFormat applies every request in one spreadsheet batch update.
func (c *Client) BatchFormat(ctx context.Context, reqs []FormatRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	requests := make([]*sheets.Request, 0, len(reqs))
	for _, r := range reqs {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          r.SheetID,
					StartRowIndex:    int64(r.StartRow),
					EndRowIndex:      int64(r.EndRow),
					StartColumnIndex: int64(r.Column),
					EndColumnIndex:   int64(r.Column + 1),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: r.Pattern},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return newAPIError("format", c.spreadsheetID, err)
}

type worksheet struct {
	client *Client
	props  *sheets.SheetProperties
}

func (w *worksheet) Title() string {
	return w.props.Title
}

func (w *worksheet) SheetID() int64 {
	return w.props.SheetId
}

func (w *worksheet) RowCount() int {
	if w.props.GridProperties == nil {
		return 0
	}
	return int(w.props.GridProperties.RowCount)
}

// HeaderRow returns row 1 without trailing blank cells.
func (w *worksheet) HeaderRow(ctx context.Context) ([]string, error) {
	c := w.client
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, qualify(w.Title(), "1:1")).Context(ctx).Do()
	if err != nil {
		return nil, newAPIError("header", w.Title(), err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	return header, nil
}

func (w *worksheet) BatchClear(ctx context.Context, ranges []string) error {
	if len(ranges) == 0 {
		return nil
	}
	c := w.client
	qualified := make([]string, len(ranges))
	for i, r := range ranges {
		qualified[i] = qualify(w.Title(), r)
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.service.Spreadsheets.Values.BatchClear(c.spreadsheetID, &sheets.BatchClearValuesRequest{
		Ranges: qualified,
	}).Context(ctx).Do()
	return newAPIError("clear", w.Title(), err)
}

func (w *worksheet) Update(ctx context.Context, startCell string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	c := w.client
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.service.Spreadsheets.Values.Update(
		c.spreadsheetID,
		qualify(w.Title(), startCell),
		&sheets.ValueRange{Values: rows},
	).ValueInputOption(c.valueInput).Context(ctx).Do()
	return newAPIError("update", w.Title(), err)
}
