package sheets

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// APIError is a failed call to the spreadsheet service.
type APIError struct {
	Op    string // "open", "worksheet", "header", "clear", "update", "format"
	Sheet string
	Code  int // HTTP status, 0 when the call never got a response
	Err   error
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sheets %s %q: status %d: %v", e.Op, e.Sheet, e.Code, e.Err)
	}
	return fmt.Sprintf("sheets %s %q: %v", e.Op, e.Sheet, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the service rejected the call for quota reasons.
func (e *APIError) RateLimited() bool {
	return e.Code == 429
}

func newAPIError(op, sheet string, err error) error {
	if err == nil {
		return nil
	}
	apiErr := &APIError{Op: op, Sheet: sheet, Err: err}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr.Code = gErr.Code
	}
	return apiErr
}
