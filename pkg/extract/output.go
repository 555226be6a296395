package extract

import (
	"encoding/json"
	"io"
	"os"

	"exportsync/pkg/models"
)

// WriteJSON writes the workbook as {sheet: [{header: value}, ...]} with
// two-space indentation. Non-ASCII text is written as is.
func WriteJSON(w io.Writer, wb *models.Workbook) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(wb)
}

// WriteJSONFile writes the workbook JSON to path, replacing any existing file.
func WriteJSONFile(path string, wb *models.Workbook) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, wb); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
