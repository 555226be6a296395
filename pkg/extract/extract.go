// Package extract reads an exported workbook into normalized records.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"exportsync/pkg/models"
	"exportsync/pkg/normalize"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Load reads every sheet of the workbook at path. The first row of a sheet
// names its columns; each following row becomes one Record whose values are
// normalized display strings. A sheet that cannot be read yields no records.
func Load(path string) (*models.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer f.Close()

	r := &reader{f: f, formats: newFormatCache(f)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	wb := models.NewWorkbook(filepath.Base(path))
	for _, sheetName := range f.GetSheetList() {
		records, err := r.sheet(sheetName)
		if err != nil {
			log.WithError(&SheetError{SheetName: sheetName, Err: err}).Warn("Continuing with an empty sheet")
			records = nil
		}
		wb.AddSheet(sheetName, records)
	}

	log.WithFields(log.Fields{
		"book":   wb.BookName,
		"sheets": len(wb.SheetNames()),
		"rows":   wb.RowCount(),
	}).Info("Extracted workbook")
	return wb, nil
}

type reader struct {
	f        *excelize.File
	formats  *formatCache
	date1904 bool
}

func (r *reader) sheet(sheetName string) ([]*models.Record, error) {
	rows, err := r.f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*models.Record{}, nil
	}

	headers := headerNames(rows)
	records := make([]*models.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		rec := models.NewRecord()
		for col, h := range headers {
			raw := ""
			if col < len(row) {
				raw = row[col]
			}
			rec.Set(h, normalize.Normalize(r.cell(sheetName, col+1, rowNum, raw)))
		}
		records = append(records, rec)
	}
	return records, nil
}

// headerNames takes the first row as column names, padded to the widest
// row. Blank names become col<N>.
func headerNames(rows [][]string) []string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := make([]string, width)
	for i := range headers {
		if i < len(rows[0]) && rows[0][i] != "" {
			headers[i] = rows[0][i]
		} else {
			headers[i] = "col" + strconv.Itoa(i+1)
		}
	}
	return headers
}

func (r *reader) cell(sheetName string, col, row int, raw string) models.Cell {
	if raw == "" {
		return models.EmptyCell()
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return models.StringCell(raw)
	}
	typ, err := r.f.GetCellType(sheetName, ref)
	if err != nil {
		typ = excelize.CellTypeUnset
	}
	return cellFromRaw(raw, typ, r.formats.formatOf(sheetName, ref), r.date1904)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// cellFromRaw builds a Cell from a raw stored value, its cell type and its
// number format code.
func cellFromRaw(raw string, typ excelize.CellType, format string, date1904 bool) models.Cell {
	switch typ {
	case excelize.CellTypeBool:
		return models.BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return models.StringCell(raw)
	case excelize.CellTypeDate:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return models.DateCell(t, format)
			}
		}
		return models.StringCell(raw)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return models.StringCell(raw)
	}
	if normalize.IsDateFormat(format) {
		if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
			return models.DateCell(t, format)
		}
	}
	return models.NumberCell(v, format)
}
