// Package ingest parses uploaded spreadsheet files into validation records.
// The first row is taken as the header; cells are matched to columns by
// header name and rows with no values at all are dropped.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/navigator1103/MediaIntel-sub006/pkg/errors"
	"github.com/navigator1103/MediaIntel-sub006/pkg/validate"
)

// ReadFile parses path into records, dispatching on the file extension.
func ReadFile(path string) ([]validate.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadExcel(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WrapIO("open", path, err)
		}
		defer f.Close()
		return ReadCSV(f, path)
	}
	return nil, errors.NewParseError("file", path, "unsupported file type", nil)
}

// ReadExcel parses the first sheet of an Excel workbook.
func ReadExcel(path string) ([]validate.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.NewParseError("xlsx", path, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	return assemble(rows, path)
}

// ReadCSV parses comma-separated content. The name is only used in errors.
func ReadCSV(r io.Reader, name string) ([]validate.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are padded during assembly

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}
	return assemble(rows, name)
}

// assemble turns a header row plus data rows into records.
func assemble(rows [][]string, name string) ([]validate.Record, error) {
	if len(rows) == 0 {
		return nil, errors.NewParseError("file", name, "file is empty", nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var records []validate.Record
	for _, row := range rows[1:] {
		record := make(validate.Record, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var value string
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			record[header] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			records = append(records, record)
		}
	}
	return records, nil
}
