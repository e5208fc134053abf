package core

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// zipMagic starts every .xlsx file.
var zipMagic = []byte("PK\x03\x04")

// isWorkbook reports whether a source should be read as an Excel workbook.
func isWorkbook(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return bytes.HasPrefix(data, zipMagic)
}

// parseWorkbook reads the first sheet of an .xlsx file. The first
// non-empty row is the header.
func parseWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrUnsupportedInput, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrEmptySource)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Excel rows: %w", ErrUnsupportedInput, err)
	}

	var header []string
	var raw [][]string
	for _, row := range rows {
		if isBlankRecord(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}
		raw = append(raw, row)
	}

	if header == nil {
		return nil, ErrEmptySource
	}
	return buildTable(header, raw), nil
}
