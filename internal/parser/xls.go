package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/shakinm/xlsReader/xls"
)

// readXLS reads the first sheet of a legacy BIFF (.xls) workbook and returns
// its rows and name.
//
// The xls reader only opens files by path, so the upload is spooled to a
// temporary file first.
func readXLS(data []byte) (rows [][]string, sheetName string, err error) {
	tmpFile, err := os.CreateTemp("", "trip-import-*.xls")
	if err != nil {
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, "", fmt.Errorf("close temp file: %w", err)
	}

	// The reader panics on some malformed record streams.
	defer func() {
		if r := recover(); r != nil {
			rows, sheetName, err = nil, "", fmt.Errorf("malformed xls workbook: %v", r)
		}
	}()

	workbook, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, "", fmt.Errorf("read first sheet: %w", err)
	}
	if sheet == nil {
		return nil, "", errors.New("workbook has no sheets")
	}

	for _, xlsRow := range sheet.GetRows() {
		cols := xlsRow.GetCols()
		row := make([]string, 0, len(cols))
		for _, col := range cols {
			row = append(row, col.GetString())
		}
		rows = append(rows, row)
	}

	return rows, sheet.GetName(), nil
}
