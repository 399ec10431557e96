// =============================================================================
// Trip Import - File Parser
// =============================================================================
//
// This module turns the bytes of an uploaded trip export into row records
// keyed by the literal header text of the file. It supports:
//   - CSV  (comma, semicolon or tab separated; UTF-8 with or without BOM,
//           falling back to Windows-1252 for legacy exports)
//   - XLSX (first sheet only)
//   - XLS  (legacy BIFF workbooks, first sheet only)
//
// PARSING PROCESS:
//   1. Decode the file into a grid of cell strings (format specific)
//   2. Detect the header row (exports often carry a title banner above it)
//   3. Clean the header text
//   4. Convert every non-blank row below the header into a Record
//
// The parser is a pure transform of bytes to rows. It keeps no state between
// calls and never touches package-level variables after init.
//
// =============================================================================

package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedFormat is returned for file extensions other than
	// .csv, .xlsx and .xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnreadableFile wraps decoder failures (corrupt workbook, bad CSV).
	ErrUnreadableFile = errors.New("file could not be read")

	// ErrNoDataRows is returned when the file has no rows below the header.
	ErrNoDataRows = errors.New("file has no data rows")
)

// headerScanLimit is how many non-blank rows are inspected when looking for
// the header row.
const headerScanLimit = 10

// SupportedExtensions lists the accepted file extensions.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls"}

// =============================================================================
// DATA STRUCTURES
// =============================================================================

// Record is one data row of the uploaded file.
type Record struct {
	// RowNumber is the 1-based row number in the source sheet.
	RowNumber int

	// Values maps header text to the trimmed cell value. Every header has an
	// entry; empty cells are "".
	Values map[string]string
}

// Sheet is the decoded content of the first sheet of an uploaded file.
type Sheet struct {
	// SheetName is the workbook sheet that was read. Empty for CSV.
	SheetName string

	// Headers holds the cleaned header text in column order, without
	// duplicates.
	Headers []string

	// HeaderRow is the 1-based row number the headers were found on.
	HeaderRow int

	// Records holds the non-blank data rows in file order.
	Records []Record
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse decodes an uploaded file and returns its first sheet as records.
//
// The format is chosen from the extension of fileName. An unreadable file is
// reported as ErrUnreadableFile; a file without data rows as ErrNoDataRows.
func Parse(fileName string, data []byte) (*Sheet, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var (
		grid      [][]string
		sheetName string
		err       error
	)

	switch ext {
	case ".csv":
		grid, err = readCSV(data)
	case ".xlsx":
		grid, sheetName, err = readXLSX(data)
	case ".xls":
		grid, sheetName, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	sheet, err := buildSheet(grid)
	if err != nil {
		return nil, err
	}
	sheet.SheetName = sheetName
	return sheet, nil
}

// IsSupported reports whether the file name has an accepted extension.
func IsSupported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// buildSheet detects the header row of a decoded grid and converts the rows
// below it into records.
func buildSheet(grid [][]string) (*Sheet, error) {
	headerIndex := detectHeaderRow(grid)
	if headerIndex < 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrNoDataRows)
	}

	headers, columns := cleanHeaders(grid[headerIndex])

	records := make([]Record, 0, len(grid)-headerIndex)
	for rowIndex := headerIndex + 1; rowIndex < len(grid); rowIndex++ {
		row := grid[rowIndex]
		if isRowEmpty(row) {
			continue
		}

		values := make(map[string]string, len(headers))
		for i, header := range headers {
			col := columns[i]
			if col < len(row) {
				values[header] = strings.TrimSpace(row[col])
			} else {
				values[header] = ""
			}
		}

		records = append(records, Record{RowNumber: rowIndex + 1, Values: values})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows after the header on row %d", ErrNoDataRows, headerIndex+1)
	}

	return &Sheet{
		Headers:   headers,
		HeaderRow: headerIndex + 1,
		Records:   records,
	}, nil
}

// detectHeaderRow returns the index of the header row, or -1 when the grid
// has no non-blank rows.
//
// The header is the first of the leading non-blank rows that contains a
// header known to the mapping tables. When none does, the first non-blank row
// is used so that unknown layouts still produce an extra-fields report.
func detectHeaderRow(grid [][]string) int {
	first := -1
	inspected := 0

	for i, row := range grid {
		if isRowEmpty(row) {
			continue
		}
		if first < 0 {
			first = i
		}
		for _, cell := range row {
			if mapping.KnownHeader(strings.TrimSpace(cell)) {
				return i
			}
		}
		inspected++
		if inspected >= headerScanLimit {
			break
		}
	}

	return first
}

// cleanHeaders trims header text and drops repeated headers.
//
// RETURNS:
//   - The unique header names in column order.
//   - For each returned header, the column index it was read from.
//
// Blank header cells become "Column_N" so their values are still disclosed
// in the extra-fields report. A repeated header keeps its first column.
func cleanHeaders(raw []string) ([]string, []int) {
	headers := make([]string, 0, len(raw))
	columns := make([]int, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		if _, dup := seen[header]; dup {
			continue
		}
		seen[header] = struct{}{}
		headers = append(headers, header)
		columns = append(columns, i)
	}

	return headers, columns
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
