package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readCSV decodes CSV bytes into a grid of cells.
//
// UTF-8 input has its byte order mark removed. Input that is not valid UTF-8
// is treated as Windows-1252, which is what spreadsheet tools on Windows
// write when "CSV" is chosen without the UTF-8 option.
func readCSV(data []byte) ([][]string, error) {
	var decoder transform.Transformer
	if utf8.Valid(data) {
		decoder = xunicode.UTF8BOM.NewDecoder()
	} else {
		decoder = charmap.Windows1252.NewDecoder()
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	configureReader(reader, sniffDelimiter(decoded))

	// encoding/csv skips blank lines; pad them back so grid indices stay
	// aligned with the line numbers a spreadsheet would show.
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}
		rows = append(rows, record)
	}

	return rows, nil
}

// configureReader applies the lenient settings used for exported CSV files.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter

	// Exports are not consistent about trailing empty columns.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// sniffDelimiter picks the separator that occurs most often on the first
// line. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, candidate := range []rune{';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}
