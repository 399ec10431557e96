package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const isoDateLayout = "2006-01-02"

// excelEpoch is day zero of the spreadsheet serial calendar. Starting on
// 1899-12-30 absorbs the phantom 1900-02-29 for every serial after 60.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31, the last day spreadsheets can represent.
const maxExcelSerial = 2958465

var (
	serialPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
	isoPattern     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})([T ].*)?$`)
	dayFirstFormat = regexp.MustCompile(`^(\d{1,2})([./-])(\d{1,2})([./-])(\d{4})$`)
)

// CoerceString trims surrounding whitespace.
func CoerceString(raw string) string {
	return strings.TrimSpace(raw)
}

// CoerceNumber parses a numeric cell. Thousands separators and spaces are
// removed first; anything that still does not parse becomes 0.
func CoerceNumber(raw string) float64 {
	d, ok := parseDecimal(raw)
	if !ok {
		return 0
	}
	return d.InexactFloat64()
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// CoerceDate normalises a date cell to YYYY-MM-DD.
//
// Accepted inputs are spreadsheet serial day numbers, ISO dates with an
// optional time part, and day-first dates separated by '.', '/' or '-'.
// Anything else is returned trimmed but otherwise unchanged.
func CoerceDate(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	if serialPattern.MatchString(value) {
		if date, ok := fromExcelSerial(value); ok {
			return date
		}
		return value
	}

	if m := isoPattern.FindStringSubmatch(value); m != nil {
		if date, ok := buildDate(m[1], m[2], m[3]); ok {
			return date
		}
		return value
	}

	if m := dayFirstFormat.FindStringSubmatch(value); m != nil && m[2] == m[4] {
		if date, ok := buildDate(m[5], m[3], m[1]); ok {
			return date
		}
	}

	return value
}

// ExcelSerialToDate converts a spreadsheet serial day number to YYYY-MM-DD.
// The fractional (time of day) part is dropped.
func ExcelSerialToDate(serial float64) string {
	return excelEpoch.AddDate(0, 0, int(serial)).Format(isoDateLayout)
}

func fromExcelSerial(value string) (string, bool) {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return "", false
	}
	return ExcelSerialToDate(serial), true
}

// buildDate validates the parts and formats them. Impossible calendar dates
// such as 31.02.2024 are rejected.
func buildDate(year, month, day string) (string, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// CoerceBoolean applies loose truthiness. Empty text, numeric zero, "false"
// and "NaN" are false; any other text is true.
func CoerceBoolean(raw string) bool {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, "false") || strings.EqualFold(value, "nan") {
		return false
	}
	if d, ok := parseDecimal(value); ok && d.IsZero() {
		return false
	}
	return true
}
