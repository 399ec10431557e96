package parser

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order []string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse_CSV(t *testing.T) {
	data := []byte("Trip Number,Vehicle,Freight\nT1,MH12AB1234,\"12,500\"\n\n,,\nT2,MH12AB9999,800\n")

	sheet, err := Parse("trips.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Trip Number", "Vehicle", "Freight"}, sheet.Headers)
	assert.Equal(t, 1, sheet.HeaderRow)
	assert.Empty(t, sheet.SheetName)
	require.Len(t, sheet.Records, 2)

	assert.Equal(t, 2, sheet.Records[0].RowNumber)
	assert.Equal(t, "T1", sheet.Records[0].Values["Trip Number"])
	assert.Equal(t, "12,500", sheet.Records[0].Values["Freight"])

	assert.Equal(t, 5, sheet.Records[1].RowNumber)
	assert.Equal(t, "MH12AB9999", sheet.Records[1].Values["Vehicle"])
}

func TestParse_CSVWithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Trip Number,Vehicle\nT1,V1\n")...)

	sheet, err := Parse("trips.CSV", data)
	require.NoError(t, err)

	assert.Equal(t, "Trip Number", sheet.Headers[0])
	assert.Equal(t, "T1", sheet.Records[0].Values["Trip Number"])
}

func TestParse_CSVWindows1252(t *testing.T) {
	data := []byte("Trip Number,Vehicle,Remarks\nT1,V1,Caf\xe9\n")

	sheet, err := Parse("legacy.csv", data)
	require.NoError(t, err)

	assert.Equal(t, "Café", sheet.Records[0].Values["Remarks"])
}

func TestParse_CSVSemicolonSeparated(t *testing.T) {
	data := []byte("Trip Number;Vehicle;Freight\nT1;V1;1200,50\n")

	sheet, err := Parse("trips.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Trip Number", "Vehicle", "Freight"}, sheet.Headers)
	assert.Equal(t, "1200,50", sheet.Records[0].Values["Freight"])
}

func TestParse_ShortRowsPadded(t *testing.T) {
	data := []byte("Trip Number,Vehicle,Remarks\nT1\n")

	sheet, err := Parse("trips.csv", data)
	require.NoError(t, err)

	values := sheet.Records[0].Values
	assert.Equal(t, "T1", values["Trip Number"])
	assert.Contains(t, values, "Vehicle")
	assert.Equal(t, "", values["Vehicle"])
}

func TestParse_TitleRowsAboveHeader(t *testing.T) {
	data := []byte("Monthly Trip Register,,\nApril 2025,,\n\nTrip Number,Vehicle,Freight\nT1,V1,100\n")

	sheet, err := Parse("trips.csv", data)
	require.NoError(t, err)

	assert.Equal(t, 4, sheet.HeaderRow)
	assert.Equal(t, []string{"Trip Number", "Vehicle", "Freight"}, sheet.Headers)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, 5, sheet.Records[0].RowNumber)
}

func TestParse_UnknownHeadersFallBackToFirstRow(t *testing.T) {
	data := []byte("Alpha,Beta\n1,2\n")

	sheet, err := Parse("odd.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta"}, sheet.Headers)
	assert.Equal(t, "2", sheet.Records[0].Values["Beta"])
}

func TestParse_BlankAndDuplicateHeaders(t *testing.T) {
	data := []byte("Trip Number,,Trip Number\nT1,x,T9\n")

	sheet, err := Parse("trips.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Trip Number", "Column_2"}, sheet.Headers)
	assert.Equal(t, "T1", sheet.Records[0].Values["Trip Number"])
	assert.Equal(t, "x", sheet.Records[0].Values["Column_2"])
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse("trips.csv", []byte("Trip Number,Vehicle\n"))
	assert.ErrorIs(t, err, ErrNoDataRows)

	_, err = Parse("trips.csv", []byte(""))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("trips.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, IsSupported("trips.pdf"))
	assert.True(t, IsSupported("Trips.XLSX"))
}

func TestParse_XLSXFirstSheetOnly(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"Trips": {
			{"Trip Number", "Vehicle", "Date", "Freight"},
			{"PB-2025/26-001", "MH12AB1234", 45000, 12500},
		},
		"Summary": {
			{"Trip Number", "Vehicle"},
			{"IGNORED", "IGNORED"},
			{"IGNORED", "IGNORED"},
		},
	}, []string{"Trips", "Summary"})

	sheet, err := Parse("trips.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, "Trips", sheet.SheetName)
	require.Len(t, sheet.Records, 1)
	values := sheet.Records[0].Values
	assert.Equal(t, "PB-2025/26-001", values["Trip Number"])
	assert.Equal(t, "45000", values["Date"])
	assert.Equal(t, "12500", values["Freight"])
}

func TestParse_XLSFirstSheetOnly(t *testing.T) {
	data, err := os.ReadFile("testdata/trips.xls")
	require.NoError(t, err)

	sheet, err := Parse("trips.xls", data)
	require.NoError(t, err)

	assert.Equal(t, "Trips", sheet.SheetName)
	assert.Equal(t, []string{"Trip Number", "Vehicle", "Date", "Freight", "Diesel"}, sheet.Headers)
	require.Len(t, sheet.Records, 2)
	assert.Equal(t, "T-101", sheet.Records[0].Values["Trip Number"])
	assert.Equal(t, "01.04.2024", sheet.Records[0].Values["Date"])
	assert.Equal(t, "2500", sheet.Records[0].Values["Diesel"])
	assert.Equal(t, 3, sheet.Records[1].RowNumber)
	assert.Equal(t, "MH14CD5678", sheet.Records[1].Values["Vehicle"])
	assert.Equal(t, "", sheet.Records[1].Values["Diesel"])
	for _, record := range sheet.Records {
		assert.NotContains(t, record.Values, "IGNORED")
		assert.NotEqual(t, "IGNORED", record.Values["Trip Number"])
	}
}

func TestParse_CorruptWorkbook(t *testing.T) {
	_, err := Parse("trips.xlsx", []byte("this is not a zip archive"))
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = Parse("trips.xls", []byte("this is not a compound document"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestDetectHeaderRow_ScanLimit(t *testing.T) {
	grid := make([][]string, 0, headerScanLimit+2)
	for i := 0; i < headerScanLimit; i++ {
		grid = append(grid, []string{"banner"})
	}
	grid = append(grid, []string{"Trip Number"}, []string{"T1"})

	assert.Equal(t, 0, detectHeaderRow(grid))
	assert.Equal(t, -1, detectHeaderRow([][]string{{"", " "}, {}}))
}
