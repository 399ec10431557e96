package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/parser"
)

func record(rowNumber int, values map[string]string) parser.Record {
	return parser.Record{RowNumber: rowNumber, Values: values}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"12500", 12500},
		{"12,500.50", 12500.5},
		{" 1 200 ", 1200},
		{"-45", -45},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceNumber(tt.raw), "raw %q", tt.raw)
	}
}

func TestCoerceDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"45000", "2023-03-15"},
		{"45000.75", "2023-03-15"},
		{"59", "1900-02-27"},
		{"60", "1900-02-28"},
		{"61", "1900-03-01"},
		{"1", "1899-12-31"},
		{"2024-04-01", "2024-04-01"},
		{"2024-04-01T10:30:00Z", "2024-04-01"},
		{"2024-04-01 10:30", "2024-04-01"},
		{"01.04.2024", "2024-04-01"},
		{"1/4/2024", "2024-04-01"},
		{"15-08-2024", "2024-08-15"},
		{"31.02.2024", "31.02.2024"},
		{"01.04-2024", "01.04-2024"},
		{"next tuesday", "next tuesday"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceDate(tt.raw), "raw %q", tt.raw)
	}
}

func TestCoerceBoolean(t *testing.T) {
	for _, raw := range []string{"", "0", "0.00", "false", "FALSE", "NaN"} {
		assert.False(t, CoerceBoolean(raw), "raw %q", raw)
	}
	for _, raw := range []string{"1", "true", "yes", "no", "Y"} {
		assert.True(t, CoerceBoolean(raw), "raw %q", raw)
	}
}

func TestTripSequence(t *testing.T) {
	seq, ok := TripSequence("PB-2025/26-001")
	require.True(t, ok)
	assert.Equal(t, 1, seq)

	seq, ok = TripSequence("T42")
	require.True(t, ok)
	assert.Equal(t, 42, seq)

	_, ok = TripSequence("TRIP-A")
	assert.False(t, ok)
}

func TestNormalizeRecord_PreservesTripNumberText(t *testing.T) {
	headers := []string{"Trip Number", "Vehicle"}
	row := NormalizeRecord(headers, record(2, map[string]string{
		"Trip Number": "PB-2025/26-001",
		"Vehicle":     "MH12AB1234",
	}), 0)

	assert.Equal(t, "PB-2025/26-001", row.TripNo)
	assert.True(t, row.IsValid)
	assert.Empty(t, row.Errors)
}

func TestNormalizeRecord_MissingVehicleIsInvalid(t *testing.T) {
	headers := []string{"Trip Number", "Vehicle"}
	row := NormalizeRecord(headers, record(3, map[string]string{
		"Trip Number": "T1",
		"Vehicle":     "",
	}), 1)

	assert.False(t, row.IsValid)
	assert.Equal(t, []string{MsgMissingVehicleNo}, row.Errors)
	assert.Equal(t, 3, row.RowNumber)
	assert.Equal(t, 1, row.Index)
}

func TestNormalizeRecord_OriginDoesNotInvalidate(t *testing.T) {
	row := NormalizeRecord([]string{"tripNo", "vehicleNo"}, record(2, map[string]string{
		"tripNo":    "T1",
		"vehicleNo": "V1",
	}), 0)

	assert.True(t, row.IsValid)
	assert.False(t, row.Populated.Has(mapping.FieldOrigin))
}

func TestNormalizeRecord_FirstAliasWins(t *testing.T) {
	headers := []string{"Trip No", "trip_no", "Vehicle"}
	row := NormalizeRecord(headers, record(2, map[string]string{
		"Trip No": "FIRST",
		"trip_no": "SECOND",
		"Vehicle": "V1",
	}), 0)
	assert.Equal(t, "FIRST", row.TripNo)

	row = NormalizeRecord(headers, record(2, map[string]string{
		"Trip No": "",
		"trip_no": "SECOND",
		"Vehicle": "V1",
	}), 0)
	assert.Equal(t, "SECOND", row.TripNo)
}

func TestNormalizeRecord_ExpensesAndDerivedFields(t *testing.T) {
	headers := []string{"Trip Number", "Vehicle", "Freight", "Advance", "Diesel", "Diesel Amount", "Toll", "Parking"}
	row := NormalizeRecord(headers, record(2, map[string]string{
		"Trip Number":   "T1",
		"Vehicle":       "V1",
		"Freight":       "10,000",
		"Advance":       "2500",
		"Diesel":        "3000.25",
		"Diesel Amount": "1000",
		"Toll":          "0",
		"Parking":       "-50",
	}), 0)

	assert.Equal(t, map[string]float64{"Diesel": 4000.25}, row.Expenses)
	assert.Equal(t, 4000.25, row.TotalExpense)
	assert.Equal(t, 5999.75, row.NetAmount)
	assert.Equal(t, 7500.0, row.Balance)
}

func TestParseFile_SchemaReport(t *testing.T) {
	data := []byte("Trip Number,Vehicle,Random Column,S.No\nT1,V1,x,1\n")

	outcome := ParseFile("trips.csv", data)
	require.True(t, outcome.Success)

	assert.Equal(t, []string{"Random Column"}, outcome.ExtraFields)

	missing := map[mapping.Field]bool{}
	for _, info := range outcome.MissingFields {
		missing[info.Field] = true
	}
	assert.True(t, missing[mapping.FieldOrigin])
	assert.True(t, missing[mapping.FieldDestination])
	assert.True(t, missing[mapping.FieldFreight])
	assert.False(t, missing[mapping.FieldTripNo])

	assert.Len(t, outcome.FieldsUsingDefaults, len(mapping.OptionalFields()))
	assert.Empty(t, outcome.DuplicateTripNumbers)
}

func TestParseFile_DuplicateTripNumbers(t *testing.T) {
	data := []byte("Trip Number,Vehicle\nT1,V1\nT2,V2\nT1,V3\n,V4\n")

	outcome := ParseFile("trips.csv", data)
	require.True(t, outcome.Success)

	assert.Equal(t, []string{"T1"}, outcome.DuplicateTripNumbers)
	assert.Equal(t, 3, outcome.ValidCount())
	assert.Equal(t, 1, outcome.InvalidCount())
}

func TestParseFile_Failures(t *testing.T) {
	outcome := ParseFile("trips.csv", []byte("Trip Number,Vehicle\n"))
	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.Error)
	assert.ErrorIs(t, outcome.Err(), parser.ErrNoDataRows)
	assert.Empty(t, outcome.Rows)

	outcome = ParseFile("trips.txt", []byte("x"))
	assert.False(t, outcome.Success)
	assert.ErrorIs(t, outcome.Err(), parser.ErrUnsupportedFormat)
}

func TestUpdateField_Revalidates(t *testing.T) {
	outcome := ParseFile("trips.csv", []byte("Trip Number,Vehicle,Freight\nT1,,500\n"))
	require.True(t, outcome.Success)
	require.False(t, outcome.Rows[0].IsValid)
	before := outcome.Rows[0]

	row, err := outcome.UpdateField(0, mapping.FieldVehicleNo, " MH12AB1234 ")
	require.NoError(t, err)

	assert.True(t, row.IsValid)
	assert.Equal(t, "MH12AB1234", row.VehicleNo)
	assert.True(t, outcome.Rows[0].IsValid)
	assert.False(t, before.IsValid, "previously returned row must not change")

	assert.False(t, outcome.PopulatedFields.Has(mapping.FieldVehicleNo), "file-level set is fixed at parse")

	row, err = outcome.UpdateField(0, mapping.FieldTripNo, "")
	require.NoError(t, err)
	assert.False(t, row.IsValid)
	assert.Equal(t, []string{MsgMissingTripNo}, row.Errors)
	assert.Equal(t, "", row.TripNo)
}

func TestUpdateField_CoercesAndRecomputes(t *testing.T) {
	outcome := ParseFile("trips.csv", []byte("Trip Number,Vehicle,Freight,Toll\nT1,V1,1000,200\n"))
	require.True(t, outcome.Success)

	row, err := outcome.UpdateField(0, mapping.FieldFreight, "1,500")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, row.Freight)
	assert.Equal(t, 1300.0, row.NetAmount)

	row, err = outcome.UpdateField(0, mapping.FieldTripDate, "45000")
	require.NoError(t, err)
	assert.Equal(t, "2023-03-15", row.TripDate)

	row, err = outcome.UpdateField(0, mapping.FieldBilled, "yes")
	require.NoError(t, err)
	assert.True(t, row.Billed)
}

func TestUpdateField_Errors(t *testing.T) {
	outcome := ParseFile("trips.csv", []byte("Trip Number,Vehicle\nT1,V1\n"))

	_, err := outcome.UpdateField(5, mapping.FieldTripNo, "x")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = outcome.UpdateField(-1, mapping.FieldTripNo, "x")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = outcome.UpdateField(0, mapping.Field("driverName"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSetExpense(t *testing.T) {
	outcome := ParseFile("trips.csv", []byte("Trip Number,Vehicle,Freight\nT1,V1,1000\n"))

	row, err := outcome.SetExpense(0, "Toll", 150)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Toll": 150}, row.Expenses)
	assert.Equal(t, 850.0, row.NetAmount)

	row, err = outcome.SetExpense(0, "Toll", 0)
	require.NoError(t, err)
	assert.Empty(t, row.Expenses)
	assert.Equal(t, 1000.0, row.NetAmount)

	_, err = outcome.SetExpense(3, "Toll", 10)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestPaging(t *testing.T) {
	outcome := &ParseOutcome{}
	for i := 0; i < 7; i++ {
		outcome.Rows = append(outcome.Rows, newRow(i+2, i))
	}

	assert.Equal(t, 3, outcome.PageCount(3))
	assert.Len(t, outcome.Page(1, 3), 3)
	assert.Len(t, outcome.Page(3, 3), 1)
	assert.Equal(t, 6, outcome.Page(3, 3)[0].Index)
	assert.Empty(t, outcome.Page(4, 3))
	assert.Len(t, outcome.Page(1, 0), 7)
}
