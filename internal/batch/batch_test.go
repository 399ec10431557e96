package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/payload"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
	"github.com/ginjaninja78/fleet-trip-import/pkg/utils"
)

const tripsCSV = "Trip Number,Vehicle,Date,Freight,Diesel\n" +
	"T-001,MH12AB1234,01.04.2024,10000,2500\n" +
	"T-002,,02.04.2024,8000,1000\n"

type stubSubmitter struct {
	mu       sync.Mutex
	payloads []*payload.BulkImportPayload
	err      error
}

func (s *stubSubmitter) Submit(_ context.Context, _ bulkapi.Credentials, p *payload.BulkImportPayload) (*bulkapi.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	if s.err != nil {
		return nil, s.err
	}
	return &bulkapi.Response{TripsCreated: len(p.Trips), ExpensesCreated: len(p.Expenses)}, nil
}

func writeInput(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func newRunner(t *testing.T, sub session.Submitter) (*Runner, *utils.FileManager) {
	t.Helper()
	files := utils.NewFileManager(filepath.Join(t.TempDir(), "output"), filepath.Join(t.TempDir(), "archive"))
	return NewRunner(Config{
		Submitter:      sub,
		Credentials:    bulkapi.StaticCredentials{Token: "token", OrganizationID: "org-1"},
		Files:          files,
		MaxUploadBytes: 1 << 20,
		SourceRemark:   payload.DefaultSourceRemark,
	}), files
}

func amount(v float64) *float64 { return &v }

func TestParseCorrection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Correction
		wantErr bool
	}{
		{"field", "3:vehicleNo=MH12AB1234", Correction{Row: 3, Field: "vehicleNo", Value: "MH12AB1234"}, false},
		{"empty value clears", "3:remarks=", Correction{Row: 3, Field: "remarks", Value: ""}, false},
		{"value with equals", "4:remarks=a=b", Correction{Row: 4, Field: "remarks", Value: "a=b"}, false},
		{"expense", "7:expense.Toll=250.5", Correction{Row: 7, Expense: "Toll", Amount: amount(250.5)}, false},
		{"missing row", "vehicleNo=X", Correction{}, true},
		{"missing value", "3:vehicleNo", Correction{}, true},
		{"row not a number", "x:vehicleNo=X", Correction{}, true},
		{"row zero", "0:vehicleNo=X", Correction{}, true},
		{"unknown field", "3:colour=red", Correction{}, true},
		{"bad amount", "3:expense.Toll=lots", Correction{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCorrection(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrection_String(t *testing.T) {
	assert.Equal(t, "3:vehicleNo=X", Correction{Row: 3, Field: "vehicleNo", Value: "X"}.String())
	assert.Equal(t, "7:expense.Toll=250", Correction{Row: 7, Expense: "Toll", Amount: amount(250)}.String())
}

func TestLoadCorrections(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "fixes.yaml", `corrections:
  - row: 3
    field: vehicleNo
    value: MH12XY0001
  - row: 2
    expense: Toll
    amount: 150
`)

	corrections, err := LoadCorrections(path)
	require.NoError(t, err)
	require.Len(t, corrections, 2)
	assert.Equal(t, "vehicleNo", corrections[0].Field)
	assert.Equal(t, 150.0, *corrections[1].Amount)

	bad := writeInput(t, dir, "bad.yaml", "corrections:\n  - row: 3\n")
	_, err = LoadCorrections(bad)
	assert.Error(t, err)

	_, err = LoadCorrections(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	s := session.New(session.Options{})
	_, err := s.Upload("trips.csv", []byte(tripsCSV))
	require.NoError(t, err)

	err = Apply(s, []Correction{
		{Row: 3, Field: "vehicleNo", Value: "MH12XY0001"},
		{Row: 2, Expense: "Toll", Amount: amount(150)},
	})
	require.NoError(t, err)

	state := s.SnapshotPage(1, 10, false)
	assert.Equal(t, 2, state.ValidRows)
	assert.Equal(t, "MH12XY0001", state.Rows[1].VehicleNo)
	assert.Equal(t, 150.0, state.Rows[0].Expenses["Toll"])

	err = Apply(s, []Correction{{Row: 42, Field: "vehicleNo", Value: "X"}})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestRun_Import(t *testing.T) {
	sub := &stubSubmitter{}
	runner, files := newRunner(t, sub)
	path := writeInput(t, t.TempDir(), "april.csv", tripsCSV)

	result := runner.Run(context.Background(), path, Options{Archive: true})
	require.NoError(t, result.Error)

	assert.True(t, result.Success)
	require.NotNil(t, result.Import)
	assert.Equal(t, 1, result.Import.Success)
	assert.Equal(t, 2, result.State.TotalRows)
	assert.Equal(t, filepath.Join(files.ArchiveDir, "april.csv"), result.ArchivePath)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorTypeValidation, result.Errors[0].ErrorType)
	assert.Equal(t, 3, result.Errors[0].RowNumber)
}

func TestRun_ImportFailureKeepsFile(t *testing.T) {
	sub := &stubSubmitter{err: errors.New("connection refused")}
	runner, _ := newRunner(t, sub)
	path := writeInput(t, t.TempDir(), "april.csv", tripsCSV)

	result := runner.Run(context.Background(), path, Options{Archive: true})

	assert.True(t, result.Success)
	require.NotNil(t, result.Import)
	assert.Equal(t, 1, result.Import.Failed)
	assert.Empty(t, result.ArchivePath)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRun_DryRun(t *testing.T) {
	sub := &stubSubmitter{}
	runner, _ := newRunner(t, sub)
	path := writeInput(t, t.TempDir(), "april.csv", tripsCSV)

	result := runner.Run(context.Background(), path, Options{
		DryRun:      true,
		Corrections: []Correction{{Row: 3, Field: "vehicleNo", Value: "MH12XY0001"}},
	})
	require.NoError(t, result.Error)
	assert.Empty(t, sub.payloads)
	assert.Nil(t, result.Import)

	body, err := os.ReadFile(result.PayloadFile)
	require.NoError(t, err)
	var p payload.BulkImportPayload
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Len(t, p.Trips, 2)
	assert.Len(t, p.Vehicles, 2)
}

func TestRun_Failures(t *testing.T) {
	runner, _ := newRunner(t, &stubSubmitter{})
	dir := t.TempDir()

	result := runner.Run(context.Background(), filepath.Join(dir, "missing.csv"), Options{})
	assert.False(t, result.Success)
	assert.Error(t, result.Error)

	empty := writeInput(t, dir, "empty.csv", "Trip Number,Vehicle\n")
	result = runner.Run(context.Background(), empty, Options{})
	assert.ErrorIs(t, result.Error, session.ErrParseFailed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorTypeFile, result.Errors[0].ErrorType)

	invalid := writeInput(t, dir, "invalid.csv", "Trip Number,Vehicle\nT-1,\n")
	result = runner.Run(context.Background(), invalid, Options{})
	assert.ErrorIs(t, result.Error, session.ErrNoValidRows)

	result = runner.Run(context.Background(), invalid, Options{DryRun: true})
	assert.ErrorIs(t, result.Error, session.ErrNoValidRows)
}

func TestRunAll_KeepsInputOrder(t *testing.T) {
	sub := &stubSubmitter{}
	runner, _ := newRunner(t, sub)
	dir := t.TempDir()

	paths := []string{
		writeInput(t, dir, "a.csv", tripsCSV),
		filepath.Join(dir, "missing.csv"),
		writeInput(t, dir, "c.csv", tripsCSV),
	}

	results := runner.RunAll(context.Background(), paths, Options{Concurrency: 3})
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, paths[i], r.FilePath)
	}
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Len(t, sub.payloads, 2)
}
