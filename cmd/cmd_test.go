package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Trip Number,Vehicle,Date,Freight,Diesel\n" +
	"T-001,MH12AB1234,01.04.2024,10000,2500\n" +
	"T-002,,02.04.2024,8000,1000\n"

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := "import:\n  output_dir: " + filepath.Join(dir, "output") + "\n" +
		"  archive_dir: " + filepath.Join(dir, "archive") + "\n" +
		"logger:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Fleet Trip Import")
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := filepath.Join(dir, "april.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0644))

	out, err := execute(t, "preview", input, "--config", cfg, "--set", "3:vehicleNo=MH12XY0001")
	require.NoError(t, err)
	assert.Contains(t, out, "2 total, 2 valid, 0 invalid")
	assert.Contains(t, out, "MH12XY0001")

	_, err = execute(t, "preview", filepath.Join(dir, "missing.csv"), "--config", cfg, "--set", "3:vehicleNo=MH12XY0001")
	assert.Error(t, err)
}

func TestImportCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	input := filepath.Join(dir, "april.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0644))

	out, err := execute(t, "import", input, "--config", cfg, "--dry-run", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Payload for")

	entries, err := os.ReadDir(filepath.Join(dir, "output"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "april_payload_")
	assert.Contains(t, joined, "import_summary_")

	_, err = os.Stat(input)
	assert.NoError(t, err, "dry run never archives")
}

func TestImportCommand_CorrectionsNeedSingleFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(sampleCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(sampleCSV), 0644))

	_, err := execute(t, "import", dir, "--config", cfg, "--dry-run", "--set", "3:vehicleNo=X")
	assert.ErrorContains(t, err, "single file")
}

func TestImportCommand_ArchivesIntoDateSubdirs(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tripsCreated":1,"expensesCreated":1}`))
	}))
	defer backend.Close()

	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")
	cfg := filepath.Join(dir, "config.yaml")
	body := "api:\n  base_url: " + backend.URL + "\n  token: service-token\n  organization_id: org-1\n" +
		"import:\n  output_dir: " + filepath.Join(dir, "output") + "\n" +
		"  archive_dir: " + archiveDir + "\n" +
		"  archive_date_subdirs: true\n" +
		"logger:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0644))

	input := filepath.Join(dir, "april.csv")
	require.NoError(t, os.WriteFile(input, []byte(sampleCSV), 0644))
	importFlags.corrections = correctionFlags{}

	_, err := execute(t, "import", input, "--config", cfg, "--archive", "--dry-run=false", "--no-logs")
	require.NoError(t, err)

	now := time.Now()
	archived := filepath.Join(archiveDir, now.Format("2006"), now.Format("01"), now.Format("02"), "april.csv")
	_, err = os.Stat(archived)
	assert.NoError(t, err)
	_, err = os.Stat(input)
	assert.True(t, os.IsNotExist(err))
}
