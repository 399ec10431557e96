// =============================================================================
// Trip Import - File Manager Utility
// =============================================================================
//
// This module provides the file housekeeping of command-line imports:
//   - Expanding file and directory arguments into importable files
//   - Archiving (moving) files after a successful import
//   - Writing import error logs
//   - Writing a summary of an import run
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory only when every trip
//     of the file was accepted by the backend
//   - Files with failures stay where they are so they can be fixed and
//     re-imported
//   - Logs are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for command-line imports.
type FileManager struct {
	// OutputDir is where summaries and error logs are written.
	OutputDir string

	// ArchiveDir receives imported input files.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/trips.xlsx
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// EnsureDirectories creates the output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// ExpandInputs turns command-line arguments into a list of files.
//
// PARAMETERS:
//   - args: File paths or directories.
//   - extensions: Accepted extensions (lower case, with dot). Directories
//     are scanned, non-recursively, for files with these extensions.
//
// RETURNS:
//   - The files in argument order; files found in a directory are sorted.
//   - An error if an argument does not exist.
func ExpandInputs(args []string, extensions []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasPrefix(entry.Name(), "~$") {
				continue
			}
			if hasExtension(entry.Name(), extensions) {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Never overwrite an earlier import of a file with the same name.
	if _, err := os.Stat(archivePath); err == nil {
		ext := filepath.Ext(archivePath)
		archivePath = strings.TrimSuffix(archivePath, ext) + "_" + uuid.New().String()[:8] + ext
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {original}  - Original file name (without extension), from params
//   - params: Additional placeholder values.
//   - extension: Appended when the result does not already end with it.
//
// EXAMPLE:
//
//	format: "{original}_payload_{timestamp}", params: {"original": "april"}
//	output: "april_payload_20240115_143022.json"
func GenerateOutputFileName(format string, params map[string]string, extension string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if extension != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	TripNo       string
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, GenerateOutputFileName("import_errors_{timestamp}", nil, ".txt"))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Trip Import - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Error Type: %s\n"+
			"  Message:    %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number: %d\n", entry.RowNumber)
		}
		if entry.TripNo != "" {
			fmt.Fprintf(writer, "  Trip No:    %s\n", entry.TripNo)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// IMPORT SUMMARY
// =============================================================================

// ImportSummary contains summary information about an import run.
type ImportSummary struct {
	StartTime     time.Time
	EndTime       time.Time
	DryRun        bool
	ImportedFiles []ImportedFileInfo
	FailedFiles   []FailedFileInfo
}

// ImportedFileInfo describes a file that reached the backend.
type ImportedFileInfo struct {
	InputFile         string
	ArchivePath       string
	Rows              int
	ValidRows         int
	InvalidRows       int
	TripsCreated      int
	TripsFailed       int
	ExpensesCreated   int
	ExpensesFailed    int
	CategoriesCreated int
	ProcessTime       time.Duration
}

// FailedFileInfo describes a file that could not be imported.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// Totals returns the trip counts summed over all imported files.
func (s ImportSummary) Totals() (created, failed int) {
	for _, f := range s.ImportedFiles {
		created += f.TripsCreated
		failed += f.TripsFailed
	}
	return created, failed
}

// WriteSummaryLog writes an import summary to a log file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ImportSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, GenerateOutputFileName("import_summary_{timestamp}", nil, ".txt"))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	created, failed := summary.Totals()
	mode := "import"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(writer, "Trip Import - Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Imported:       %d\n"+
		"  Failed:         %d\n"+
		"  Trips Created:  %d\n"+
		"  Trips Failed:   %d\n\n",
		mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		len(summary.ImportedFiles)+len(summary.FailedFiles),
		len(summary.ImportedFiles),
		len(summary.FailedFiles),
		created,
		failed)

	if len(summary.ImportedFiles) > 0 {
		writer.WriteString("Imported Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.ImportedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", f.InputFile)
			if f.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archived To:  %s\n", f.ArchivePath)
			}
			fmt.Fprintf(writer, "  Rows:         %d (%d valid, %d invalid)\n", f.Rows, f.ValidRows, f.InvalidRows)
			fmt.Fprintf(writer, "  Trips:        %d created, %d failed\n", f.TripsCreated, f.TripsFailed)
			fmt.Fprintf(writer, "  Expenses:     %d created, %d failed\n", f.ExpensesCreated, f.ExpensesFailed)
			fmt.Fprintf(writer, "  Categories:   %d created\n", f.CategoriesCreated)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", f.ProcessTime.String())
		}
	}

	if len(summary.FailedFiles) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.FailedFiles {
			fmt.Fprintf(writer, "  File:  %s\n", f.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", f.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
