package batch

import (
	"path/filepath"
	"time"

	"github.com/ginjaninja78/fleet-trip-import/pkg/utils"
)

// Summarize turns the results of a run into the summary written to the
// output directory.
func Summarize(results []Result, start, end time.Time, dryRun bool) utils.ImportSummary {
	summary := utils.ImportSummary{StartTime: start, EndTime: end, DryRun: dryRun}

	for _, r := range results {
		name := filepath.Base(r.FilePath)
		if r.Error != nil {
			summary.FailedFiles = append(summary.FailedFiles, utils.FailedFileInfo{
				InputFile:    name,
				ErrorMessage: r.Error.Error(),
			})
			continue
		}

		info := utils.ImportedFileInfo{
			InputFile:   name,
			ArchivePath: r.ArchivePath,
			Rows:        r.State.TotalRows,
			ValidRows:   r.State.ValidRows,
			InvalidRows: r.State.InvalidRows,
			ProcessTime: r.ProcessingTime,
		}
		if r.Import != nil {
			info.TripsCreated = r.Import.Success
			info.TripsFailed = r.Import.Failed
			info.ExpensesCreated = r.Import.ExpensesCreated
			info.ExpensesFailed = r.Import.ExpensesFailed
			info.CategoriesCreated = r.Import.CategoriesCreated
		}
		summary.ImportedFiles = append(summary.ImportedFiles, info)
	}
	return summary
}

// ErrorEntries collects the error log entries of all results.
func ErrorEntries(results []Result) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, r := range results {
		entries = append(entries, r.Errors...)
	}
	return entries
}
