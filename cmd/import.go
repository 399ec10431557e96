// =============================================================================
// Trip Import - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   tripimport import FILE|DIR... [flags]
//
// FLAGS:
//   --dry-run      : Write each payload to the output directory instead of sending it
//   --archive      : Move fully imported files to the archive directory
//   --set          : Correct a row before importing (single file only)
//   --corrections  : YAML file of row corrections (single file only)
//   --concurrency  : Number of files imported at once
//   --format       : Result output format (table, json, yaml)
//
// PROCESSING PIPELINE:
//   1. Expand the arguments into spreadsheet files
//   2. Import every file through its own session (concurrently)
//   3. Print the results
//   4. Write the summary and error logs to the output directory
//
// A file whose trips were rejected by the backend still counts as processed;
// its errors are listed in the results and the error log. The command exits
// non-zero when any file could not be processed at all.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/batch"
	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/parser"
	"github.com/ginjaninja78/fleet-trip-import/internal/report"
	"github.com/ginjaninja78/fleet-trip-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var importFlags struct {
	dryRun      bool
	archive     bool
	concurrency int
	format      string
	noLogs      bool
	corrections correctionFlags
}

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import FILE|DIR...",
	Short: "Import trip spreadsheets into the fleet backend",
	Long: `Import trip spreadsheets. Every valid row becomes a trip; its expense
columns become expense records, and every vehicle number is sent so the
backend can register unknown vehicles. Invalid rows are skipped and listed.

Directories are scanned for .csv, .xlsx and .xls files. Each file is imported
in one bulk request, independently of the others.

Credentials are read from api.token and api.organization_id, usually set
through TRIPIMPORT_API_TOKEN and TRIPIMPORT_API_ORGANIZATION_ID.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importFlags.dryRun, "dry-run", false, "Write the payloads to the output directory without sending them")
	importCmd.Flags().BoolVar(&importFlags.archive, "archive", false, "Move fully imported files to the archive directory")
	importCmd.Flags().IntVar(&importFlags.concurrency, "concurrency", 4, "Number of files imported at once")
	importCmd.Flags().StringVarP(&importFlags.format, "format", "f", "table", "Output format: table, json or yaml")
	importCmd.Flags().BoolVar(&importFlags.noLogs, "no-logs", false, "Do not write summary and error logs")
	importFlags.corrections.register(importCmd)
}

// =============================================================================
// MAIN IMPORT FUNCTION
// =============================================================================

func runImport(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	format, err := report.ParseFormat(importFlags.format)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	files, err := utils.ExpandInputs(args, parser.SupportedExtensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no .csv, .xlsx or .xls files found")
	}

	corrections, err := importFlags.corrections.load()
	if err != nil {
		return err
	}
	if len(corrections) > 0 && len(files) > 1 {
		return errors.New("row corrections can only be applied when importing a single file")
	}

	logger.Info("Starting import",
		zap.Int("files", len(files)),
		zap.Bool("dry_run", importFlags.dryRun),
		zap.Int("corrections", len(corrections)))

	// =========================================================================
	// STEP 2: IMPORT FILES
	// =========================================================================

	fm := utils.NewFileManager(appConfig.Import.OutputDir, appConfig.Import.ArchiveDir)
	fm.UseTimestampSubdirs = appConfig.Import.ArchiveDateSubdirs
	runner := batch.NewRunner(batch.Config{
		Submitter: bulkapi.NewClient(appConfig.API.BaseURL, appConfig.API.Timeout, logger),
		Credentials: bulkapi.StaticCredentials{
			Token:          appConfig.API.Token,
			OrganizationID: appConfig.API.OrganizationID,
		},
		Files:          fm,
		MaxUploadBytes: appConfig.Import.MaxUploadBytes,
		SourceRemark:   appConfig.Import.SourceRemark,
		Logger:         logger,
	})

	results := runner.RunAll(cmd.Context(), files, batch.Options{
		DryRun:      importFlags.dryRun,
		Archive:     importFlags.archive && !importFlags.dryRun,
		Corrections: corrections,
		Concurrency: importFlags.concurrency,
	})

	// =========================================================================
	// STEP 3: PRINT RESULTS
	// =========================================================================

	fileResults := make([]report.FileResult, len(results))
	failed := 0
	for i, r := range results {
		fileResults[i] = report.FileResult{FileName: r.FilePath, Result: r.Import}
		if r.Error != nil {
			fileResults[i].Error = r.Error.Error()
			failed++
		}
		if r.PayloadFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Payload for %s written to %s\n", r.FilePath, r.PayloadFile)
		}
	}
	if err := report.Results(cmd.OutOrStdout(), fileResults, format); err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: WRITE LOGS
	// =========================================================================

	if !importFlags.noLogs {
		writeRunLogs(cmd, fm, results, startTime)
	}

	logger.Info("Import finished",
		zap.Int("files", len(files)),
		zap.Int("failed_files", failed),
		zap.Duration("elapsed", time.Since(startTime)))

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be imported", failed, len(files))
	}
	return nil
}

// writeRunLogs writes the summary and error logs. Failures are logged, not
// returned, so they never mask the import results.
func writeRunLogs(cmd *cobra.Command, fm *utils.FileManager, results []batch.Result, start time.Time) {
	if err := fm.EnsureDirectories(); err != nil {
		logger.Warn("Failed to create output directory", zap.Error(err))
		return
	}

	summary := batch.Summarize(results, start, time.Now(), importFlags.dryRun)
	if path, err := utils.WriteSummaryLog(summary, fm.OutputDir); err != nil {
		logger.Warn("Failed to write summary log", zap.Error(err))
	} else {
		logger.Debug("Summary log written", zap.String("path", path))
	}

	path, err := utils.WriteErrorLog(batch.ErrorEntries(results), fm.OutputDir)
	if err != nil {
		logger.Warn("Failed to write error log", zap.Error(err))
		return
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Errors have been logged to %s\n", path)
	}
}
