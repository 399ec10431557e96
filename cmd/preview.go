// =============================================================================
// Trip Import - Preview Command
// =============================================================================
//
// COMMAND USAGE:
//   tripimport preview FILE [flags]
//
// Parses a file exactly as an import would and prints the schema report and
// a page of normalised rows. Nothing is sent to the backend.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fleet-trip-import/internal/batch"
	"github.com/ginjaninja78/fleet-trip-import/internal/report"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
)

var previewFlags struct {
	format      string
	page        int
	pageSize    int
	invalidOnly bool
	corrections correctionFlags
}

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Show how a trip spreadsheet will be imported",
	Long: `Parse a trip spreadsheet and show the detected columns, the fields that
will use defaults, duplicate trip numbers, and a page of the normalised rows
with their validation errors. Corrections given with --set are applied first,
so a fix can be checked before importing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewFlags.format, "format", "f", "table", "Output format: table, json or yaml")
	previewCmd.Flags().IntVar(&previewFlags.page, "page", 1, "Page of rows to show (1-based)")
	previewCmd.Flags().IntVar(&previewFlags.pageSize, "page-size", 0, "Rows per page (default import.page_size)")
	previewCmd.Flags().BoolVar(&previewFlags.invalidOnly, "invalid-only", false, "Show only rows that fail validation")
	previewFlags.corrections.register(previewCmd)
}

func runPreview(cmd *cobra.Command, path string) error {
	format, err := report.ParseFormat(previewFlags.format)
	if err != nil {
		return err
	}
	corrections, err := previewFlags.corrections.load()
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if info.Size() > appConfig.Import.MaxUploadBytes {
		return fmt.Errorf("file is %d bytes, above the %d byte limit", info.Size(), appConfig.Import.MaxUploadBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	s := session.New(session.Options{Logger: logger, SourceRemark: appConfig.Import.SourceRemark})
	if _, err := s.Upload(filepath.Base(path), data); err != nil {
		return err
	}
	if err := batch.Apply(s, corrections); err != nil {
		return err
	}

	size := previewFlags.pageSize
	if size <= 0 {
		size = appConfig.Import.PageSize
	}
	return report.Preview(cmd.OutOrStdout(), s.SnapshotPage(previewFlags.page, size, previewFlags.invalidOnly), format)
}
