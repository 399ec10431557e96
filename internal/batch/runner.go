// =============================================================================
// Trip Import - Batch Runner
// =============================================================================
//
// The runner imports spreadsheet files from the command line. Each file goes
// through the same session a web user would drive:
//
//   1. Read the file (bounded by the upload size cap)
//   2. Parse it into a session (UPLOAD -> PREVIEW)
//   3. Apply command-line corrections
//   4. Either write the payload to disk (dry run) or submit it
//      (PREVIEW -> IMPORTING -> COMPLETE)
//   5. Archive the input file when every trip was created
//
// Files are independent: an error in one file never stops the others.
//
// =============================================================================

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/importer"
	"github.com/ginjaninja78/fleet-trip-import/internal/payload"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
	"github.com/ginjaninja78/fleet-trip-import/pkg/utils"
)

// Error types written to the error log.
const (
	ErrorTypeFile       = "file"
	ErrorTypeValidation = "validation"
	ErrorTypeImport     = "import"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of importing a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// Success is set when the file was parsed and, unless this was a dry
	// run, submitted. Trips rejected by the backend do not clear it.
	Success bool

	// Error is the reason the file was not imported.
	Error error

	// State is the final session state, without rows.
	State session.State

	// Import is the outcome reported by the backend; nil on a dry run.
	Import *session.Result

	// PayloadFile is where a dry run wrote the payload.
	PayloadFile string

	// ArchivePath is where the input file was moved to.
	ArchivePath string

	// Errors are the row-level problems found in the file.
	Errors []utils.ErrorLogEntry

	ProcessingTime time.Duration
}

// =============================================================================
// RUNNER
// =============================================================================

// Options control how files are imported.
type Options struct {
	DryRun      bool
	Archive     bool
	Corrections []Correction

	// Concurrency bounds the number of files imported at once.
	Concurrency int
}

// Runner imports files through import sessions.
type Runner struct {
	submitter      session.Submitter
	credentials    bulkapi.CredentialsProvider
	files          *utils.FileManager
	maxUploadBytes int64
	sourceRemark   string
	logger         *zap.Logger
}

// Config wires a Runner.
type Config struct {
	Submitter      session.Submitter
	Credentials    bulkapi.CredentialsProvider
	Files          *utils.FileManager
	MaxUploadBytes int64
	SourceRemark   string
	Logger         *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		submitter:      cfg.Submitter,
		credentials:    cfg.Credentials,
		files:          cfg.Files,
		maxUploadBytes: cfg.MaxUploadBytes,
		sourceRemark:   cfg.SourceRemark,
		logger:         logger,
	}
}

// RunAll imports files concurrently and returns their results in input
// order.
func (r *Runner) RunAll(ctx context.Context, paths []string, opts Options) []Result {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result, len(paths))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = r.Run(ctx, path, opts)
		}(i, path)
	}

	wg.Wait()
	return results
}

// Run imports one file.
func (r *Runner) Run(ctx context.Context, path string, opts Options) (result Result) {
	start := time.Now()
	result = Result{FilePath: path}
	fileName := filepath.Base(path)
	logger := r.logger.With(zap.String("file", fileName))

	defer func() {
		result.ProcessingTime = time.Since(start)
	}()

	// =========================================================================
	// STEP 1: READ FILE
	// =========================================================================

	data, err := r.readFile(path)
	if err != nil {
		result.Error = err
		result.Errors = append(result.Errors, fileError(fileName, err))
		return result
	}

	// =========================================================================
	// STEP 2: PARSE
	// =========================================================================

	s := session.New(session.Options{
		Submitter:    r.submitter,
		Credentials:  r.credentials,
		Logger:       logger,
		SourceRemark: r.sourceRemark,
	})

	if _, err := s.Upload(fileName, data); err != nil {
		result.Error = err
		result.Errors = append(result.Errors, fileError(fileName, err))
		return result
	}

	// =========================================================================
	// STEP 3: CORRECTIONS
	// =========================================================================

	if err := Apply(s, opts.Corrections); err != nil {
		result.Error = err
		result.State = s.Snapshot()
		result.Errors = append(result.Errors, fileError(fileName, err))
		return result
	}

	all := s.SnapshotPage(1, max(s.Snapshot().TotalRows, 1), false)
	result.Errors = append(result.Errors, validationErrors(fileName, all.Rows)...)

	// =========================================================================
	// STEP 4: SUBMIT OR WRITE PAYLOAD
	// =========================================================================

	if opts.DryRun {
		result.State = s.Snapshot()
		p := payload.Build(all.Rows, payload.Options{SourceRemark: r.sourceRemark})
		if p.TripCount() == 0 {
			result.Error = session.ErrNoValidRows
			return result
		}
		payloadFile, err := r.writePayload(fileName, p)
		if err != nil {
			result.Error = err
			return result
		}
		result.PayloadFile = payloadFile
		result.Success = true
		logger.Info("Dry run payload written",
			zap.String("payload", payloadFile),
			zap.Int("trips", p.TripCount()),
			zap.Int("expenses", len(p.Expenses)))
		return result
	}

	imported, err := s.Import(ctx)
	result.State = s.Snapshot()
	if err != nil {
		result.Error = err
		result.Errors = append(result.Errors, fileError(fileName, err))
		return result
	}
	result.Import = imported
	result.Success = true
	for _, msg := range imported.Errors {
		result.Errors = append(result.Errors, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     fileName,
			ErrorType:    ErrorTypeImport,
			ErrorMessage: msg,
		})
	}

	// =========================================================================
	// STEP 5: ARCHIVE
	// =========================================================================

	if opts.Archive && r.files != nil && imported.Failed == 0 && imported.ExpensesFailed == 0 {
		archived, err := r.files.ArchiveInputFile(path)
		if err != nil {
			logger.Warn("Failed to archive input file", zap.Error(err))
		} else {
			result.ArchivePath = archived
		}
	}

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (r *Runner) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if r.maxUploadBytes > 0 && info.Size() > r.maxUploadBytes {
		return nil, fmt.Errorf("file is %d bytes, above the %d byte limit", info.Size(), r.maxUploadBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

func (r *Runner) writePayload(fileName string, p *payload.BulkImportPayload) (string, error) {
	if r.files == nil || r.files.OutputDir == "" {
		return "", errors.New("no output directory configured for the dry run payload")
	}
	if err := r.files.EnsureDirectories(); err != nil {
		return "", err
	}

	original := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	name := utils.GenerateOutputFileName("{original}_payload_{timestamp}", map[string]string{"original": original}, ".json")
	path := filepath.Join(r.files.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create payload file: %w", err)
	}
	defer f.Close()

	if err := p.WriteJSON(f); err != nil {
		return "", fmt.Errorf("failed to write payload file: %w", err)
	}
	return path, nil
}

func fileError(fileName string, err error) utils.ErrorLogEntry {
	return utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     fileName,
		ErrorType:    ErrorTypeFile,
		ErrorMessage: err.Error(),
	}
}

func validationErrors(fileName string, rows []importer.ImportRow) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	now := time.Now()
	for _, row := range rows {
		for _, msg := range row.Errors {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp:    now,
				FileName:     fileName,
				ErrorType:    ErrorTypeValidation,
				ErrorMessage: msg,
				RowNumber:    row.RowNumber,
				TripNo:       row.TripNo,
			})
		}
	}
	return entries
}
