// =============================================================================
// Trip Import - Import Session
// =============================================================================
//
// A Session drives one file through the import lifecycle:
//
//   UPLOAD -> PREVIEW -> IMPORTING -> COMPLETE
//
// Upload parses the file and moves to PREVIEW. In PREVIEW rows can be edited
// and expense amounts changed. Import builds the bulk payload from the valid
// rows, submits it in one request and records the result. Reset returns to
// UPLOAD from any phase and drops everything the session held.
//
// CONCURRENCY:
//   All state is guarded by one mutex. The mutex is released while the bulk
//   request is in flight so the session can still be inspected or reset. A
//   generation counter tells a returning import whether the session was
//   reset meanwhile; if it was, the result is discarded.
//
// =============================================================================

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/importer"
	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/payload"
	"github.com/ginjaninja78/fleet-trip-import/internal/session/phase"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrParseFailed is returned when an uploaded file cannot be read or has
	// no data rows.
	ErrParseFailed = errors.New("failed to parse file")

	// ErrNoValidRows is returned by Import when no row passed validation.
	ErrNoValidRows = errors.New("no valid rows to import")

	// ErrCredentialsUnavailable is returned by Import when no usable
	// credentials exist. No request is sent.
	ErrCredentialsUnavailable = errors.New("authentication credentials unavailable")

	// ErrWrongPhase is returned when an operation is not allowed in the
	// current phase.
	ErrWrongPhase = errors.New("operation not allowed in current phase")

	// ErrSessionReset is returned by Import when the session was reset while
	// the request was in flight.
	ErrSessionReset = errors.New("session was reset during import")
)

// Submitter sends a bulk payload to the backend.
type Submitter interface {
	Submit(ctx context.Context, creds bulkapi.Credentials, p *payload.BulkImportPayload) (*bulkapi.Response, error)
}

// Options configures a session.
type Options struct {
	Submitter   Submitter
	Credentials bulkapi.CredentialsProvider
	Notifier    Notifier
	Logger      *zap.Logger

	// SourceRemark is written on every imported expense.
	SourceRemark string
}

// State is a point-in-time copy of a session.
type State struct {
	ID          string                 `json:"sessionId" yaml:"session_id"`
	Phase       phase.Phase            `json:"phase" yaml:"phase"`
	FileName    string                 `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	SheetName   string                 `json:"sheetName,omitempty" yaml:"sheet_name,omitempty"`
	Headers     []string               `json:"headers,omitempty" yaml:"headers,omitempty"`
	TotalRows   int                    `json:"totalRows" yaml:"total_rows"`
	ValidRows   int                    `json:"validRows" yaml:"valid_rows"`
	InvalidRows int                    `json:"invalidRows" yaml:"invalid_rows"`
	Schema      *importer.SchemaReport `json:"schema,omitempty" yaml:"schema,omitempty"`
	Progress    Progress               `json:"progress" yaml:"progress"`
	Result      *Result                `json:"result,omitempty" yaml:"result,omitempty"`
	UpdatedAt   time.Time              `json:"updatedAt" yaml:"updated_at"`
	CanImport   bool                   `json:"canImport" yaml:"can_import"`
	Actions     []phase.Trigger        `json:"actions" yaml:"actions"`
	PageCount   int                    `json:"pageCount,omitempty" yaml:"page_count,omitempty"`
	PageSize    int                    `json:"pageSize,omitempty" yaml:"page_size,omitempty"`
	Rows        []importer.ImportRow   `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Session is one import of one file.
type Session struct {
	id string

	mu         sync.Mutex
	machine    *phase.Machine
	outcome    *importer.ParseOutcome
	progress   Progress
	result     *Result
	generation uint64
	updatedAt  time.Time

	submitter    Submitter
	credentials  bulkapi.CredentialsProvider
	notifier     Notifier
	logger       *zap.Logger
	sourceRemark string
}

// New creates a session in the UPLOAD phase.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	s := &Session{
		id:           uuid.New().String(),
		submitter:    opts.Submitter,
		credentials:  opts.Credentials,
		notifier:     notifier,
		sourceRemark: opts.SourceRemark,
		updatedAt:    time.Now(),
	}
	s.logger = logger.With(zap.String("session_id", s.id))
	s.machine = phase.NewImportMachine(s.hasValidRows)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// hasValidRows guards START_IMPORT. Callers hold s.mu.
func (s *Session) hasValidRows(context.Context) bool {
	return s.outcome != nil && s.outcome.ValidCount() > 0
}

// =============================================================================
// UPLOAD
// =============================================================================

// Upload parses a file and moves the session to PREVIEW.
//
// A file that cannot be parsed leaves the session in UPLOAD; the outcome is
// still returned so the caller can show the error.
func (s *Session) Upload(fileName string, data []byte) (*importer.ParseOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.CanFire(phase.TriggerParseSucceeded) {
		return nil, fmt.Errorf("%w: upload requires %s, session is %s", ErrWrongPhase, phase.Upload, s.machine.Phase())
	}

	start := time.Now()
	outcome := importer.ParseFile(fileName, data)
	if !outcome.Success {
		s.logger.Warn("Failed to parse upload",
			zap.String("file", fileName),
			zap.Int("bytes", len(data)),
			zap.Error(outcome.Err()))
		s.notifier.Notify(Notification{Level: LevelError, Title: "Could not read file", Message: outcome.Error})
		return outcome, fmt.Errorf("%w: %w", ErrParseFailed, outcome.Err())
	}

	s.outcome = outcome
	if err := s.machine.Fire(context.Background(), phase.TriggerParseSucceeded); err != nil {
		return nil, err
	}
	s.touch()

	s.logger.Info("File parsed",
		zap.String("file", fileName),
		zap.String("sheet", outcome.SheetName),
		zap.Int("rows", len(outcome.Rows)),
		zap.Int("valid", outcome.ValidCount()),
		zap.Int("invalid", outcome.InvalidCount()),
		zap.Strings("extra_fields", outcome.ExtraFields),
		zap.Duration("duration", time.Since(start)))
	s.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "File parsed",
		Message: fmt.Sprintf("%d rows read: %d valid, %d invalid", len(outcome.Rows), outcome.ValidCount(), outcome.InvalidCount()),
	})

	return outcome, nil
}

// =============================================================================
// CORRECTIONS
// =============================================================================

// UpdateField edits one field of a row during PREVIEW.
func (s *Session) UpdateField(index int, field mapping.Field, value string) (importer.ImportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requirePhase(phase.Preview, "edit rows"); err != nil {
		return importer.ImportRow{}, err
	}

	row, err := s.outcome.UpdateField(index, field, value)
	if err != nil {
		return importer.ImportRow{}, err
	}
	s.touch()

	s.logger.Debug("Row field updated",
		zap.Int("index", index),
		zap.String("field", field.String()),
		zap.Bool("valid", row.IsValid))
	return row, nil
}

// SetExpense changes an expense amount of a row during PREVIEW.
func (s *Session) SetExpense(index int, category string, amount float64) (importer.ImportRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requirePhase(phase.Preview, "edit expenses"); err != nil {
		return importer.ImportRow{}, err
	}

	row, err := s.outcome.SetExpense(index, category, amount)
	if err != nil {
		return importer.ImportRow{}, err
	}
	s.touch()

	s.logger.Debug("Row expense updated",
		zap.Int("index", index),
		zap.String("category", category),
		zap.Float64("amount", amount))
	return row, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// Import submits the valid rows in one bulk request.
//
// Preconditions (a valid row exists, credentials are usable) are checked
// before anything is sent; a failed precondition leaves the session in
// PREVIEW. Once the request is sent the session always ends in COMPLETE: a
// transport or backend failure becomes a result with every trip failed.
func (s *Session) Import(ctx context.Context) (*Result, error) {
	s.mu.Lock()

	if err := s.requirePhase(phase.Preview, "import"); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if s.submitter == nil {
		s.mu.Unlock()
		return nil, errors.New("session has no bulk import submitter")
	}

	if !s.hasValidRows(ctx) {
		s.notifier.Notify(Notification{Level: LevelError, Title: "Nothing to import", Message: "Fix the invalid rows before importing."})
		s.mu.Unlock()
		return nil, ErrNoValidRows
	}

	creds, err := s.resolveCredentials(ctx)
	if err != nil {
		s.logger.Warn("Import blocked: credentials unavailable", zap.Error(err))
		s.notifier.Notify(Notification{Level: LevelError, Title: "Not signed in", Message: "Sign in again and retry the import."})
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrCredentialsUnavailable, err)
	}

	p := payload.Build(s.outcome.Rows, payload.Options{SourceRemark: s.sourceRemark})

	if err := s.machine.Fire(ctx, phase.TriggerStartImport); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrWrongPhase, err)
	}
	s.progress = Progress{Total: len(p.Trips)}
	s.touch()
	generation := s.generation
	s.mu.Unlock()

	start := time.Now()
	resp, submitErr := s.submitter.Submit(ctx, creds, p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		s.logger.Warn("Discarding import result: session was reset",
			zap.Int("trips", len(p.Trips)),
			zap.Error(submitErr))
		return nil, ErrSessionReset
	}

	if submitErr == nil && resp == nil {
		submitErr = errors.New("bulk import returned no response")
	}

	var result *Result
	if submitErr != nil {
		s.logger.Error("Bulk import failed",
			zap.Int("trips", len(p.Trips)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(submitErr))
		result = failedResult(p, submitErr)
	} else {
		result = resultFromResponse(p, resp)
	}

	s.result = result
	s.progress.Processed = s.progress.Total
	if err := s.machine.Fire(ctx, phase.TriggerImportFinished); err != nil {
		return nil, err
	}
	s.touch()

	s.notifyResult(result)
	return result.clone(), nil
}

func (s *Session) resolveCredentials(ctx context.Context) (bulkapi.Credentials, error) {
	if s.credentials == nil {
		return bulkapi.Credentials{}, bulkapi.ErrMissingCredentials
	}
	creds, err := s.credentials.Credentials(ctx)
	if err != nil {
		return bulkapi.Credentials{}, err
	}
	if err := creds.Check(); err != nil {
		return bulkapi.Credentials{}, err
	}
	return creds, nil
}

func (s *Session) notifyResult(result *Result) {
	switch {
	case result.Success == 0 && result.Failed > 0:
		s.notifier.Notify(Notification{
			Level:   LevelError,
			Title:   "Import failed",
			Message: fmt.Sprintf("%d trips could not be imported", result.Failed),
		})
	case result.Failed > 0 || result.ExpensesFailed > 0:
		s.notifier.Notify(Notification{
			Level:   LevelError,
			Title:   "Import completed with errors",
			Message: fmt.Sprintf("%d trips imported, %d failed; %d expenses failed", result.Success, result.Failed, result.ExpensesFailed),
		})
	default:
		s.notifier.Notify(Notification{
			Level:   LevelSuccess,
			Title:   "Import complete",
			Message: fmt.Sprintf("%d trips and %d expenses imported", result.Success, result.ExpensesCreated),
		})
	}
}

// =============================================================================
// RESET / INSPECTION
// =============================================================================

// Reset discards the file, edits and result and returns to UPLOAD. An import
// in flight is not cancelled; its result is dropped when it returns.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.machine.Phase()
	if err := s.machine.Fire(context.Background(), phase.TriggerReset); err != nil {
		s.logger.Debug("Reset transition rejected", zap.String("from", from.String()), zap.Error(err))
	}

	s.generation++
	s.outcome = nil
	s.result = nil
	s.progress = Progress{}
	s.touch()

	s.logger.Info("Session reset", zap.String("from", from.String()))
	if from != phase.Upload {
		s.notifier.Notify(Notification{Level: LevelInfo, Title: "Import reset", Message: "Upload a file to start again."})
	}
}

// Phase returns the current phase.
func (s *Session) Phase() phase.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Phase()
}

// Snapshot returns a copy of the session state without rows.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SnapshotPage returns the session state with one page of rows. When
// invalidOnly is set the page is taken from the invalid rows only.
func (s *Session) SnapshotPage(page, size int, invalidOnly bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.snapshot()
	if s.outcome == nil {
		return state
	}

	source := s.outcome
	if invalidOnly {
		source = &importer.ParseOutcome{Rows: s.outcome.InvalidRows()}
	}
	if size <= 0 {
		size = importer.DefaultPageSize
	}

	rows := source.Page(page, size)
	state.Rows = make([]importer.ImportRow, len(rows))
	for i, row := range rows {
		state.Rows[i] = row.Clone()
	}
	state.PageCount = source.PageCount(size)
	state.PageSize = size
	return state
}

func (s *Session) snapshot() State {
	state := State{
		ID:        s.id,
		Phase:     s.machine.Phase(),
		Progress:  s.progress,
		Result:    s.result.clone(),
		UpdatedAt: s.updatedAt,
		Actions:   s.machine.PermittedTriggers(),
	}
	if s.outcome != nil {
		schema := s.outcome.SchemaReport
		state.FileName = s.outcome.FileName
		state.SheetName = s.outcome.SheetName
		state.Headers = append([]string{}, s.outcome.Headers...)
		state.TotalRows = len(s.outcome.Rows)
		state.ValidRows = s.outcome.ValidCount()
		state.InvalidRows = s.outcome.InvalidCount()
		state.Schema = &schema
		state.CanImport = state.Phase == phase.Preview && state.ValidRows > 0
	}
	return state
}

// UpdatedAt returns when the session last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) requirePhase(want phase.Phase, action string) error {
	if current := s.machine.Phase(); current != want {
		return fmt.Errorf("%w: cannot %s in %s", ErrWrongPhase, action, current)
	}
	return nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}
