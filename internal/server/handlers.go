package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/config"
	"github.com/ginjaninja78/fleet-trip-import/internal/importer"
	"github.com/ginjaninja78/fleet-trip-import/internal/mapping"
	"github.com/ginjaninja78/fleet-trip-import/internal/parser"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
)

// OrganizationHeader carries the organization of the caller.
const OrganizationHeader = "X-Organization-Id"

// multipartOverhead is the allowance for multipart framing on top of the
// file size cap.
const multipartOverhead = 1 << 20

// Handlers contains all HTTP request handlers
type Handlers struct {
	store   *Store
	cfg     config.ImportConfig
	logger  *zap.Logger
	version string
}

// NewHandlers creates a new Handlers instance
func NewHandlers(store *Store, cfg config.ImportConfig, logger *zap.Logger, version string) *Handlers {
	return &Handlers{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		version: version,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Sessions  int    `json:"sessions"`
}

// SessionResponse wraps a session state in API responses.
type SessionResponse struct {
	SessionID string        `json:"sessionId"`
	State     session.State `json:"state"`
}

// UpdateRowRequest edits either a canonical field or an expense category.
type UpdateRowRequest struct {
	Field    string   `json:"field"`
	Value    string   `json:"value"`
	Category string   `json:"category"`
	Amount   *float64 `json:"amount"`
}

// SessionQuery selects the page of rows returned with a session.
type SessionQuery struct {
	Page        int  `form:"page"`
	Size        int  `form:"size"`
	InvalidOnly bool `form:"invalid"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
			Sessions:  h.store.Len(),
		},
	})
}

// CreateSession handles POST /api/import/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
			return
		}
		h.fail(c, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	if !parser.IsSupported(header.Filename) {
		h.fail(c, http.StatusUnprocessableEntity, fmt.Sprintf("unsupported file type %q: upload a %s file",
			filepath.Ext(header.Filename), strings.Join(parser.SupportedExtensions, ", ")))
		return
	}
	if header.Size > h.cfg.MaxUploadBytes {
		h.fail(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	f, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadBytes+1))
	if err != nil {
		h.logger.Error("Failed to read upload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		h.fail(c, http.StatusRequestEntityTooLarge, h.tooLargeMessage())
		return
	}

	s := h.store.Create()
	outcome, err := s.Upload(header.Filename, data)
	if err != nil {
		h.store.Delete(s.ID())
		message := err.Error()
		if outcome != nil && outcome.Error != "" {
			message = outcome.Error
		}
		h.fail(c, statusFor(err), message)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    SessionResponse{SessionID: s.ID(), State: s.SnapshotPage(1, h.cfg.PageSize, false)},
	})
}

// GetSession handles GET /api/import/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var q SessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 1000 {
		q.Size = h.cfg.PageSize
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    SessionResponse{SessionID: s.ID(), State: s.SnapshotPage(q.Page, q.Size, q.InvalidOnly)},
	})
}

// UpdateRow handles PATCH /api/import/sessions/:id/rows/:index
func (h *Handlers) UpdateRow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "row index must be an integer")
		return
	}

	var req UpdateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var row importer.ImportRow
	switch {
	case req.Field != "":
		field, ok := mapping.ParseField(req.Field)
		if !ok {
			h.fail(c, http.StatusBadRequest, fmt.Sprintf("unknown field %q", req.Field))
			return
		}
		row, err = s.UpdateField(index, field, req.Value)
	case strings.TrimSpace(req.Category) != "" && req.Amount != nil:
		row, err = s.SetExpense(index, req.Category, *req.Amount)
	default:
		h.fail(c, http.StatusBadRequest, "either field or category and amount are required")
		return
	}
	if err != nil {
		h.fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: row})
}

// StartImport handles POST /api/import/sessions/:id/import
//
// The bearer token and organization header of the request are used for the
// bulk request; the configured credentials fill whatever is missing. The
// bulk request is not tied to the caller's connection: once sent it runs
// until the backend answers or the client timeout expires.
func (h *Handlers) StartImport(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	ctx := bulkapi.WithCredentials(context.WithoutCancel(c.Request.Context()), bulkapi.Credentials{
		Token:          bulkapi.BearerToken(c.GetHeader("Authorization")),
		OrganizationID: c.GetHeader(OrganizationHeader),
	})

	if _, err := s.Import(ctx); err != nil {
		h.fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    SessionResponse{SessionID: s.ID(), State: s.Snapshot()},
	})
}

// DeleteSession handles DELETE /api/import/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	if !h.store.Delete(c.Param("id")) {
		h.fail(c, http.StatusNotFound, "import session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, ok := h.store.Get(c.Param("id"))
	if !ok {
		h.fail(c, http.StatusNotFound, "import session not found")
	}
	return s, ok
}

func (h *Handlers) fail(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.String("error", message))
	}
	c.JSON(status, Response{Success: false, Error: message})
}

func (h *Handlers) tooLargeMessage() string {
	return fmt.Sprintf("file exceeds the %d byte upload limit", h.cfg.MaxUploadBytes)
}

// statusFor maps session and correction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrCredentialsUnavailable):
		return http.StatusPreconditionFailed
	case errors.Is(err, session.ErrNoValidRows),
		errors.Is(err, session.ErrWrongPhase),
		errors.Is(err, session.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, importer.ErrRowOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
