// Package bulkapi is the client of the fleet backend's bulk import endpoint.
//
// One import is one request: trips, expenses, categories and vehicles are
// posted together and the backend reports per-item results. The client does
// not retry and does not split large uploads.
package bulkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/payload"
)

// BulkImportPath is the endpoint path relative to the API base URL.
const BulkImportPath = "/api/import/bulk"

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("bulk import API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("bulk import API returned status %d: %s", e.StatusCode, body)
}

// Client posts bulk import payloads.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API at baseURL. A zero timeout leaves
// requests bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Submit sends the payload in a single request and decodes the backend's
// per-item report.
func (c *Client) Submit(ctx context.Context, creds Credentials, p *payload.BulkImportPayload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	requestID := uuid.New().String()
	url := c.baseURL + BulkImportPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+creds.Token)
	httpReq.Header.Set("X-Organization-Id", creds.OrganizationID)
	httpReq.Header.Set("X-Request-Id", requestID)

	c.logger.Info("Submitting bulk import",
		zap.String("request_id", requestID),
		zap.String("organization_id", creds.OrganizationID),
		zap.Int("trips", len(p.Trips)),
		zap.Int("expenses", len(p.Expenses)),
		zap.Int("categories", len(p.ExpenseCategories)),
		zap.Int("vehicles", len(p.Vehicles)))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Bulk import request failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to send bulk import: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Bulk import rejected",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(respBody)))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Info("Bulk import completed",
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
		zap.Int("trips_created", result.TripsCreated),
		zap.Int("trips_failed", result.TripsFailed),
		zap.Int("expenses_created", result.ExpensesCreated),
		zap.Int("expenses_failed", result.ExpensesFailed),
		zap.Int("categories_created", result.CategoriesCreated))

	return &result, nil
}
