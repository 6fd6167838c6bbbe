package sheety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"fundboss/backend/models"
)

// APIError is a non-2xx response from Sheety.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("error from Sheety API (%d): %s", e.StatusCode, e.Body)
}

func (e *APIError) Details() string {
	return e.Body
}

type Options struct {
	BaseURL string // default https://api.sheety.co
	UserID  string
	Project string
	Token   string // optional bearer token

	// Tables maps each sheet to its remote table name; unmapped sheets use
	// their own name.
	Tables map[models.Sheet]string

	HTTPClient  *http.Client
	RatePerSec  float64 // <= 0 disables the limiter
	MaxAttempts int
	Backoff     time.Duration
	Logger      *slog.Logger
}

// Client talks to one Sheety project. Sheety exposes each sheet as a REST
// collection and expects payloads wrapped in a key named after the sheet.
type Client struct {
	baseURL     string
	userID      string
	project     string
	token       string
	tables      map[models.Sheet]string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     opts.BaseURL,
		userID:      opts.UserID,
		project:     opts.Project,
		token:       opts.Token,
		tables:      opts.Tables,
		httpClient:  opts.HTTPClient,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.sheety.co"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if c.backoff <= 0 {
		c.backoff = 200 * time.Millisecond
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return c
}

func (c *Client) table(sheet models.Sheet) string {
	if name, ok := c.tables[sheet]; ok && name != "" {
		return name
	}
	return string(sheet)
}

func (c *Client) collectionURL(project, table string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, url.PathEscape(c.userID), url.PathEscape(project), url.PathEscape(table))
}

func (c *Client) rowURL(table string, rowID models.RowID) string {
	return c.collectionURL(c.project, table) + "/" + strconv.Itoa(int(rowID))
}

func (c *Client) CreateRow(ctx context.Context, sheet models.Sheet, fields map[string]any) (models.Row, error) {
	table := c.table(sheet)
	body, err := c.do(ctx, http.MethodPost, c.collectionURL(c.project, table), envelope(table, fields), uuid.NewString(), true)
	if err != nil {
		return models.Row{}, fmt.Errorf("error creating Sheety row in %s: %w", table, err)
	}
	row, err := decodeRow(table, body)
	if err != nil {
		return models.Row{}, err
	}
	c.logger.Debug("created Sheety row", "table", table, "rowId", row.ID)
	return row, nil
}

func (c *Client) UpdateRow(ctx context.Context, sheet models.Sheet, rowID models.RowID, fields map[string]any) (models.Row, error) {
	table := c.table(sheet)
	body, err := c.do(ctx, http.MethodPut, c.rowURL(table, rowID), envelope(table, fields), "", false)
	if err != nil {
		return models.Row{}, fmt.Errorf("error updating Sheety row %d in %s: %w", rowID, table, err)
	}
	row, err := decodeRow(table, body)
	if err != nil {
		return models.Row{}, err
	}
	if row.ID == 0 {
		row.ID = rowID
	}
	c.logger.Debug("updated Sheety row", "table", table, "rowId", row.ID)
	return row, nil
}

// GetRow reads a single row.
func (c *Client) GetRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) (models.Row, error) {
	table := c.table(sheet)
	body, err := c.do(ctx, http.MethodGet, c.rowURL(table, rowID), nil, "", true)
	if err != nil {
		return models.Row{}, fmt.Errorf("error reading Sheety row %d in %s: %w", rowID, table, err)
	}
	return decodeRow(table, body)
}

func (c *Client) DeleteRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) error {
	table := c.table(sheet)
	if _, err := c.do(ctx, http.MethodDelete, c.rowURL(table, rowID), nil, "", false); err != nil {
		return fmt.Errorf("error deleting Sheety row %d in %s: %w", rowID, table, err)
	}
	c.logger.Debug("deleted Sheety row", "table", table, "rowId", rowID)
	return nil
}

// CheckSheet issues a single GET against project/table and returns the HTTP
// status. Transport failures are returned as errors; non-2xx statuses are not.
func (c *Client) CheckSheet(ctx context.Context, project, table string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.collectionURL(project, table), nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// do sends the request with exponential backoff between attempts. A 429 is
// always retried since Sheety rejected the call before applying it.
// Transport errors and 5xx are retried only when retryUnknown is set: row
// ids are positions, so repeating a PUT or DELETE that may have landed can
// hit the lead that moved into the row. idempotencyKey is reused across
// attempts.
func (c *Client) do(ctx context.Context, method, target string, payload any, idempotencyKey string, retryUnknown bool) ([]byte, error) {
	var jsonPayload []byte
	if payload != nil {
		var err error
		jsonPayload, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("error creating payload: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				// the limiter refuses waits that would overrun the deadline
				return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
		}

		body, outcome, err := c.send(ctx, method, target, jsonPayload, idempotencyKey)
		if err == nil {
			return body, nil
		}
		lastErr = err
		retry := outcome == rejected || (outcome == unknown && retryUnknown)
		if !retry || attempt == c.maxAttempts || ctx.Err() != nil {
			break
		}

		wait := c.backoff << (attempt - 1)
		c.logger.Warn("Sheety request failed, retrying", "method", method, "url", target, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, errors.Join(lastErr, ctx.Err())
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// outcome classifies a failed attempt by whether Sheety may have applied it.
type outcome int

const (
	failed   outcome = iota // definite failure, not worth repeating
	rejected                // refused before being applied
	unknown                 // may or may not have been applied
)

func (c *Client) send(ctx context.Context, method, target string, jsonPayload []byte, idempotencyKey string) ([]byte, outcome, error) {
	var reqBody io.Reader
	if jsonPayload != nil {
		reqBody = bytes.NewReader(jsonPayload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, failed, fmt.Errorf("error creating request: %w", err)
	}
	if jsonPayload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unknown, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unknown, fmt.Errorf("error reading response: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, failed, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, rejected, apiErr
	case resp.StatusCode >= 500:
		return nil, unknown, apiErr
	}
	return nil, failed, apiErr
}

func envelope(table string, fields map[string]any) map[string]any {
	return map[string]any{table: fields}
}

// decodeRow reads {"<table>": {"id": N, ...}}. Sheety singularizes some
// table names in responses, so a lone key is accepted too.
func decodeRow(table string, body []byte) (models.Row, error) {
	var wrapped map[string]map[string]any
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return models.Row{}, fmt.Errorf("error parsing response: %w", err)
	}
	fields, ok := wrapped[table]
	if !ok && len(wrapped) == 1 {
		for _, v := range wrapped {
			fields = v
		}
		ok = true
	}
	if !ok {
		return models.Row{}, fmt.Errorf("error parsing response: missing %q object", table)
	}

	row := models.Row{Fields: fields}
	switch id := fields["id"].(type) {
	case float64:
		row.ID = models.RowID(id)
	case string:
		n, err := strconv.Atoi(id)
		if err == nil {
			row.ID = models.RowID(n)
		}
	}
	return row, nil
}
