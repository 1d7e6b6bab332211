package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// HTTPClient talks to the suggestion backend. It never retries; a failed
// request is reported and the user may simply try again.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewHTTPClient builds a client against baseURL, e.g. https://localhost:3000.
// A zero timeout leaves the request bounded only by ctx.
func NewHTTPClient(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	if log == nil {
		log = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Suggest posts req to /api/suggest and returns the parsed suggestion.
func (c *HTTPClient) Suggest(ctx context.Context, req Request) (Result, error) {
	var resp Response
	if err := c.post(ctx, "/api/suggest", req, &resp); err != nil {
		return Result{}, err
	}
	if resp.Suggestion == nil {
		return Result{}, fmt.Errorf("%w: missing suggestion field", ErrMalformedResponse)
	}
	c.log.Debug("suggestion received", "id", resp.ID, "cached", resp.Cached)
	return Result{Suggestion: *resp.Suggestion, ID: resp.ID, Cached: resp.Cached}, nil
}

// SendFeedback rates a previously returned suggestion.
func (c *HTTPClient) SendFeedback(ctx context.Context, id string, fb Feedback) error {
	return c.post(ctx, "/api/suggestions/"+url.PathEscape(id)+"/feedback", fb, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}
	c.log.Debug("backend call",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
