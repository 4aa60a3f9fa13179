package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/leetrag/internal/domain"
)

// DefaultParserTimeout bounds each parser-service request.
const DefaultParserTimeout = 60 * time.Second

// ParserClient fetches problems from the parser service
// (POST {base}/problem {"slug": ...}). It is safe for concurrent use.
type ParserClient struct {
	// baseURL is the parser service root (e.g. "http://localhost:8001").
	baseURL string
	// client is the shared HTTP client bounded by the configured timeout.
	client *http.Client
}

// NewParserClient constructs a ParserClient. timeout <= 0 selects
// DefaultParserTimeout.
func NewParserClient(baseURL string, timeout time.Duration) *ParserClient {
	if timeout <= 0 {
		timeout = DefaultParserTimeout
	}
	return &ParserClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// parserError is the error body returned by the parser service.
type parserError struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type"`
}

// FetchProblem requests slug from the parser service. 404 maps to
// domain.ErrNotFound, 403 to domain.ErrPaidOnly, and every other failure to
// domain.ErrUpstreamUnavailable.
func (c *ParserClient) FetchProblem(ctx context.Context, slug string) (domain.Record, error) {
	payload, err := json.Marshal(map[string]string{"slug": slug})
	if err != nil {
		return domain.Record{}, fmt.Errorf("parser: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/problem", bytes.NewReader(payload))
	if err != nil {
		return domain.Record{}, fmt.Errorf("parser: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Record{}, fmt.Errorf("parser: %q: %w", slug, domain.Unavailable("parser", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return domain.Record{}, fmt.Errorf("parser: %q: read body: %w", slug, domain.Unavailable("parser", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Record{}, fmt.Errorf("parser: %q: %w", slug, domain.ErrNotFound)
	case resp.StatusCode == http.StatusForbidden:
		return domain.Record{}, fmt.Errorf("parser: %q: %w", slug, domain.ErrPaidOnly)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var pe parserError
		if json.Unmarshal(body, &pe) == nil && pe.Detail != "" {
			msg += ": " + pe.Detail
		}
		return domain.Record{}, fmt.Errorf("parser: %q: %w", slug, domain.Unavailable("parser", fmt.Errorf("%s", msg)))
	}

	var rec domain.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("parser: %q: decode response: %w", slug, domain.Unavailable("parser", err))
	}
	return rec, nil
}
