package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/metrics"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Client is the typed HTTP client for the quality backend's REST surface.
// The scoring engine, PII model and scheduler all live behind these
// endpoints; this client only fetches and forwards.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger

	retries   int
	backoffMS int // base backoff (ms) for attempt 1; then doubles

	// breaker guards the summary endpoint, which the polling loop hits on
	// a fixed interval. Repeated backend failures open it so a dead
	// backend is not hammered every tick.
	breaker *gobreaker.CircuitBreaker
}

func NewClient(cfg config.BackendConfig, log logger.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	backoff := cfg.BackoffMS
	if backoff <= 0 {
		backoff = 1000
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "quality-summary",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:   cfg.BaseURL,
		token:     cfg.BearerToken,
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		logger:    log,
		retries:   retries,
		backoffMS: backoff,
		breaker:   breaker,
	}
}

// envelope is the {success, data} wrapper every JSON endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) doRequestWithRetry(
	ctx context.Context,
	operation, method, urlStr string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	var lastErr error
	backoff := time.Duration(c.backoffMS) * time.Millisecond
	start := time.Now()

	for attempt := 1; attempt <= c.retries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.client.Do(req)
		// transport error (timeout, connection refused, etc.)
		if err != nil {
			lastErr = err
			c.logger.Warn("quality backend request failed (transport)",
				"attempt", attempt, "operation", operation, "method", method, "error", err)
		} else if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
			_ = resp.Body.Close()
			c.logger.Warn("quality backend 5xx response, retrying",
				"attempt", attempt, "operation", operation, "status", resp.StatusCode)
		} else {
			// success or non-retryable status
			metrics.BackendRequestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
			metrics.BackendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
			return resp, nil
		}

		if attempt == c.retries || ctx.Err() != nil {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			metrics.BackendRequestsTotal.WithLabelValues(operation, "ctx_cancelled").Inc()
			return nil, ctx.Err()
		}
	}

	metrics.BackendRequestsTotal.WithLabelValues(operation, "exhausted").Inc()
	c.logger.Error("quality backend request exhausted retries",
		"operation", operation, "method", method, "retries", c.retries, "error", lastErr)
	return nil, lastErr
}

// getJSON performs a GET and unwraps the {success, data} envelope into out.
func (c *Client) getJSON(ctx context.Context, operation, urlStr string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doRequestWithRetry(ctx, operation, http.MethodGet, urlStr, nil, nil)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, operation, out)
}

// postJSON performs a POST with a JSON body and unwraps the envelope.
func (c *Client) postJSON(ctx context.Context, operation, urlStr string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s marshal request: %w", operation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doRequestWithRetry(ctx, operation, http.MethodPost, urlStr, body, nil)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, operation, out)
}

func decodeEnvelope(resp *http.Response, operation string, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, readBodySnippet(resp.Body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", operation, err)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s: backend reported failure: %s", operation, env.Error)
		}
		return fmt.Errorf("%s: backend reported failure", operation)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: failed to parse data payload: %w", operation, err)
	}
	return nil
}

// readBodySnippet returns a short text excerpt from an HTTP body for error messages.
func readBodySnippet(r io.Reader) string {
	const max = 8 << 10 // 8KB
	b, _ := io.ReadAll(io.LimitReader(r, max))
	return string(b)
}
