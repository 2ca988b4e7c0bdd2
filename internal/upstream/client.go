// Package upstream provides connectivity to the forecast backend that owns
// all business data. This service never talks to a business database
// directly; every dataset, mutation and dropdown comes through here.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

const (
	// Default retry configuration for transient failures
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	// Default health check timeout
	defaultHealthCheckTimeout = 5 * time.Second

	// Cap on error bodies read back for diagnostics
	maxErrorBodyBytes = 64 * 1024
)

// Error is a failed upstream call. Message carries whatever detail the
// backend returned; StatusCode is the upstream HTTP status.
type Error struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// IsNotFound reports whether an error is an upstream 404
func IsNotFound(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether an error is an upstream 401
func IsUnauthorized(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.StatusCode == http.StatusUnauthorized
}

// Client talks to the forecast backend. It forwards the caller's bearer
// token on every request and retries idempotent calls on transient
// failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	config     *config.UpstreamConfig
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// HealthStatus represents the health check result for the upstream backend
type HealthStatus struct {
	Status  string        `json:"status"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

// NewClient creates a new upstream client with the given configuration
func NewClient(cfg *config.UpstreamConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid upstream base URL: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.RetryBackoffDuration()
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}

	logger.Info("Initializing upstream client",
		zap.String("base_url", baseURL),
		zap.Int("request_timeout_seconds", cfg.RequestTimeout),
		zap.Int("max_retries", maxRetries),
	)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeoutDuration(),
		},
		config:     cfg,
		logger:     logger,
		maxRetries: maxRetries,
		backoff:    backoff,
	}, nil
}

// HealthCheck probes the backend's health endpoint
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return &HealthStatus{Status: "unhealthy", Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)

	status := &HealthStatus{Latency: latency}
	if err != nil {
		c.logger.Warn("Upstream health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		status.Status = "healthy"
	} else {
		status.Status = "unhealthy"
		status.Error = fmt.Sprintf("health endpoint returned status %d", resp.StatusCode)
	}
	return status
}

// get performs a GET against the backend, decoding the JSON response into
// out. Transient failures (transport errors, 502/503/504) are retried
// with exponential backoff since GETs are idempotent.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == c.maxRetries {
			return err
		}

		c.logger.Warn("Retrying upstream request",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxRetries),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
	}

	return lastErr
}

// post performs a POST with a JSON body. Mutations are never retried.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// put performs a PUT with a JSON body. Mutations are never retried.
func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// del performs a DELETE. Mutations are never retried.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := extractError(resp)
		c.logger.Warn("Upstream returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Message),
			zap.Duration("duration", time.Since(start)),
		)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode upstream response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	}

	c.logger.Debug("Upstream request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// postMultipart sends a multipart body as-is, e.g. a workbook upload
func (c *Client) postMultipart(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return extractError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}
	return nil
}

// extractError builds an Error from a non-2xx response. The backend
// usually sends {"detail": "..."}; some endpoints use {"message": "..."}.
// Anything else falls back to the raw body text.
func extractError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			return &Error{StatusCode: resp.StatusCode, Message: payload.Detail}
		}
		if payload.Message != "" {
			return &Error{StatusCode: resp.StatusCode, Message: payload.Message}
		}
	}

	msg := strings.TrimSpace(string(raw))
	return &Error{StatusCode: resp.StatusCode, Message: msg}
}

func isRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		switch ue.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// Transport-level failures are worth another attempt
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
