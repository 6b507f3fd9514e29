// Package client is the Go SDK for the hot spring review API. It mirrors
// the server's wire shapes and keeps a local, ordered review cache that only
// changes after the server confirms a mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tago-F/onsen-review/pkg/httpclient"
)

// Doer executes HTTP requests. *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// RequestError is returned for any non-2xx API response. Message holds the
// server's error message when one could be parsed, otherwise a generic
// status description.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Transport performs JSON requests against the review API. It does not
// retry: callers decide whether an operation is safe to repeat.
type Transport struct {
	baseURL string
	client  Doer
	logger  *slog.Logger
}

// NewTransport creates a transport rooted at baseURL,
// e.g. "https://api.example.com". A nil logger falls back to slog.Default.
func NewTransport(baseURL string, client Doer, logger *slog.Logger) *Transport {
	if client == nil {
		cfg := httpclient.DefaultConfig()
		cfg.MaxRetries = 0
		client = httpclient.New(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Request performs one API call. A non-nil body is JSON-encoded. The raw
// response body is returned for the caller to decode; 204 and empty bodies
// yield nil. Failures are logged and returned.
func (t *Transport) Request(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(ctx, req)
	if err != nil {
		t.logger.ErrorContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, raw),
		}
		t.logger.ErrorContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", reqErr.Message),
		)
		return nil, reqErr
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// errorMessage extracts the server's error message from a failure body.
// It understands the {"error":{"message":...}} envelope and a bare
// {"message":...} object, falling back to a status description.
func errorMessage(status int, body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}
