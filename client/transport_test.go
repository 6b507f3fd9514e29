package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestTransport_SuccessReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Kusatsu","rating":4.5}]`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	raw, err := tr.Request(context.Background(), http.MethodGet, "/reviews", nil)
	require.NoError(t, err)

	var reviews []Review
	require.NoError(t, json.Unmarshal(raw, &reviews))
	assert.Equal(t, "Kusatsu", reviews[0].Name)
}

func TestTransport_NoContentReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	raw, err := tr.Request(context.Background(), http.MethodDelete, "/reviews/1", nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestTransport_EncodesBodyAsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "photo.png", body["fileName"])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	_, err := tr.Request(context.Background(), http.MethodPost, "/storage/generate-upload-url",
		map[string]string{"fileName": "photo.png"})
	require.NoError(t, err)
}

func TestTransport_ErrorEnvelopeMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"rating must be between 1.0 and 5.0 in 0.5 steps"}}`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	_, err := tr.Request(context.Background(), http.MethodPost, "/reviews", map[string]any{})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "rating must be between 1.0 and 5.0 in 0.5 steps", reqErr.Message)
}

func TestTransport_BareMessageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"review not found"}`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	_, err := tr.Request(context.Background(), http.MethodGet, "/reviews/9", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "review not found", reqErr.Message)
}

func TestTransport_UnparseableErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	tr := NewTransport(server.URL, nil, quietLogger())
	_, err := tr.Request(context.Background(), http.MethodGet, "/reviews", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "HTTP error! status: 502", reqErr.Message)
}

func TestTransport_NetworkError(t *testing.T) {
	tr := NewTransport("http://127.0.0.1:1", nil, quietLogger())
	_, err := tr.Request(context.Background(), http.MethodGet, "/reviews", nil)
	require.Error(t, err)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr), "network failures are not RequestErrors")
}
