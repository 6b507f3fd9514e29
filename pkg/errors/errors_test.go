package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("review", "42")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "review with id 42 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("rating must be between 1.0 and 5.0")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestInternal(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, cause))
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("storage backend unreachable")

	assert.Equal(t, "SERVICE_UNAVAILABLE", err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, errors.Is(err, ErrServiceUnavail))
}

func TestAppError_Error(t *testing.T) {
	err := &AppError{Code: "NOT_FOUND", Message: "review with id 7 not found"}
	assert.Equal(t, "NOT_FOUND: review with id 7 not found", err.Error())

	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: errors.New("cause")}
	assert.Equal(t, "INTERNAL_ERROR: boom: cause", wrapped.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, "load reviews")

	require.Error(t, err)
	assert.Equal(t, "load reviews: dial tcp: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("review", "1"), http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("context: %w", ErrInvalidInput), http.StatusBadRequest},
		{"service unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown error", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
