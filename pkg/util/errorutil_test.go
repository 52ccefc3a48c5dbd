package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("save ticket: %w", NewNotFound("ticket", map[string]any{"id": "T-9"}))

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
	assert.Equal(t, "T-9", got.Details["id"])
}

func TestToDomainErrorDeadline(t *testing.T) {
	got := ToDomainError(fmt.Errorf("load: %w", context.DeadlineExceeded))
	assert.Equal(t, CodeTimeout, got.Code)
	assert.Equal(t, http.StatusGatewayTimeout, got.HTTPStatus)
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New("boom")
	got := ToDomainError(cause)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestStorageCorruptUnwraps(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewStorageCorrupt(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "stored tickets could not be read")
}
