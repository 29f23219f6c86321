package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIError_FieldKeyedBody(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, "Bad Request", []byte(`{"email": ["This email is already used"]}`))

	assert.Equal(t, 400, err.Status)
	assert.Equal(t, "Bad Request", err.Text)
	msg, ok := err.FieldError("email")
	assert.True(t, ok)
	assert.Equal(t, "This email is already used", msg)
}

func TestNewAPIError_ScalarValuesBecomeLists(t *testing.T) {
	err := NewAPIError(http.StatusUnauthorized, "", []byte(`{"detail": "Not authenticated", "code": 7}`))

	assert.Equal(t, "Unauthorized", err.Text)
	assert.Equal(t, []string{"Not authenticated"}, err.Errors["detail"])
	assert.Equal(t, []string{"7"}, err.Errors["code"])
}

func TestNewAPIError_PlainTextBody(t *testing.T) {
	err := NewAPIError(http.StatusBadGateway, "Bad Gateway", []byte("upstream down\n"))

	assert.Equal(t, map[string][]string{"message": {"upstream down"}}, err.Errors)
}

func TestNewAPIError_EmptyBodyFallsBackToStatusText(t *testing.T) {
	err := NewAPIError(http.StatusNotFound, "Not Found", nil)

	assert.Equal(t, map[string][]string{"message": {"Not Found"}}, err.Errors)
}

func TestNewAPIError_NonObjectJSON(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, "Bad Request", []byte(`["first", "second"]`))

	assert.Equal(t, []string{"first", "second"}, err.Errors["message"])
}

func TestAPIError_IsStatusClasses(t *testing.T) {
	tests := []struct {
		status int
		target error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusServiceUnavailable, ErrServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewAPIError(tt.status, "", nil))
			assert.True(t, errors.Is(err, tt.target))
			assert.False(t, errors.Is(err, ErrNetwork))
		})
	}
}

func TestNewNetworkError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError(cause)

	assert.Equal(t, 0, err.Status)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, 0, StatusOf(err))
}

func TestAsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewAPIError(http.StatusTooManyRequests, "", nil))

	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, 429, StatusOf(wrapped))

	_, ok = AsAPIError(errors.New("plain"))
	assert.False(t, ok)
}

func TestAPIError_FirstMessagePrefersGenericKeys(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, "", []byte(`{"zeta": ["z"], "error": "Invalid reset link."}`))

	msg, ok := err.FirstMessage()
	assert.True(t, ok)
	assert.Equal(t, "Invalid reset link.", msg)
	assert.Contains(t, err.Error(), "Invalid reset link.")
}
