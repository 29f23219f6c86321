package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newLimitedEcho(rl *RateLimiter) *echo.Echo {
	e := echo.New()
	e.Use(rl.Middleware())
	e.POST("/api/v1/auth/login/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func login(e *echo.Echo, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login/", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	e := newLimitedEcho(NewRateLimiter(t.Context(), rate.Limit(10), 10))

	for range 10 {
		assert.Equal(t, http.StatusOK, login(e, "").Code)
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	e := newLimitedEcho(NewRateLimiter(t.Context(), PerMinute(10), 2))

	assert.Equal(t, http.StatusOK, login(e, "").Code)
	assert.Equal(t, http.StatusOK, login(e, "").Code)

	rec := login(e, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), ThrottledMessage)
}

func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	e := newLimitedEcho(NewRateLimiter(t.Context(), PerMinute(10), 1))

	login(e, "")
	rec := login(e, "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	secs, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 1)
	assert.LessOrEqual(t, secs, 6)
}

func TestRateLimiter_RejectionDoesNotConsumeTokens(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(1), 1)
	e := newLimitedEcho(rl)

	login(e, "")
	for range 5 {
		assert.Equal(t, http.StatusTooManyRequests, login(e, "").Code)
	}
	lim := rl.get("192.0.2.1")
	assert.InDelta(t, 0, lim.Tokens(), 0.1)
}

func TestRateLimiter_DifferentIPsGetSeparateLimits(t *testing.T) {
	e := newLimitedEcho(NewRateLimiter(t.Context(), rate.Limit(1), 1))

	assert.Equal(t, http.StatusOK, login(e, "1.2.3.4:1234").Code)
	assert.Equal(t, http.StatusOK, login(e, "5.6.7.8:5678").Code)
	assert.Equal(t, http.StatusTooManyRequests, login(e, "1.2.3.4:1234").Code)
}

func TestRateLimiter_CustomKey(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(1), 1).WithKey(func(echo.Context) string { return "everyone" })
	e := newLimitedEcho(rl)

	assert.Equal(t, http.StatusOK, login(e, "1.2.3.4:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, login(e, "5.6.7.8:5678").Code)
}
