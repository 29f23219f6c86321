package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type equalChecker struct{}

func (equalChecker) Check(cookieToken, headerToken string) error {
	if cookieToken == "" || cookieToken != headerToken {
		return errors.New("mismatch")
	}
	return nil
}

func TestCSRF(t *testing.T) {
	rejected := 0
	e := echo.New()
	e.Use(CSRF(equalChecker{}, CSRFConfig{
		CookieName: "csrftoken",
		HeaderName: "X-CSRFToken",
		OnReject:   func(echo.Context) { rejected++ },
	}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/api/v1/app/config/", ok)
	e.POST("/api/v1/auth/login/", ok)
	e.DELETE("/api/v1/self/account/", ok)

	tests := []struct {
		name   string
		method string
		path   string
		cookie string
		header string
		want   int
	}{
		{"safe method skips check", http.MethodGet, "/api/v1/app/config/", "", "", http.StatusOK},
		{"matching token", http.MethodPost, "/api/v1/auth/login/", "tok", "tok", http.StatusOK},
		{"missing header", http.MethodPost, "/api/v1/auth/login/", "tok", "", http.StatusForbidden},
		{"missing cookie", http.MethodPost, "/api/v1/auth/login/", "", "tok", http.StatusForbidden},
		{"mismatch", http.MethodDelete, "/api/v1/self/account/", "tok", "other", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "csrftoken", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-CSRFToken", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), CSRFFailedMessage)
			}
		})
	}
	assert.Equal(t, 3, rejected)
}
