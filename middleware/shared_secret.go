package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BearerToken guards an endpoint with a static "Authorization: Bearer <token>" secret.
// An empty token disables the check.
func BearerToken(token string) echo.MiddlewareFunc {
	want := []byte(token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(want) == 0 {
				return next(c)
			}
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			got, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || got == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid token.")
			}
			return next(c)
		}
	}
}
