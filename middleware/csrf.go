package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CSRFFailedMessage is the detail returned with a CSRF 403.
const CSRFFailedMessage = "CSRF Failed: CSRF token missing or incorrect."

// CSRFChecker compares the cookie token with the header token.
type CSRFChecker interface {
	Check(cookieToken, headerToken string) error
}

// CSRFConfig configures CSRF enforcement.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	// OnReject runs for every refused request.
	OnReject func(c echo.Context)
}

// CSRF refuses state-changing requests whose header token does not match the CSRF cookie.
func CSRF(checker CSRFChecker, cfg CSRFConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return next(c)
			}

			var cookieToken string
			if ck, err := c.Cookie(cfg.CookieName); err == nil {
				cookieToken = ck.Value
			}
			if err := checker.Check(cookieToken, c.Request().Header.Get(cfg.HeaderName)); err != nil {
				if cfg.OnReject != nil {
					cfg.OnReject(c)
				}
				return echo.NewHTTPError(http.StatusForbidden, CSRFFailedMessage).SetInternal(err)
			}
			return next(c)
		}
	}
}
