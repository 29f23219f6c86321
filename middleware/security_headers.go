package middleware

import "github.com/labstack/echo/v4"

// SecurityConfig selects the optional security headers.
type SecurityConfig struct {
	// HSTS is only meaningful when the server is reached over TLS.
	HSTS bool
}

// SecurityHeaders adds security-related HTTP headers to all responses.
// Responses are JSON or file downloads, so nothing may be framed or cached.
func SecurityHeaders(cfg SecurityConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cache-Control", "no-store, private")
			h.Add("Vary", "Cookie")
			return next(c)
		}
	}
}
