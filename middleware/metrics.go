package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestRecorder receives one observation per handled request.
type RequestRecorder func(method, route, status string, seconds float64)

// Metrics reports every request to record, keyed by the matched route rather than the raw path.
func Metrics(record RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := responseStatus(c, err)
			record(c.Request().Method, route, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
