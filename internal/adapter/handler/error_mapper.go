package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"portal-client/internal/domain"
	"portal-client/middleware"

	"github.com/labstack/echo/v4"
)

// Messages rendered under "detail".
const (
	msgNotAuthenticated = "Not authenticated"
	msgAuthRequired     = "Authentication credentials were not provided."
	msgSessionExpired   = "Session expired"
	msgNotFound         = "Not found."
	msgInternal         = "A server error occurred."
	msgTokenGeneration  = "token generation error"
	msgInvalidBody      = "JSON parse error"
	msgMethodNotAllowed = "Method not allowed."
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
// Validation errors keep their field map as the response body.
func mapDomainError(err error) *echo.HTTPError {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Fields).SetInternal(err)
	}

	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, msgSessionExpired).SetInternal(err)

	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrSessionInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, msgAuthRequired).SetInternal(err)

	case errors.Is(err, domain.ErrCSRFMismatch):
		return echo.NewHTTPError(http.StatusForbidden, middleware.CSRFFailedMessage).SetInternal(err)

	case errors.Is(err, domain.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound).SetInternal(err)

	case errors.Is(err, domain.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, middleware.ThrottledMessage).SetInternal(err)

	case errors.Is(err, domain.ErrCSRFSecretMissing):
		return echo.NewHTTPError(http.StatusInternalServerError, msgTokenGeneration).SetInternal(err)

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
	}
}

// NewHTTPErrorHandler renders errors the way the portal backend does: field maps
// as the body for validation failures, {"detail": msg} for everything else.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = mapDomainError(err)
		}

		if he.Code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"status", he.Code,
				"path", c.Path(),
				"error", err)
		}

		var body any
		switch msg := he.Message.(type) {
		case string:
			body = map[string]string{"detail": detailFor(he.Code, msg)}
		case map[string][]string:
			body = msg
		case error:
			body = map[string]string{"detail": msg.Error()}
		default:
			body = map[string]any{"detail": msg}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", err)
		}
	}
}

// detailFor swaps echo's own router messages for the backend's wording.
func detailFor(code int, msg string) string {
	switch {
	case code == http.StatusNotFound && msg == http.StatusText(http.StatusNotFound):
		return msgNotFound
	case code == http.StatusMethodNotAllowed && msg == http.StatusText(http.StatusMethodNotAllowed):
		return msgMethodNotAllowed
	}
	return msg
}
