package handler

import (
	"net/http"

	"portal-client/internal/domain"
	"portal-client/internal/usecase/backend"

	"github.com/labstack/echo/v4"
)

// AppHandler serves GET /app/config/.
type AppHandler struct {
	config  domain.APIAppConfig
	csrf    *backend.GenerateCSRF
	cookies CookieConfig
}

// NewAppHandler creates a new app config handler.
func NewAppHandler(config domain.APIAppConfig, csrf *backend.GenerateCSRF, cookies CookieConfig) *AppHandler {
	return &AppHandler{config: config, csrf: csrf, cookies: cookies.withDefaults()}
}

// Config returns the public application settings and makes sure the CSRF cookie is set.
func (h *AppHandler) Config(c echo.Context) error {
	token, _, err := h.csrf.Ensure(c.Request().Context(), h.cookies.csrfValue(c))
	if err != nil {
		return mapDomainError(err)
	}
	h.cookies.setCSRF(c, token)
	return c.JSON(http.StatusOK, h.config)
}
