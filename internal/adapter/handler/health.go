package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	service     string
	version     string
	environment string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service, version, environment string) *HealthHandler {
	return &HealthHandler{service: service, version: version, environment: environment}
}

// Handle processes the /health/ endpoint.
func (h *HealthHandler) Handle(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "healthy",
		"service":     h.service,
		"version":     h.version,
		"environment": h.environment,
	})
}
