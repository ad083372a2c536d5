// Package handlers implements HTTP handlers for the smartsell API.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Readier reports whether every configured dataset has been loaded.
type Readier interface {
	Ready() bool
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	catalog Readier
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(r Readier) *HealthHandler {
	return &HealthHandler{catalog: r}
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 once the datasets are loaded, 503 before that.
//
// @Summary Readiness check
// @Description Returns 200 once all configured datasets are loaded, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	if !h.catalog.Ready() {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
