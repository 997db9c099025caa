package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/dubbing-service/internal/adapter/dto/common"
)

// Checker probes one dependency
type Checker func(ctx context.Context) error

// Health reports service and dependency status
type Health struct {
	environment string
	checks      map[string]Checker
}

// NewHealthHandler creates a health handler
func NewHealthHandler(environment string, checks map[string]Checker) *Health {
	return &Health{environment: environment, checks: checks}
}

// Check handles GET /health
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  common.HealthResponse
// @Failure      503  {object}  common.HealthResponse
// @Router       /health [get]
func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := common.HealthResponse{
		Status:       "ok",
		Environment:  h.environment,
		Dependencies: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Dependencies[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "ok"
	}
	return c.JSON(status, resp)
}
