package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
)

// HealthHandler reports liveness and the state of backing services.
type HealthHandler struct {
	version string
	started time.Time
	checks  map[string]port.HealthChecker
}

// NewHealthHandler creates a HealthHandler. checks may be nil.
func NewHealthHandler(version string, started time.Time, checks map[string]port.HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, started: started, checks: checks}
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Checks:  make(map[string]dto.HealthCheckResult, len(h.checks)),
	}

	for name, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		start := time.Now()
		err := c.Ping(ctx)
		cancel()

		result := dto.HealthCheckResult{Status: "healthy", ResponseTime: time.Since(start).Milliseconds()}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
			resp.Status = "unhealthy"
		}
		resp.Checks[name] = result
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
