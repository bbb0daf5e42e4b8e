package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one readiness dependency. Optional dependencies are reported but
// never make the service unready.
type Check struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks []Check
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks []Check, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{checks: checks, logger: logger}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - Simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only if every required dependency answers
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	ready := true
	for _, c := range h.checks {
		if c.Pinger == nil {
			checks[c.Name] = "not configured"
			continue
		}
		if err := c.Pinger.Ping(ctx); err != nil {
			checks[c.Name] = "unavailable"
			if !c.Optional {
				ready = false
			}
			h.logger.Warn("readiness check failed",
				slog.String("check", c.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		checks[c.Name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, ReadinessResponse{Status: status, Checks: checks})
}
