package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/gymdesk/internal/service"
)

// PageHandler serves the gated read views. Every method runs behind the
// gatekeeper and reads the admitted profile and gym from the request context.
type PageHandler struct {
	views  *service.ViewService
	logger *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(views *service.ViewService, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{views: views, logger: logger}
}

// Me handles GET /api/me
func (h *PageHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	writeJSON(w, http.StatusOK, a.Profile)
}

// Gyms handles GET /api/gyms
func (h *PageHandler) Gyms(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	gyms, err := h.views.ListGyms(r.Context(), a.Profile)
	if err != nil {
		writeViewError(w, h.logger, "gyms", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gyms": gyms})
}

// Gym handles GET /api/gyms/{gymID}
func (h *PageHandler) Gym(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	view, err := h.views.Gym(r.Context(), a.Gym)
	if err != nil {
		writeViewError(w, h.logger, "gym", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Team handles GET /api/gyms/{gymID}/team
func (h *PageHandler) Team(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	view, err := h.views.Team(r.Context(), a.Gym.ID)
	if err != nil {
		writeViewError(w, h.logger, "team", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Branding handles GET /api/gyms/{gymID}/branding
func (h *PageHandler) Branding(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	b, err := h.views.Branding(r.Context(), a.Gym)
	if err != nil {
		writeViewError(w, h.logger, "branding", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Leaderboard handles GET /api/gyms/{gymID}/leaderboard
func (h *PageHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	view, err := h.views.Leaderboard(r.Context(), a.Gym)
	if err != nil {
		writeViewError(w, h.logger, "leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Redemptions handles GET /api/gyms/{gymID}/redemptions?status=
func (h *PageHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	status := domain.RedemptionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.RedemptionPending, domain.RedemptionConfirmed:
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "status must be pending or confirmed"})
		return
	}
	rows, err := h.views.Redemptions(r.Context(), a.Gym.ID, status)
	if err != nil {
		writeViewError(w, h.logger, "redemptions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redemptions": rows})
}

// Analytics handles GET /api/gyms/{gymID}/analytics
func (h *PageHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, _ := middleware.AccessFromContext(r.Context())
	summary, err := h.views.Analytics(r.Context(), a.Gym.ID)
	if err != nil {
		writeViewError(w, h.logger, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
