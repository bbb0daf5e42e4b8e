package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/service"
)

// MutationHandler decodes write requests and hands them to the mutation
// services. It never authorizes anything itself.
type MutationHandler struct {
	branding    *service.BrandingService
	leaderboard *service.LeaderboardService
	staff       *service.StaffService
	redemptions *service.RedemptionService
	logger      *slog.Logger
}

// NewMutationHandler creates a new mutation handler
func NewMutationHandler(
	branding *service.BrandingService,
	leaderboard *service.LeaderboardService,
	staff *service.StaffService,
	redemptions *service.RedemptionService,
	logger *slog.Logger,
) *MutationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationHandler{
		branding:    branding,
		leaderboard: leaderboard,
		staff:       staff,
		redemptions: redemptions,
		logger:      logger,
	}
}

// UpdateBranding handles PUT /api/gyms/{gymID}/branding
func (h *MutationHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	var in service.BrandingInput
	s, ok := h.begin(w, r, &in)
	if !ok {
		return
	}
	in.GymID = r.PathValue("gymID")
	writeResult(w, h.branding.Update(r.Context(), s, in))
}

// UpdateLeaderboard handles PUT /api/gyms/{gymID}/leaderboard
func (h *MutationHandler) UpdateLeaderboard(w http.ResponseWriter, r *http.Request) {
	var in service.LeaderboardInput
	s, ok := h.begin(w, r, &in)
	if !ok {
		return
	}
	in.GymID = r.PathValue("gymID")
	writeResult(w, h.leaderboard.Update(r.Context(), s, in))
}

// InviteStaff handles POST /api/gyms/{gymID}/staff/invitations
func (h *MutationHandler) InviteStaff(w http.ResponseWriter, r *http.Request) {
	var in service.InviteInput
	s, ok := h.begin(w, r, &in)
	if !ok {
		return
	}
	in.GymID = r.PathValue("gymID")
	res := h.staff.Invite(r.Context(), s, in)
	if res.Success {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	writeResult(w, res)
}

// AcceptInvitation handles POST /api/invitations/{invitationID}/accept
func (h *MutationHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var in service.AcceptInput
	s, ok := h.begin(w, r, &in)
	if !ok {
		return
	}
	in.InvitationID = r.PathValue("invitationID")
	writeResult(w, h.staff.Accept(r.Context(), s, in))
}

// ConfirmRedemption handles POST /api/gyms/{gymID}/redemptions/{redemptionID}/confirm
func (h *MutationHandler) ConfirmRedemption(w http.ResponseWriter, r *http.Request) {
	s, ok := h.begin(w, r, nil)
	if !ok {
		return
	}
	writeResult(w, h.redemptions.Confirm(r.Context(), s, service.ConfirmInput{
		GymID:        r.PathValue("gymID"),
		RedemptionID: r.PathValue("redemptionID"),
	}))
}

// begin checks for a session before reading the body, so anonymous writes
// are rejected without looking at their payload. dest may be nil for
// bodiless actions.
func (h *MutationHandler) begin(w http.ResponseWriter, r *http.Request, dest any) (*auth.Session, bool) {
	s := auth.SessionFromContext(r.Context())
	if s == nil {
		writeResult(w, service.Fail(domain.ErrAuthenticationMissing))
		return nil, false
	}
	if dest == nil {
		return s, true
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("rejecting malformed body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeResult(w, service.Fail(domain.NewFieldError("body", "request body must be a JSON object with known fields")))
		return nil, false
	}
	return s, true
}
