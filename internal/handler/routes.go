package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/middleware"
)

// Gated read routes. Only the team page admits that the gym exists when it
// denies access.
var (
	RouteGym         = security.Route{Name: "gym", Action: security.ActionViewGym}
	RouteTeam        = security.Route{Name: "team", Action: security.ActionViewTeam, Denial: security.ExplicitForbidden}
	RouteBranding    = security.Route{Name: "branding", Action: security.ActionViewBranding}
	RouteLeaderboard = security.Route{Name: "leaderboard", Action: security.ActionViewLeaderboard}
	RouteRedemptions = security.Route{Name: "redemptions", Action: security.ActionViewRedemptions}
	RouteAnalytics   = security.Route{Name: "analytics", Action: security.ActionViewAnalytics}
)

// Register mounts every API route on mux
func Register(mux *http.ServeMux, gk *middleware.Gatekeeper, pages *PageHandler, muts *MutationHandler, health *HealthHandler) {
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, metrics.Instrument(pattern, h))
	}
	gated := func(pattern string, route security.Route, h http.HandlerFunc) {
		handle(pattern, gk.RequireAccess(route, h))
	}

	handle("GET /api/me", gk.RequireProfile("me", http.HandlerFunc(pages.Me)))
	handle("GET /api/gyms", gk.RequireStaff("gyms", http.HandlerFunc(pages.Gyms)))
	gated("GET /api/gyms/{gymID}", RouteGym, pages.Gym)
	gated("GET /api/gyms/{gymID}/team", RouteTeam, pages.Team)
	gated("GET /api/gyms/{gymID}/branding", RouteBranding, pages.Branding)
	gated("GET /api/gyms/{gymID}/leaderboard", RouteLeaderboard, pages.Leaderboard)
	gated("GET /api/gyms/{gymID}/redemptions", RouteRedemptions, pages.Redemptions)
	gated("GET /api/gyms/{gymID}/analytics", RouteAnalytics, pages.Analytics)

	handle("PUT /api/gyms/{gymID}/branding", http.HandlerFunc(muts.UpdateBranding))
	handle("PUT /api/gyms/{gymID}/leaderboard", http.HandlerFunc(muts.UpdateLeaderboard))
	handle("POST /api/gyms/{gymID}/staff/invitations", http.HandlerFunc(muts.InviteStaff))
	handle("POST /api/invitations/{invitationID}/accept", http.HandlerFunc(muts.AcceptInvitation))
	handle("POST /api/gyms/{gymID}/redemptions/{redemptionID}/confirm", http.HandlerFunc(muts.ConfirmRedemption))

	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("GET /readyz", health.Ready)
}
