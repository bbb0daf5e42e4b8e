package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
)

type accessKey struct{}

// AccessFromContext returns the gate decision that admitted the request
func AccessFromContext(ctx context.Context) (security.Access, bool) {
	a, ok := ctx.Value(accessKey{}).(security.Access)
	return a, ok
}

// Gatekeeper renders gate decisions for HTTP routes
type Gatekeeper struct {
	gate      *security.Gate
	loginPath string
	log       *slog.Logger
}

// NewGatekeeper creates a gatekeeper redirecting anonymous visitors to loginPath
func NewGatekeeper(gate *security.Gate, loginPath string, log *slog.Logger) *Gatekeeper {
	if loginPath == "" {
		loginPath = "/login"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gatekeeper{gate: gate, loginPath: loginPath, log: log}
}

// RequireAccess admits the request only if route is allowed for the gym named
// by the {gymID} path value. It must wrap a handler registered on a pattern
// that declares {gymID}.
func (g *Gatekeeper) RequireAccess(route security.Route, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFromContext(r.Context())
		a := g.gate.ResolveAccess(r.Context(), s, route, r.PathValue("gymID"))
		g.serve(w, r, a, next)
	})
}

// RequireProfile admits any request with a session and a usable profile
func (g *Gatekeeper) RequireProfile(routeName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFromContext(r.Context())
		a := g.gate.ResolveProfile(r.Context(), s, routeName)
		g.serve(w, r, a, next)
	})
}

// RequireStaff admits a session whose profile holds a staff role
func (g *Gatekeeper) RequireStaff(routeName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.SessionFromContext(r.Context())
		a := g.gate.ResolveStaff(r.Context(), s, routeName)
		g.serve(w, r, a, next)
	})
}

func (g *Gatekeeper) serve(w http.ResponseWriter, r *http.Request, a security.Access, next http.Handler) {
	switch a.Outcome {
	case security.OutcomeAllowed:
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accessKey{}, a)))
	case security.OutcomeUnauthenticated:
		target := g.loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	case security.OutcomeNotFound:
		writeError(w, http.StatusNotFound, "not found")
	case security.OutcomeForbidden:
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong, try again")
	}
}
