package security

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
)

// Outcome is the result of gating one request
type Outcome string

const (
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeForbidden       Outcome = "forbidden"
	OutcomeFailed          Outcome = "failed"
)

// Route is one gated page or endpoint
type Route struct {
	Name   string
	Action Action
	Denial Denial
}

// Access is the gate decision. Profile is set whenever one was resolved; Gym
// only when Outcome is Allowed.
type Access struct {
	Outcome Outcome
	Profile *domain.Profile
	Gym     *domain.Gym
	Err     error
}

// Allowed reports whether the request may proceed
func (a Access) Allowed() bool { return a.Outcome == OutcomeAllowed }

// Gate runs authentication, profile resolution, ownership lookup and the
// policy in that order and stops at the first failure. Nothing is looked up
// for a request without a session.
type Gate struct {
	resolver  *ProfileResolver
	ownership *OwnershipLookup
	audit     *audit.Logger
	logger    *slog.Logger
}

// NewGate creates a new gate
func NewGate(resolver *ProfileResolver, ownership *OwnershipLookup, auditLog *audit.Logger, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &Gate{resolver: resolver, ownership: ownership, audit: auditLog, logger: logger}
}

// ResolveAccess decides whether the session may reach route for gymID
func (g *Gate) ResolveAccess(ctx context.Context, s *auth.Session, route Route, gymID string) Access {
	ctx, span := tracing.Tracer().Start(ctx, "gate "+route.Name)
	defer span.End()
	span.SetAttributes(attribute.String("gym.id", gymID), attribute.String("gate.action", string(route.Action)))

	access := g.resolve(ctx, s, route, gymID)
	g.record(ctx, route.Name, gymID, access)
	span.SetAttributes(attribute.String("gate.outcome", string(access.Outcome)))
	if access.Outcome == OutcomeFailed {
		span.SetStatus(codes.Error, "gate failed")
	}
	return access
}

// ResolveProfile gates routes that are not scoped to one gym: a session and a
// usable profile are enough.
func (g *Gate) ResolveProfile(ctx context.Context, s *auth.Session, routeName string) Access {
	ctx, span := tracing.Tracer().Start(ctx, "gate "+routeName)
	defer span.End()

	access := g.profile(ctx, s)
	if access.Outcome == "" {
		access.Outcome = OutcomeAllowed
	}
	g.record(ctx, routeName, "", access)
	span.SetAttributes(attribute.String("gate.outcome", string(access.Outcome)))
	return access
}

// ResolveStaff is ResolveProfile for admin panel routes that are not scoped to
// one gym. A member profile is concealed the same way as a missing one.
func (g *Gate) ResolveStaff(ctx context.Context, s *auth.Session, routeName string) Access {
	ctx, span := tracing.Tracer().Start(ctx, "gate "+routeName)
	defer span.End()

	access := g.profile(ctx, s)
	if access.Outcome == "" {
		access.Outcome = OutcomeAllowed
		if !IsStaff(access.Profile.Role) {
			access.Outcome = OutcomeNotFound
			access.Err = errNotStaff
		}
	}
	g.record(ctx, routeName, "", access)
	span.SetAttributes(attribute.String("gate.outcome", string(access.Outcome)))
	return access
}

func (g *Gate) profile(ctx context.Context, s *auth.Session) Access {
	if s == nil {
		return Access{Outcome: OutcomeUnauthenticated, Err: domain.ErrAuthenticationMissing}
	}
	p, err := g.resolver.Resolve(ctx, s)
	switch {
	case err == nil:
		return Access{Profile: p}
	case errors.Is(err, domain.ErrAuthenticationMissing):
		return Access{Outcome: OutcomeUnauthenticated, Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return Access{Outcome: OutcomeNotFound, Err: err}
	default:
		return Access{Outcome: OutcomeFailed, Err: err}
	}
}

func (g *Gate) resolve(ctx context.Context, s *auth.Session, route Route, gymID string) Access {
	access := g.profile(ctx, s)
	if access.Outcome != "" {
		return access
	}

	ctx = domain.ContextWithAccessToken(ctx, s.AccessToken)
	gym, err := g.ownership.GymFacts(ctx, gymID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Access{Outcome: OutcomeNotFound, Profile: access.Profile, Err: err}
		}
		return Access{Outcome: OutcomeFailed, Profile: access.Profile, Err: err}
	}

	if Allowed(route.Action, SubjectOf(access.Profile), GymRefOf(gym)) {
		return Access{Outcome: OutcomeAllowed, Profile: access.Profile, Gym: gym}
	}
	if route.Denial == ExplicitForbidden {
		return Access{Outcome: OutcomeForbidden, Profile: access.Profile, Err: domain.ErrAuthorizationDenied}
	}
	return Access{Outcome: OutcomeNotFound, Profile: access.Profile, Err: errGymNotFound}
}

func (g *Gate) record(ctx context.Context, routeName, gymID string, a Access) {
	metrics.ObserveAccessDecision(routeName, string(a.Outcome))
	profileID := ""
	if a.Profile != nil {
		profileID = a.Profile.ID
	}
	if a.Outcome == OutcomeFailed {
		g.logger.Error("access check failed",
			slog.String("route", routeName),
			slog.String("gym_id", gymID),
			slog.String("error", a.Err.Error()),
		)
	}
	g.audit.LogDecision(ctx, profileID, routeName, gymID, string(a.Outcome))
}
