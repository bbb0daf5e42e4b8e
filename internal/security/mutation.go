package security

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
)

// Grant is the proof that a write was authorized a moment ago
type Grant struct {
	Profile *domain.Profile
	Gym     *domain.Gym
}

// MutationAuthorizer repeats the full access check right before a write. A
// write is never more permissive than the matching page: both go through
// Allowed, and denials are concealed as not found.
type MutationAuthorizer struct {
	resolver  *ProfileResolver
	ownership *OwnershipLookup
	policy    *Policy
	audit     *audit.Logger
	logger    *slog.Logger
}

// NewMutationAuthorizer creates a new mutation authorizer
func NewMutationAuthorizer(resolver *ProfileResolver, ownership *OwnershipLookup, auditLog *audit.Logger, logger *slog.Logger) *MutationAuthorizer {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &MutationAuthorizer{
		resolver:  resolver,
		ownership: ownership,
		policy:    NewPolicy(logger),
		audit:     auditLog,
		logger:    logger,
	}
}

// Authenticate resolves the acting profile without any gym check. It always
// reads the profile row, never the cache.
func (m *MutationAuthorizer) Authenticate(ctx context.Context, s *auth.Session) (*domain.Profile, error) {
	if s == nil {
		return nil, domain.ErrAuthenticationMissing
	}
	return m.resolver.ResolveFresh(ctx, s)
}

// Authorize checks that s may perform action on gymID
func (m *MutationAuthorizer) Authorize(ctx context.Context, s *auth.Session, action Action, gymID string) (*Grant, error) {
	ctx, span := tracing.Tracer().Start(ctx, "authorize "+string(action))
	defer span.End()
	span.SetAttributes(attribute.String("gym.id", gymID))

	grant, err := m.authorize(ctx, s, action, gymID)
	outcome := OutcomeAllowed
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAuthenticationMissing):
		outcome = OutcomeUnauthenticated
	case errors.Is(err, domain.ErrNotFound):
		outcome = OutcomeNotFound
	default:
		outcome = OutcomeFailed
	}
	span.SetAttributes(attribute.String("gate.outcome", string(outcome)))
	metrics.ObserveAccessDecision("mutation:"+string(action), string(outcome))

	if outcome != OutcomeAllowed {
		profileID := ""
		if s != nil {
			profileID = s.UserID
		}
		m.audit.LogDenied(ctx, profileID, string(action), gymID, string(outcome))
	}
	return grant, err
}

func (m *MutationAuthorizer) authorize(ctx context.Context, s *auth.Session, action Action, gymID string) (*Grant, error) {
	profile, err := m.Authenticate(ctx, s)
	if err != nil {
		return nil, err
	}

	ctx = domain.ContextWithAccessToken(ctx, s.AccessToken)
	gym, err := m.ownership.GymFacts(ctx, gymID)
	if err != nil {
		return nil, err
	}

	if err := m.policy.Authorize(action, SubjectOf(profile), GymRefOf(gym)); err != nil {
		return nil, Conceal(err)
	}
	return &Grant{Profile: profile, Gym: gym}, nil
}
