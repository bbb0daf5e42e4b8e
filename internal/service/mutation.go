package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// Deps are the collaborators every mutation service shares
type Deps struct {
	Authorizer *security.MutationAuthorizer
	Ownership  *security.OwnershipLookup
	Validator  *validation.Validator
	Cache      cache.Cache
	Audit      *audit.Logger
	Events     *auth.Events
	Logger     *slog.Logger
	Now        func() time.Time
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Audit == nil {
		d.Audit = audit.NewLogger(d.Logger)
	}
	if d.Validator == nil {
		d.Validator = validation.MustNew()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// precheck runs the steps every mutation takes before any lookup: a session
// must be present and the input must match its schema.
func (d *Deps) precheck(s *auth.Session, schema string, input any) error {
	if s == nil {
		return domain.ErrAuthenticationMissing
	}
	return d.Validator.Validate(schema, input)
}

// finish records the outcome of a mutation and turns it into a Result
func (d *Deps) finish(ctx context.Context, action security.Action, s *auth.Session, gymID, resourceID string, data any, err error) Result {
	profileID := ""
	if s != nil {
		profileID = s.UserID
	}
	if err == nil {
		metrics.ObserveMutation(string(action), "success")
		d.Audit.LogMutation(ctx, profileID, string(action), gymID, resourceID, "success")
		return OK(data)
	}

	kind := domain.KindOf(err)
	metrics.ObserveMutation(string(action), string(kind))
	switch kind {
	case domain.KindUpstream, domain.KindBackendUnavailable:
		d.Logger.Error("mutation failed",
			slog.String("action", string(action)),
			slog.String("gym_id", gymID),
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		d.Audit.LogMutation(ctx, profileID, string(action), gymID, resourceID, string(kind))
	case domain.KindValidation:
		d.Logger.Debug("mutation rejected",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
	return Fail(err)
}

// invalidate drops cached views under prefix. A cache failure never fails
// the write that already happened.
func (d *Deps) invalidate(ctx context.Context, prefix string) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.Invalidate(ctx, prefix); err != nil {
		d.Logger.Warn("cache invalidation failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
	}
}
