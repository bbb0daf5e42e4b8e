package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// ProfileResolver loads the acting profile of a session
type ProfileResolver struct {
	profiles domain.ProfileRepository
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewProfileResolver creates a resolver. c may be nil to disable caching.
func NewProfileResolver(profiles domain.ProfileRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger) *ProfileResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileResolver{profiles: profiles, cache: c, ttl: ttl, logger: logger}
}

// Resolve returns the profile of s. A nil session is ErrAuthenticationMissing;
// a missing or disabled profile is ErrNotFound.
func (r *ProfileResolver) Resolve(ctx context.Context, s *auth.Session) (*domain.Profile, error) {
	return r.resolve(ctx, s, false)
}

// ResolveFresh is Resolve without the cache read. Writes use it so a profile
// disabled or demoted since the last page view is seen immediately. The fresh
// row replaces the cached one.
func (r *ProfileResolver) ResolveFresh(ctx context.Context, s *auth.Session) (*domain.Profile, error) {
	return r.resolve(ctx, s, true)
}

func (r *ProfileResolver) resolve(ctx context.Context, s *auth.Session, fresh bool) (*domain.Profile, error) {
	if s == nil || s.UserID == "" {
		return nil, domain.ErrAuthenticationMissing
	}

	key := cache.ProfileKey(s.UserID)
	if r.cache != nil && !fresh {
		var cached domain.Profile
		ok, err := r.cache.Get(ctx, key, &cached)
		if err != nil {
			r.logger.Warn("profile cache read failed", slog.String("error", err.Error()))
		}
		metrics.ObserveCacheLookup(ok)
		if ok {
			return usable(&cached)
		}
	}

	ctx = domain.ContextWithAccessToken(ctx, s.AccessToken)
	p, err := r.profiles.GetByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.Forget(ctx, s.UserID)
			r.logger.Warn("session without profile", slog.String("user_id", s.UserID))
			return nil, fmt.Errorf("profile %s: %w", s.UserID, domain.ErrNotFound)
		}
		return nil, err
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.Set(ctx, key, p, r.ttl); err != nil {
			r.logger.Warn("profile cache write failed", slog.String("error", err.Error()))
		}
	}
	return usable(p)
}

func usable(p *domain.Profile) (*domain.Profile, error) {
	if p.Disabled {
		return nil, fmt.Errorf("profile %s disabled: %w", p.ID, domain.ErrNotFound)
	}
	return p, nil
}

// Forget drops the cached profile of profileID
func (r *ProfileResolver) Forget(ctx context.Context, profileID string) {
	if r.cache == nil || profileID == "" {
		return
	}
	if err := r.cache.Invalidate(ctx, cache.ProfilePrefix(profileID)); err != nil {
		r.logger.Warn("profile cache invalidation failed",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
	}
}

// Watch forgets cached profiles on every auth-state change
func (r *ProfileResolver) Watch(events *auth.Events) func() {
	return events.Subscribe(func(ev auth.Event) {
		r.Forget(context.Background(), ev.UserID)
	})
}
