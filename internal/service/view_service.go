package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// ViewRepositories are the read-side repositories. They read through the
// public backend under the caller's session.
type ViewRepositories struct {
	Gyms        domain.GymRepository
	Branding    domain.BrandingRepository
	Staff       domain.StaffRepository
	Rewards     domain.RewardRepository
	Redemptions domain.RedemptionRepository
	Analytics   domain.AnalyticsRepository
}

// GymView is the gym page
type GymView struct {
	Gym      *domain.Gym           `json:"gym"`
	Branding *domain.OwnerBranding `json:"branding"`
}

// TeamView is the team page
type TeamView struct {
	Members     []*domain.TeamMember      `json:"members"`
	Invitations []*domain.StaffInvitation `json:"invitations"`
}

// LeaderboardView is the leaderboard config with reward names resolved
type LeaderboardView struct {
	Config  domain.LeaderboardConfig `json:"config"`
	Rewards []*domain.Reward         `json:"rewards"`
}

// ViewService renders read views for gyms the gate has already admitted.
// Views are cached per gym or per owner and dropped by the mutations that
// change them.
type ViewService struct {
	repos  ViewRepositories
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewViewService creates a new view service. c may be nil.
func NewViewService(repos ViewRepositories, c cache.Cache, ttl time.Duration, logger *slog.Logger) *ViewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewService{repos: repos, cache: c, ttl: ttl, logger: logger}
}

// Gym returns the gym page of an admitted gym. The gym row is the one the gate
// just read; branding comes from its own owner-scoped cache entry so a
// branding write is visible on every gym of the owner.
func (v *ViewService) Gym(ctx context.Context, gym *domain.Gym) (*GymView, error) {
	b, err := v.Branding(ctx, gym)
	if err != nil {
		return nil, err
	}
	return &GymView{Gym: gym, Branding: b}, nil
}

// Branding returns the owner branding that applies to gym. Gyms whose owner
// never saved branding get an empty record.
func (v *ViewService) Branding(ctx context.Context, gym *domain.Gym) (*domain.OwnerBranding, error) {
	owner := gym.Owner()
	if owner == "" {
		return &domain.OwnerBranding{}, nil
	}
	return cached(ctx, v, cache.OwnerKey(owner, "branding"), func() (*domain.OwnerBranding, error) {
		b, err := v.repos.Branding.GetByOwner(ctx, owner)
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.OwnerBranding{OwnerID: owner}, nil
		}
		return b, err
	})
}

// Team returns the staff and invitations of a gym
func (v *ViewService) Team(ctx context.Context, gymID string) (*TeamView, error) {
	return cached(ctx, v, cache.GymKey(gymID, "team"), func() (*TeamView, error) {
		members, err := v.repos.Staff.ListTeam(ctx, gymID)
		if err != nil {
			return nil, err
		}
		invitations, err := v.repos.Staff.ListInvitations(ctx, gymID)
		if err != nil {
			return nil, err
		}
		return &TeamView{Members: nonNil(members), Invitations: nonNil(invitations)}, nil
	})
}

// Leaderboard returns the leaderboard configuration of a gym
func (v *ViewService) Leaderboard(ctx context.Context, gym *domain.Gym) (*LeaderboardView, error) {
	return cached(ctx, v, cache.GymKey(gym.ID, "leaderboard"), func() (*LeaderboardView, error) {
		cfg := domain.LeaderboardConfig{Rewards: append([]domain.RankReward{}, gym.LeaderboardConfig.Rewards...)}
		sort.Slice(cfg.Rewards, func(i, j int) bool { return cfg.Rewards[i].Rank < cfg.Rewards[j].Rank })
		ids := make([]string, 0, len(cfg.Rewards))
		for _, r := range cfg.Rewards {
			ids = append(ids, r.RewardID)
		}
		rewards, err := v.repos.Rewards.ListByIDs(ctx, gym.ID, ids)
		if err != nil {
			return nil, err
		}
		return &LeaderboardView{Config: cfg, Rewards: nonNil(rewards)}, nil
	})
}

// Redemptions lists the redemptions of a gym. Filtered lists skip the cache.
func (v *ViewService) Redemptions(ctx context.Context, gymID string, status domain.RedemptionStatus) ([]*domain.Redemption, error) {
	if status != "" {
		rows, err := v.repos.Redemptions.ListForGym(ctx, gymID, status)
		return nonNil(rows), err
	}
	return cached(ctx, v, cache.GymKey(gymID, "redemptions"), func() ([]*domain.Redemption, error) {
		rows, err := v.repos.Redemptions.ListForGym(ctx, gymID, "")
		return nonNil(rows), err
	})
}

// Analytics returns the aggregate summary of a gym
func (v *ViewService) Analytics(ctx context.Context, gymID string) (*domain.GymSummary, error) {
	return cached(ctx, v, cache.GymKey(gymID, "analytics"), func() (*domain.GymSummary, error) {
		return v.repos.Analytics.GymSummary(ctx, gymID)
	})
}

// ListGyms returns the gyms a profile may open: every gym for a superadmin,
// owned gyms for owners, and the assigned gym for staff. The result is the
// same set CanAccessGym admits.
func (v *ViewService) ListGyms(ctx context.Context, p *domain.Profile) ([]*domain.Gym, error) {
	switch p.Role {
	case domain.RoleSuperadmin:
		return v.repos.Gyms.ListAll(ctx)
	case domain.RoleGymOwner:
		gyms, err := v.repos.Gyms.ListByOwner(ctx, p.ID)
		return nonNil(gyms), err
	case domain.RoleGymAdmin:
		gyms, err := v.repos.Gyms.ListByOwner(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return v.withAssigned(ctx, nonNil(gyms), p.EffectiveGymID())
	case domain.RoleReceptionist:
		return v.withAssigned(ctx, []*domain.Gym{}, p.EffectiveGymID())
	default:
		return []*domain.Gym{}, nil
	}
}

func (v *ViewService) withAssigned(ctx context.Context, gyms []*domain.Gym, gymID string) ([]*domain.Gym, error) {
	if gymID == "" {
		return gyms, nil
	}
	for _, g := range gyms {
		if g.ID == gymID {
			return gyms, nil
		}
	}
	g, err := v.repos.Gyms.GetByID(ctx, gymID)
	if errors.Is(err, domain.ErrNotFound) {
		return gyms, nil
	}
	if err != nil {
		return nil, err
	}
	return append(gyms, g), nil
}

// cached serves key from the view cache or loads and stores it. Cache
// failures degrade to a direct load.
func cached[T any](ctx context.Context, v *ViewService, key string, load func() (T, error)) (T, error) {
	if v.cache == nil || v.ttl <= 0 {
		return load()
	}
	var out T
	ok, err := v.cache.Get(ctx, key, &out)
	if err != nil {
		v.logger.Warn("view cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	metrics.ObserveCacheLookup(ok)
	if ok {
		return out, nil
	}

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := v.cache.Set(ctx, key, out, v.ttl); err != nil {
		v.logger.Warn("view cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return out, nil
}

func nonNil[T any](rows []*T) []*T {
	if rows == nil {
		return []*T{}
	}
	return rows
}
