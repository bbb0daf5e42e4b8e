package service

import (
	"context"
	"fmt"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// LeaderboardInput replaces the rank-to-reward mapping of a gym
type LeaderboardInput struct {
	GymID   string              `json:"gym_id"`
	Rewards []domain.RankReward `json:"rewards"`
}

// LeaderboardService updates leaderboard reward configuration
type LeaderboardService struct {
	deps    Deps
	gyms    domain.GymRepository
	rewards domain.RewardRepository
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(deps Deps, gyms domain.GymRepository, rewards domain.RewardRepository) *LeaderboardService {
	deps.defaults()
	return &LeaderboardService{deps: deps, gyms: gyms, rewards: rewards}
}

// Update validates and stores a new leaderboard configuration
func (s *LeaderboardService) Update(ctx context.Context, sess *auth.Session, in LeaderboardInput) Result {
	out, err := s.update(ctx, sess, in)
	return s.deps.finish(ctx, security.ActionUpdateLeaderboard, sess, in.GymID, "", out, err)
}

func (s *LeaderboardService) update(ctx context.Context, sess *auth.Session, in LeaderboardInput) (*domain.LeaderboardConfig, error) {
	if in.Rewards == nil {
		in.Rewards = []domain.RankReward{}
	}
	if err := s.deps.precheck(sess, validation.SchemaLeaderboard, in); err != nil {
		return nil, err
	}
	if err := distinctRanks(in.Rewards); err != nil {
		return nil, err
	}
	if _, err := s.deps.Authorizer.Authorize(ctx, sess, security.ActionUpdateLeaderboard, in.GymID); err != nil {
		return nil, err
	}
	if err := s.rewardsBelongToGym(ctx, in); err != nil {
		return nil, err
	}

	cfg := domain.LeaderboardConfig{Rewards: in.Rewards}
	if err := s.gyms.UpdateLeaderboardConfig(ctx, in.GymID, cfg); err != nil {
		return nil, err
	}
	s.deps.invalidate(ctx, cache.GymPrefix(in.GymID))
	return &cfg, nil
}

func distinctRanks(rewards []domain.RankReward) error {
	seen := make(map[int]bool, len(rewards))
	verr := &domain.ValidationError{}
	for i, r := range rewards {
		if seen[r.Rank] {
			verr.Fields = append(verr.Fields, domain.FieldError{
				Field:   fmt.Sprintf("rewards.%d.rank", i),
				Message: fmt.Sprintf("rank %d is already assigned", r.Rank),
			})
		}
		seen[r.Rank] = true
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (s *LeaderboardService) rewardsBelongToGym(ctx context.Context, in LeaderboardInput) error {
	if len(in.Rewards) == 0 {
		return nil
	}
	ids := make([]string, 0, len(in.Rewards))
	for _, r := range in.Rewards {
		ids = append(ids, r.RewardID)
	}
	found, err := s.rewards.ListByIDs(ctx, in.GymID, ids)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, r := range found {
		known[r.ID] = true
	}
	verr := &domain.ValidationError{}
	for i, r := range in.Rewards {
		if !known[r.RewardID] {
			verr.Fields = append(verr.Fields, domain.FieldError{
				Field:   fmt.Sprintf("rewards.%d.reward_id", i),
				Message: "reward does not exist in this gym",
			})
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
