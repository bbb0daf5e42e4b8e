package repository

import (
	"context"
	"log/slog"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// RewardRepository implements domain.RewardRepository on a backend
type RewardRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(b domain.Backend, logger *slog.Logger) *RewardRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RewardRepository{b: b, logger: logger}
}

// ListByIDs returns the rewards of gymID among ids. Ids of other gyms are
// silently absent from the result.
func (r *RewardRepository) ListByIDs(ctx context.Context, gymID string, ids []string) ([]*domain.Reward, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Reward
	err := r.b.Select(ctx, domain.Query{
		Table:   tableRewards,
		Columns: []string{"id", "gym_id", "name", "points"},
		Filters: []domain.Filter{
			domain.Eq("gym_id", gymID),
			{Column: "id", Op: domain.OpIn, Value: ids},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}
