package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

var gymColumns = []string{"id", "owner_id", "name", "status", "leaderboard_config", "logo_url", "accent_color", "created_at"}

// GymRepository implements domain.GymRepository on a backend
type GymRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewGymRepository creates a new gym repository
func NewGymRepository(b domain.Backend, logger *slog.Logger) *GymRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GymRepository{b: b, logger: logger}
}

// GetByID retrieves a gym by ID
func (r *GymRepository) GetByID(ctx context.Context, id string) (*domain.Gym, error) {
	if id == "" {
		return nil, fmt.Errorf("gym: %w", domain.ErrNotFound)
	}
	return selectOne[domain.Gym](ctx, r.b, domain.Query{
		Table:   tableGyms,
		Columns: gymColumns,
		Filters: []domain.Filter{domain.Eq("id", id)},
	})
}

// ListAll returns every gym. Only the superadmin listing uses it.
func (r *GymRepository) ListAll(ctx context.Context) ([]*domain.Gym, error) {
	var rows []domain.Gym
	err := r.b.Select(ctx, domain.Query{
		Table:   tableGyms,
		Columns: gymColumns,
		Order:   &domain.Order{Column: "name"},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

// ListByOwner returns the gyms owned by ownerID
func (r *GymRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Gym, error) {
	if ownerID == "" {
		return nil, nil
	}
	var rows []domain.Gym
	err := r.b.Select(ctx, domain.Query{
		Table:   tableGyms,
		Columns: gymColumns,
		Filters: []domain.Filter{domain.Eq("owner_id", ownerID)},
		Order:   &domain.Order{Column: "name"},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

// UpdateLeaderboardConfig replaces the leaderboard reward mapping of a gym
func (r *GymRepository) UpdateLeaderboardConfig(ctx context.Context, gymID string, cfg domain.LeaderboardConfig) error {
	var rows []affected
	err := r.b.Update(ctx, tableGyms,
		map[string]any{"leaderboard_config": cfg},
		[]domain.Filter{domain.Eq("id", gymID)},
		&rows,
	)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("gym %s: %w", gymID, domain.ErrNotFound)
	}
	return nil
}
