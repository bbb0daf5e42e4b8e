package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// RedemptionRepository implements domain.RedemptionRepository on a backend
type RedemptionRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(b domain.Backend, logger *slog.Logger) *RedemptionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedemptionRepository{b: b, logger: logger}
}

// GetForGym retrieves a redemption by ID within one gym
func (r *RedemptionRepository) GetForGym(ctx context.Context, gymID, id string) (*domain.Redemption, error) {
	if gymID == "" || id == "" {
		return nil, fmt.Errorf("redemption: %w", domain.ErrNotFound)
	}
	return selectOne[domain.Redemption](ctx, r.b, domain.Query{
		Table: tableRedemptions,
		Filters: []domain.Filter{
			domain.Eq("gym_id", gymID),
			domain.Eq("id", id),
		},
	})
}

// ListForGym returns redemptions of one gym, optionally filtered by status
func (r *RedemptionRepository) ListForGym(ctx context.Context, gymID string, status domain.RedemptionStatus) ([]*domain.Redemption, error) {
	filters := []domain.Filter{domain.Eq("gym_id", gymID)}
	if status != "" {
		filters = append(filters, domain.Eq("status", status))
	}
	var rows []domain.Redemption
	err := r.b.Select(ctx, domain.Query{
		Table:   tableRedemptions,
		Filters: filters,
		Order:   &domain.Order{Column: "created_at", Descending: true},
		Limit:   200,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

// Confirm marks a pending redemption confirmed. Already-confirmed rows are
// reported as not found.
func (r *RedemptionRepository) Confirm(ctx context.Context, gymID, id, confirmedBy string, at time.Time) error {
	var rows []affected
	err := r.b.Update(ctx, tableRedemptions, map[string]any{
		"status":       string(domain.RedemptionConfirmed),
		"confirmed_by": confirmedBy,
		"confirmed_at": at.UTC(),
	}, []domain.Filter{
		domain.Eq("gym_id", gymID),
		domain.Eq("id", id),
		domain.Eq("status", domain.RedemptionPending),
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("redemption %s: %w", id, domain.ErrNotFound)
	}
	r.logger.Info("redemption confirmed",
		slog.String("gym_id", gymID),
		slog.String("redemption_id", id),
		slog.String("confirmed_by", confirmedBy),
	)
	return nil
}
