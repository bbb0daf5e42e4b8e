package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// OwnershipLookup fetches the ownership facts the policy needs. It never tells
// a missing row apart from one hidden by row-level security.
type OwnershipLookup struct {
	gyms        domain.GymRepository
	redemptions domain.RedemptionRepository
	logger      *slog.Logger
}

// NewOwnershipLookup creates a new ownership lookup
func NewOwnershipLookup(gyms domain.GymRepository, redemptions domain.RedemptionRepository, logger *slog.Logger) *OwnershipLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipLookup{gyms: gyms, redemptions: redemptions, logger: logger}
}

// GymFacts returns the gym with its owner. An id that is not a uuid names no
// gym and never reaches the backend.
func (o *OwnershipLookup) GymFacts(ctx context.Context, gymID string) (*domain.Gym, error) {
	if _, err := uuid.Parse(gymID); err != nil {
		return nil, errGymNotFound
	}
	g, err := o.gyms.GetByID(ctx, gymID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errGymNotFound
		}
		o.logger.Error("gym lookup failed",
			slog.String("gym_id", gymID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return g, nil
}

// Redemption returns a redemption only if it belongs to gymID
func (o *OwnershipLookup) Redemption(ctx context.Context, gymID, redemptionID string) (*domain.Redemption, error) {
	r, err := o.redemptions.GetForGym(ctx, gymID, redemptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("redemption: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if r.GymID != gymID {
		return nil, fmt.Errorf("redemption: %w", domain.ErrNotFound)
	}
	return r, nil
}
