package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

var profileColumns = []string{"id", "email", "full_name", "role", "assigned_gym_id", "admin_gym_id", "owner_id", "disabled", "created_at"}

// ProfileRepository implements domain.ProfileRepository on a backend
type ProfileRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(b domain.Backend, logger *slog.Logger) *ProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileRepository{b: b, logger: logger}
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return selectOne[domain.Profile](ctx, r.b, domain.Query{
		Table:   tableProfiles,
		Columns: profileColumns,
		Filters: []domain.Filter{domain.Eq("id", id)},
	})
}

// UpdateAssignment sets the role and assigned gym of a profile. The legacy
// admin_gym_id column is kept in step so older readers agree.
func (r *ProfileRepository) UpdateAssignment(ctx context.Context, id string, role domain.Role, gymID string) error {
	var rows []affected
	err := r.b.Update(ctx, tableProfiles, map[string]any{
		"role":            string(role),
		"assigned_gym_id": gymID,
		"admin_gym_id":    gymID,
	}, []domain.Filter{domain.Eq("id", id)}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	r.logger.Info("profile assignment updated",
		slog.String("profile_id", id),
		slog.String("role", string(role)),
		slog.String("gym_id", gymID),
	)
	return nil
}
