package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// StaffRepository implements domain.StaffRepository on a backend
type StaffRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(b domain.Backend, logger *slog.Logger) *StaffRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaffRepository{b: b, logger: logger}
}

// CreateInvitation inserts a pending invitation
func (r *StaffRepository) CreateInvitation(ctx context.Context, inv *domain.StaffInvitation) error {
	values := map[string]any{
		"gym_id":     inv.GymID,
		"email":      inv.Email,
		"role":       string(inv.Role),
		"status":     string(inv.Status),
		"token_hash": inv.TokenHash,
		"invited_by": inv.InvitedBy,
		"expires_at": inv.ExpiresAt,
	}
	if inv.ID != "" {
		values["id"] = inv.ID
	}
	var rows []domain.StaffInvitation
	if err := r.b.Insert(ctx, tableInvitations, values, &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		inv.ID = rows[0].ID
		inv.CreatedAt = rows[0].CreatedAt
	}
	return nil
}

// GetInvitation retrieves an invitation by ID
func (r *StaffRepository) GetInvitation(ctx context.Context, id string) (*domain.StaffInvitation, error) {
	if id == "" {
		return nil, fmt.Errorf("invitation: %w", domain.ErrNotFound)
	}
	return selectOne[domain.StaffInvitation](ctx, r.b, domain.Query{
		Table:   tableInvitations,
		Filters: []domain.Filter{domain.Eq("id", id)},
	})
}

// MarkAccepted moves a pending invitation to accepted. A row that is no longer
// pending is reported as not found.
func (r *StaffRepository) MarkAccepted(ctx context.Context, id, profileID string) error {
	var rows []affected
	err := r.b.Update(ctx, tableInvitations, map[string]any{
		"status":      string(domain.InvitationAccepted),
		"accepted_by": profileID,
	}, []domain.Filter{
		domain.Eq("id", id),
		domain.Eq("status", domain.InvitationPending),
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListInvitations returns the invitations of one gym, newest first
func (r *StaffRepository) ListInvitations(ctx context.Context, gymID string) ([]*domain.StaffInvitation, error) {
	var rows []domain.StaffInvitation
	err := r.b.Select(ctx, domain.Query{
		Table:   tableInvitations,
		Columns: []string{"id", "gym_id", "email", "role", "status", "invited_by", "accepted_by", "expires_at", "created_at"},
		Filters: []domain.Filter{domain.Eq("gym_id", gymID)},
		Order:   &domain.Order{Column: "created_at", Descending: true},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

// ListTeam returns the staff profiles assigned to one gym
func (r *StaffRepository) ListTeam(ctx context.Context, gymID string) ([]*domain.TeamMember, error) {
	roles := make([]string, len(domain.StaffRoles))
	for i, role := range domain.StaffRoles {
		roles[i] = string(role)
	}
	var rows []domain.TeamMember
	err := r.b.Select(ctx, domain.Query{
		Table:   tableProfiles,
		Columns: []string{"id", "email", "full_name", "role"},
		Filters: []domain.Filter{
			domain.Eq("assigned_gym_id", gymID),
			{Column: "role", Op: domain.OpIn, Value: roles},
			domain.Eq("disabled", false),
		},
		Order: &domain.Order{Column: "full_name"},
	}, &rows)
	if err != nil {
		return nil, err
	}
	return pointers(rows), nil
}

// ExpirePending marks every pending invitation that expired before the cutoff
// and returns how many rows changed.
func (r *StaffRepository) ExpirePending(ctx context.Context, before time.Time) (int, error) {
	var rows []affected
	err := r.b.Update(ctx, tableInvitations, map[string]any{
		"status": string(domain.InvitationExpired),
	}, []domain.Filter{
		domain.Eq("status", domain.InvitationPending),
		{Column: "expires_at", Op: domain.OpLt, Value: before.UTC()},
	}, &rows)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
