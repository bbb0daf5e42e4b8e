package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// BrandingRepository implements domain.BrandingRepository on a backend
type BrandingRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewBrandingRepository creates a new branding repository
func NewBrandingRepository(b domain.Backend, logger *slog.Logger) *BrandingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrandingRepository{b: b, logger: logger}
}

// GetByOwner retrieves the branding row of an owner
func (r *BrandingRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.OwnerBranding, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("branding: %w", domain.ErrNotFound)
	}
	return selectOne[domain.OwnerBranding](ctx, r.b, domain.Query{
		Table:   tableBranding,
		Filters: []domain.Filter{domain.Eq("owner_id", ownerID)},
	})
}

// Upsert writes the branding row of branding.OwnerID, replacing any existing
// row for the same owner.
func (r *BrandingRepository) Upsert(ctx context.Context, branding *domain.OwnerBranding) error {
	if branding.OwnerID == "" {
		return fmt.Errorf("branding upsert: owner_id is required")
	}
	if branding.UpdatedAt.IsZero() {
		branding.UpdatedAt = time.Now().UTC()
	}
	var rows []domain.OwnerBranding
	err := r.b.Upsert(ctx, tableBranding, map[string]any{
		"owner_id":        branding.OwnerID,
		"app_name":        branding.AppName,
		"primary_color":   branding.PrimaryColor,
		"secondary_color": branding.SecondaryColor,
		"logo_url":        branding.LogoURL,
		"updated_at":      branding.UpdatedAt,
	}, "owner_id", &rows)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		*branding = rows[0]
	}
	return nil
}
