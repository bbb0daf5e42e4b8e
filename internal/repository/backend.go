package repository

import (
	"context"
	"fmt"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// Table names in the hosted schema
const (
	tableProfiles    = "profiles"
	tableGyms        = "gyms"
	tableBranding    = "owner_branding"
	tableInvitations = "staff_invitations"
	tableRewards     = "rewards"
	tableRedemptions = "redemptions"
)

// selectOne reads at most one row. An empty result is ErrNotFound; rows hidden
// by row-level security look the same.
func selectOne[T any](ctx context.Context, b domain.Backend, q domain.Query) (*T, error) {
	q.Limit = 1
	var rows []T
	if err := b.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", q.Table, domain.ErrNotFound)
	}
	return &rows[0], nil
}

// pointers converts a row slice into the pointer slices the interfaces return
func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// affected decodes the rows returned by a write
type affected struct {
	ID string `json:"id"`
}
