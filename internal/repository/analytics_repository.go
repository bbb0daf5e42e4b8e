package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// AnalyticsRepository implements domain.AnalyticsRepository with backend rpc calls
type AnalyticsRepository struct {
	b      domain.Backend
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(b domain.Backend, logger *slog.Logger) *AnalyticsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsRepository{b: b, logger: logger}
}

// GymSummary calls get_gym_analytics for one gym. The function may answer with
// a single record or a one-row set depending on how it is declared.
func (r *AnalyticsRepository) GymSummary(ctx context.Context, gymID string) (*domain.GymSummary, error) {
	var raw json.RawMessage
	if err := r.b.RPC(ctx, "get_gym_analytics", map[string]any{"p_gym_id": gymID}, &raw); err != nil {
		return nil, err
	}

	summary := domain.GymSummary{}
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		var rows []domain.GymSummary
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, domain.Upstream("rpc get_gym_analytics", err)
		}
		if len(rows) > 0 {
			summary = rows[0]
		}
	default:
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, domain.Upstream("rpc get_gym_analytics", err)
		}
	}
	summary.GymID = gymID
	return &summary, nil
}
