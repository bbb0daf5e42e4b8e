package service

import (
	"context"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// ConfirmInput confirms a reward redemption at the front desk
type ConfirmInput struct {
	GymID        string `json:"gym_id"`
	RedemptionID string `json:"redemption_id"`
}

// RedemptionService confirms redemptions
type RedemptionService struct {
	deps        Deps
	redemptions domain.RedemptionRepository
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(deps Deps, redemptions domain.RedemptionRepository) *RedemptionService {
	deps.defaults()
	return &RedemptionService{deps: deps, redemptions: redemptions}
}

// Confirm marks a pending redemption of the gym confirmed
func (s *RedemptionService) Confirm(ctx context.Context, sess *auth.Session, in ConfirmInput) Result {
	out, err := s.confirm(ctx, sess, in)
	return s.deps.finish(ctx, security.ActionConfirmRedemption, sess, in.GymID, in.RedemptionID, out, err)
}

func (s *RedemptionService) confirm(ctx context.Context, sess *auth.Session, in ConfirmInput) (*domain.Redemption, error) {
	if err := s.deps.precheck(sess, validation.SchemaConfirmRedemption, in); err != nil {
		return nil, err
	}
	grant, err := s.deps.Authorizer.Authorize(ctx, sess, security.ActionConfirmRedemption, in.GymID)
	if err != nil {
		return nil, err
	}

	red, err := s.deps.Ownership.Redemption(domain.ContextWithAccessToken(ctx, sess.AccessToken), in.GymID, in.RedemptionID)
	if err != nil {
		return nil, err
	}
	if red.Status != domain.RedemptionPending {
		return nil, domain.NewFieldError("redemption_id", "redemption is already confirmed")
	}

	now := s.deps.Now().UTC()
	if err := s.redemptions.Confirm(ctx, in.GymID, in.RedemptionID, grant.Profile.ID, now); err != nil {
		return nil, err
	}
	s.deps.invalidate(ctx, cache.GymPrefix(in.GymID))

	red.Status = domain.RedemptionConfirmed
	red.ConfirmedBy = &grant.Profile.ID
	red.ConfirmedAt = &now
	return red, nil
}
