package service

import (
	"context"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

// BrandingInput is the branding form. Branding belongs to the gym's owner and
// applies to every gym of that owner.
type BrandingInput struct {
	GymID          string `json:"gym_id"`
	AppName        string `json:"app_name"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// BrandingService updates owner branding
type BrandingService struct {
	deps     Deps
	branding domain.BrandingRepository
}

// NewBrandingService creates a new branding service. branding must write
// through the privileged backend.
func NewBrandingService(deps Deps, branding domain.BrandingRepository) *BrandingService {
	deps.defaults()
	return &BrandingService{deps: deps, branding: branding}
}

// Update upserts the branding of the owner of in.GymID
func (s *BrandingService) Update(ctx context.Context, sess *auth.Session, in BrandingInput) Result {
	out, err := s.update(ctx, sess, in)
	return s.deps.finish(ctx, security.ActionUpdateBranding, sess, in.GymID, "", out, err)
}

func (s *BrandingService) update(ctx context.Context, sess *auth.Session, in BrandingInput) (*domain.OwnerBranding, error) {
	if err := s.deps.precheck(sess, validation.SchemaBranding, in); err != nil {
		return nil, err
	}
	grant, err := s.deps.Authorizer.Authorize(ctx, sess, security.ActionUpdateBranding, in.GymID)
	if err != nil {
		return nil, err
	}
	owner := grant.Gym.Owner()
	if owner == "" {
		return nil, domain.NewFieldError("gym_id", "gym has no owner to brand")
	}

	b := &domain.OwnerBranding{
		OwnerID:        owner,
		AppName:        in.AppName,
		PrimaryColor:   in.PrimaryColor,
		SecondaryColor: in.SecondaryColor,
		LogoURL:        in.LogoURL,
		UpdatedAt:      s.deps.Now().UTC(),
	}
	if err := s.branding.Upsert(ctx, b); err != nil {
		return nil, err
	}
	s.deps.invalidate(ctx, cache.OwnerPrefix(owner))
	return b, nil
}
