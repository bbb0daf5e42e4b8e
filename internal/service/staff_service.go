package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/featureflags"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

const actionAcceptInvitation security.Action = "accept_invitation"

// InviteInput invites someone to a gym's staff
type InviteInput struct {
	GymID string      `json:"gym_id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// AcceptInput redeems an invitation
type AcceptInput struct {
	InvitationID string `json:"invitation_id"`
	Token        string `json:"token"`
}

// Invitation is returned once on creation; the token is not stored in clear
type Invitation struct {
	*domain.StaffInvitation
	Token string `json:"token"`
}

// StaffService manages staff invitations
type StaffService struct {
	deps     Deps
	staff    domain.StaffRepository
	profiles domain.ProfileRepository
	ttl      time.Duration
}

// NewStaffService creates a new staff service. Both repositories must write
// through the privileged backend.
func NewStaffService(deps Deps, staff domain.StaffRepository, profiles domain.ProfileRepository, ttl time.Duration) *StaffService {
	deps.defaults()
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &StaffService{deps: deps, staff: staff, profiles: profiles, ttl: ttl}
}

// Invite creates a pending invitation for in.Email
func (s *StaffService) Invite(ctx context.Context, sess *auth.Session, in InviteInput) Result {
	out, err := s.invite(ctx, sess, in)
	resourceID := ""
	if out != nil {
		resourceID = out.ID
	}
	return s.deps.finish(ctx, security.ActionInviteStaff, sess, in.GymID, resourceID, out, err)
}

func (s *StaffService) invite(ctx context.Context, sess *auth.Session, in InviteInput) (*Invitation, error) {
	if !featureflags.EnabledOr(featureflags.TeamInvitations, true) {
		return nil, fmt.Errorf("invitations disabled: %w", domain.ErrNotFound)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.deps.precheck(sess, validation.SchemaStaffInvite, in); err != nil {
		return nil, err
	}
	grant, err := s.deps.Authorizer.Authorize(ctx, sess, security.ActionInviteStaff, in.GymID)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash invitation token: %w", err)
	}

	now := s.deps.Now().UTC()
	inv := &domain.StaffInvitation{
		ID:        uuid.NewString(),
		GymID:     in.GymID,
		Email:     in.Email,
		Role:      in.Role,
		Status:    domain.InvitationPending,
		TokenHash: string(hash),
		InvitedBy: grant.Profile.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.staff.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}
	s.deps.invalidate(ctx, cache.GymPrefix(in.GymID))

	inv.TokenHash = ""
	return &Invitation{StaffInvitation: inv, Token: token}, nil
}

// Accept assigns the caller to the invitation's gym with its role
func (s *StaffService) Accept(ctx context.Context, sess *auth.Session, in AcceptInput) Result {
	out, gymID, err := s.accept(ctx, sess, in)
	return s.deps.finish(ctx, actionAcceptInvitation, sess, gymID, in.InvitationID, out, err)
}

func (s *StaffService) accept(ctx context.Context, sess *auth.Session, in AcceptInput) (*domain.TeamMember, string, error) {
	if err := s.deps.precheck(sess, validation.SchemaAcceptInvitation, in); err != nil {
		return nil, "", err
	}
	profile, err := s.deps.Authorizer.Authenticate(ctx, sess)
	if err != nil {
		return nil, "", err
	}

	inv, err := s.staff.GetInvitation(ctx, in.InvitationID)
	if err != nil {
		return nil, "", err
	}
	// Wrong token, wrong recipient and used invitations all look like a
	// missing one.
	if inv.Status != domain.InvitationPending ||
		bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(in.Token)) != nil ||
		!sameEmail(inv.Email, profile.Email, sess.Email) {
		return nil, "", fmt.Errorf("invitation %s: %w", in.InvitationID, domain.ErrNotFound)
	}
	if s.deps.Now().After(inv.ExpiresAt) {
		return nil, inv.GymID, domain.NewFieldError("invitation_id", "invitation has expired")
	}
	if profile.Role == domain.RoleSuperadmin || profile.Role == domain.RoleGymOwner {
		return nil, inv.GymID, domain.NewFieldError("invitation_id", "owners and superadmins cannot join a gym as staff")
	}

	if err := s.staff.MarkAccepted(ctx, inv.ID, profile.ID); err != nil {
		return nil, inv.GymID, err
	}
	if err := s.profiles.UpdateAssignment(ctx, profile.ID, inv.Role, inv.GymID); err != nil {
		return nil, inv.GymID, err
	}

	if previous := profile.EffectiveGymID(); previous != "" && previous != inv.GymID {
		s.deps.invalidate(ctx, cache.GymPrefix(previous))
	}
	s.deps.invalidate(ctx, cache.GymPrefix(inv.GymID))
	if s.deps.Events != nil {
		s.deps.Events.Emit(auth.Event{Type: auth.EventProfileUpdated, UserID: profile.ID})
	}

	return &domain.TeamMember{
		ProfileID: profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Role:      inv.Role,
	}, inv.GymID, nil
}

// sameEmail matches the invited address against the profile or session email
func sameEmail(invited string, candidates ...string) bool {
	for _, c := range candidates {
		if c != "" && strings.EqualFold(strings.TrimSpace(c), invited) {
			return true
		}
	}
	return false
}

func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("generate invitation token")
	}
	return hex.EncodeToString(buf), nil
}
