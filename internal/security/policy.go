// Package security decides who may see and change which gym. Every page gate
// and every mutation asks Allowed; no other code compares owner or assignment
// ids.
package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// Action is something a profile can do to one gym
type Action string

const (
	ActionViewGym           Action = "view_gym"
	ActionViewTeam          Action = "view_team"
	ActionViewBranding      Action = "view_branding"
	ActionViewLeaderboard   Action = "view_leaderboard"
	ActionViewRedemptions   Action = "view_redemptions"
	ActionViewAnalytics     Action = "view_analytics"
	ActionUpdateBranding    Action = "update_branding"
	ActionUpdateLeaderboard Action = "update_leaderboard"
	ActionInviteStaff       Action = "invite_staff"
	ActionConfirmRedemption Action = "confirm_redemption"
)

// Actions lists every action the policy knows
func Actions() []Action {
	return []Action{
		ActionViewGym, ActionViewTeam, ActionViewBranding, ActionViewLeaderboard,
		ActionViewRedemptions, ActionViewAnalytics, ActionUpdateBranding,
		ActionUpdateLeaderboard, ActionInviteStaff, ActionConfirmRedemption,
	}
}

// Subject is the acting profile reduced to the facts the policy reads
type Subject struct {
	ProfileID     string
	Role          domain.Role
	AssignedGymID string
}

// SubjectOf builds the policy subject of a profile
func SubjectOf(p *domain.Profile) Subject {
	if p == nil {
		return Subject{}
	}
	return Subject{ProfileID: p.ID, Role: p.Role, AssignedGymID: p.EffectiveGymID()}
}

// GymRef is the ownership facts of one gym
type GymRef struct {
	ID      string
	OwnerID string
}

// GymRefOf builds the policy view of a gym
func GymRefOf(g *domain.Gym) GymRef {
	if g == nil {
		return GymRef{}
	}
	return GymRef{ID: g.ID, OwnerID: g.Owner()}
}

// CanAccessGym is the gym access rule:
//
//	superadmin    always
//	gym_owner     gym.OwnerID == profileID
//	gym_admin     gym.OwnerID == profileID or assignedGymID == gym.ID
//	receptionist  assignedGymID == gym.ID
//	anything else never
//
// Empty ids never match.
func CanAccessGym(role domain.Role, profileID, assignedGymID string, gym GymRef) bool {
	owns := profileID != "" && gym.OwnerID == profileID
	assigned := assignedGymID != "" && assignedGymID == gym.ID
	switch role {
	case domain.RoleSuperadmin:
		return true
	case domain.RoleGymOwner:
		return owns
	case domain.RoleGymAdmin:
		return owns || assigned
	case domain.RoleReceptionist:
		return assigned
	default:
		return false
	}
}

// CanManageTeam is the staff-management rule: owner, superadmin or the
// gym_admin assigned to the gym. It is always a subset of CanAccessGym.
func CanManageTeam(role domain.Role, profileID, assignedGymID string, gym GymRef) bool {
	if !CanAccessGym(role, profileID, assignedGymID, gym) {
		return false
	}
	owns := profileID != "" && gym.OwnerID == profileID
	assigned := assignedGymID != "" && assignedGymID == gym.ID
	return owns || role == domain.RoleSuperadmin || (role == domain.RoleGymAdmin && assigned)
}

// Allowed reports whether s may perform action on gym. Unknown actions are
// denied.
func Allowed(action Action, s Subject, gym GymRef) bool {
	access := CanAccessGym(s.Role, s.ProfileID, s.AssignedGymID, gym)
	if !access {
		return false
	}
	switch action {
	case ActionViewGym, ActionViewBranding, ActionViewLeaderboard,
		ActionViewRedemptions, ActionViewAnalytics, ActionConfirmRedemption:
		return true
	case ActionViewTeam, ActionInviteStaff:
		return CanManageTeam(s.Role, s.ProfileID, s.AssignedGymID, gym)
	case ActionUpdateBranding:
		return s.Role == domain.RoleSuperadmin || (s.ProfileID != "" && gym.OwnerID == s.ProfileID)
	case ActionUpdateLeaderboard:
		return s.Role != domain.RoleReceptionist
	default:
		return false
	}
}

// IsStaff reports whether role may use the admin panel at all
func IsStaff(role domain.Role) bool {
	switch role {
	case domain.RoleSuperadmin, domain.RoleGymOwner, domain.RoleGymAdmin, domain.RoleReceptionist:
		return true
	default:
		return false
	}
}

// Policy wraps Allowed with logging for callers that want an error
type Policy struct {
	logger *slog.Logger
}

// NewPolicy creates a new policy
func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger}
}

// Authorize returns ErrAuthorizationDenied when s may not perform action on gym
func (p *Policy) Authorize(action Action, s Subject, gym GymRef) error {
	if Allowed(action, s, gym) {
		return nil
	}
	p.logger.Warn("permission denied",
		slog.String("action", string(action)),
		slog.String("profile_id", s.ProfileID),
		slog.String("role", string(s.Role)),
		slog.String("gym_id", gym.ID),
	)
	return fmt.Errorf("%s on gym %s: %w", action, gym.ID, domain.ErrAuthorizationDenied)
}
