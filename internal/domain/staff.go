package domain

import "time"

// InvitationStatus tracks a staff invitation from creation to acceptance
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// StaffInvitation assigns a profile to a gym with a staff role once accepted
type StaffInvitation struct {
	ID         string           `json:"id"`
	GymID      string           `json:"gym_id"`
	Email      string           `json:"email"`
	Role       Role             `json:"role"`
	Status     InvitationStatus `json:"status"`
	TokenHash  string           `json:"token_hash,omitempty"`
	InvitedBy  string           `json:"invited_by"`
	AcceptedBy *string          `json:"accepted_by"`
	ExpiresAt  time.Time        `json:"expires_at"`
	CreatedAt  time.Time        `json:"created_at"`
}

// StaffRoles are the roles an invitation may grant
var StaffRoles = []Role{RoleGymAdmin, RoleReceptionist}

// TeamMember is a staff profile assigned to a gym
type TeamMember struct {
	ProfileID string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      Role   `json:"role"`
}
