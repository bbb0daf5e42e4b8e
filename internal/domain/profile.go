package domain

import "time"

// Role is the application role carried by a profile
type Role string

const (
	RoleSuperadmin   Role = "superadmin"
	RoleGymOwner     Role = "gym_owner"
	RoleGymAdmin     Role = "gym_admin"
	RoleReceptionist Role = "receptionist"
	RoleMember       Role = "member"
)

// ParseRole returns the role for s. Unknown values come back with ok=false and
// are denied by every policy.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleSuperadmin, RoleGymOwner, RoleGymAdmin, RoleReceptionist, RoleMember:
		return r, true
	default:
		return r, false
	}
}

// Profile is the application user record, distinct from the auth identity
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email,omitempty"`
	FullName      string    `json:"full_name,omitempty"`
	Role          Role      `json:"role"`
	AssignedGymID *string   `json:"assigned_gym_id"`
	AdminGymID    *string   `json:"admin_gym_id"` // legacy alias of AssignedGymID
	OwnerID       *string   `json:"owner_id"`     // profile that created this one
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectiveGymID returns the gym the profile is assigned to, falling back to the
// legacy admin_gym_id column for rows written before the rename.
func (p *Profile) EffectiveGymID() string {
	if p.AssignedGymID != nil && *p.AssignedGymID != "" {
		return *p.AssignedGymID
	}
	if p.AdminGymID != nil {
		return *p.AdminGymID
	}
	return ""
}
