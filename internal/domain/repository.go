package domain

import (
	"context"
	"time"
)

// ProfileRepository defines data access for profiles
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	UpdateAssignment(ctx context.Context, id string, role Role, gymID string) error
}

// GymRepository defines data access for gyms
type GymRepository interface {
	GetByID(ctx context.Context, id string) (*Gym, error)
	ListAll(ctx context.Context) ([]*Gym, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Gym, error)
	UpdateLeaderboardConfig(ctx context.Context, gymID string, cfg LeaderboardConfig) error
}

// BrandingRepository defines data access for owner branding
type BrandingRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*OwnerBranding, error)
	Upsert(ctx context.Context, branding *OwnerBranding) error
}

// StaffRepository defines data access for invitations and team listings
type StaffRepository interface {
	CreateInvitation(ctx context.Context, inv *StaffInvitation) error
	GetInvitation(ctx context.Context, id string) (*StaffInvitation, error)
	MarkAccepted(ctx context.Context, id, profileID string) error
	ListInvitations(ctx context.Context, gymID string) ([]*StaffInvitation, error)
	ListTeam(ctx context.Context, gymID string) ([]*TeamMember, error)
	ExpirePending(ctx context.Context, before time.Time) (int, error)
}

// RewardRepository defines data access for rewards
type RewardRepository interface {
	ListByIDs(ctx context.Context, gymID string, ids []string) ([]*Reward, error)
}

// RedemptionRepository defines data access for redemptions
type RedemptionRepository interface {
	GetForGym(ctx context.Context, gymID, id string) (*Redemption, error)
	ListForGym(ctx context.Context, gymID string, status RedemptionStatus) ([]*Redemption, error)
	Confirm(ctx context.Context, gymID, id, confirmedBy string, at time.Time) error
}

// AnalyticsRepository runs aggregate functions in the backend
type AnalyticsRepository interface {
	GymSummary(ctx context.Context, gymID string) (*GymSummary, error)
}
