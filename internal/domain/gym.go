package domain

import "time"

// GymStatus is the lifecycle state of a gym. Gyms are suspended, never deleted.
type GymStatus string

const (
	GymActive    GymStatus = "active"
	GymSuspended GymStatus = "suspended"
)

// Gym is the tenant entity that scopes most resources
type Gym struct {
	ID                string            `json:"id"`
	OwnerID           *string           `json:"owner_id"`
	Name              string            `json:"name"`
	Status            GymStatus         `json:"status"`
	LeaderboardConfig LeaderboardConfig `json:"leaderboard_config"`
	LogoURL           string            `json:"logo_url,omitempty"`
	AccentColor       string            `json:"accent_color,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Owner returns the owning profile id or "" for ownerless gyms
func (g *Gym) Owner() string {
	if g.OwnerID == nil {
		return ""
	}
	return *g.OwnerID
}

// LeaderboardConfig maps leaderboard ranks to rewards
type LeaderboardConfig struct {
	Rewards []RankReward `json:"rewards"`
}

// RankReward is the reward granted for finishing at Rank
type RankReward struct {
	Rank     int    `json:"rank"`
	RewardID string `json:"reward_id"`
	Label    string `json:"label"`
}

// OwnerBranding is global to every gym of one owner; at most one row per owner_id.
type OwnerBranding struct {
	OwnerID        string    `json:"owner_id"`
	AppName        string    `json:"app_name"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color,omitempty"`
	LogoURL        string    `json:"logo_url,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
