package domain

import "time"

// ResourceKind names a gym-scoped table. Every query on these tables carries a
// gym_id filter.
type ResourceKind string

const (
	ResourceMachine     ResourceKind = "machines"
	ResourceReward      ResourceKind = "rewards"
	ResourceChallenge   ResourceKind = "challenges"
	ResourceWorkoutPlan ResourceKind = "workout_plans"
	ResourceRedemption  ResourceKind = "redemptions"
)

// Reward is a prize a gym hands out
type Reward struct {
	ID     string `json:"id"`
	GymID  string `json:"gym_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// RedemptionStatus is the state of a reward redemption
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "pending"
	RedemptionConfirmed RedemptionStatus = "confirmed"
)

// Redemption is a member's claim on a reward, confirmed at the front desk
type Redemption struct {
	ID          string           `json:"id"`
	GymID       string           `json:"gym_id"`
	ProfileID   string           `json:"profile_id"`
	RewardID    string           `json:"reward_id"`
	Status      RedemptionStatus `json:"status"`
	ConfirmedBy *string          `json:"confirmed_by"`
	ConfirmedAt *time.Time       `json:"confirmed_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

// GymSummary is the aggregate returned by the analytics rpc
type GymSummary struct {
	GymID              string `json:"gym_id"`
	ActiveMembers      int    `json:"active_members"`
	CheckinsLast30Days int    `json:"checkins_last_30_days"`
	PendingRedemptions int    `json:"pending_redemptions"`
	WorkoutsCompleted  int    `json:"workouts_completed"`
}
