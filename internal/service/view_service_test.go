package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

func newViews(w *world) *ViewService {
	return NewViewService(ViewRepositories{
		Gyms:        w.gyms,
		Branding:    w.branding,
		Staff:       w.staff,
		Rewards:     w.rewards,
		Redemptions: w.redemptions,
	}, w.cache, time.Minute, nil)
}

func gymIDs(gyms []*domain.Gym) []string {
	ids := make([]string, 0, len(gyms))
	for _, g := range gyms {
		ids = append(ids, g.ID)
	}
	return ids
}

func TestListGymsFollowsAccessRules(t *testing.T) {
	w := newWorld()
	v := newViews(w)
	ctx := context.Background()

	tests := []struct {
		profile string
		want    []string
	}{
		{"root", []string{gymA, gymB, gymOrphan}},
		{"owner-1", []string{gymA}},
		{"admin-a", []string{gymA}},
		{"desk-b", []string{gymB}},
		{"member-1", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			gyms, err := v.ListGyms(ctx, w.profiles.byID[tt.profile])
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, gymIDs(gyms))
		})
	}
}

func TestTeamViewIsCachedUntilInvalidated(t *testing.T) {
	w := newWorld()
	w.staff.team[gymA] = []*domain.TeamMember{{ProfileID: "admin-a", Role: domain.RoleGymAdmin}}
	v := newViews(w)
	ctx := context.Background()

	first, err := v.Team(ctx, gymA)
	require.NoError(t, err)
	require.Len(t, first.Members, 1)
	assert.NotNil(t, first.Invitations)

	_, err = v.Team(ctx, gymA)
	require.NoError(t, err)
	assert.Equal(t, 1, w.staff.teamReads)

	require.NoError(t, w.cache.Invalidate(ctx, cache.GymPrefix(gymB)))
	_, err = v.Team(ctx, gymA)
	require.NoError(t, err)
	assert.Equal(t, 1, w.staff.teamReads, "other gym invalidation keeps the entry")

	require.NoError(t, w.cache.Invalidate(ctx, cache.GymPrefix(gymA)))
	_, err = v.Team(ctx, gymA)
	require.NoError(t, err)
	assert.Equal(t, 2, w.staff.teamReads)
}

func TestBrandingViewDefaults(t *testing.T) {
	w := newWorld()
	v := newViews(w)
	ctx := context.Background()

	b, err := v.Branding(ctx, w.gyms.byID[gymOrphan])
	require.NoError(t, err)
	assert.Empty(t, b.OwnerID)

	b, err = v.Branding(ctx, w.gyms.byID[gymA])
	require.NoError(t, err)
	assert.Equal(t, "owner-1", b.OwnerID)
	assert.Empty(t, b.AppName)
}

func TestGymViewFollowsOwnerBranding(t *testing.T) {
	w := newWorld()
	v := newViews(w)
	ctx := context.Background()
	gym := w.gyms.byID[gymA]

	view, err := v.Gym(ctx, gym)
	require.NoError(t, err)
	assert.Empty(t, view.Branding.AppName)

	require.NoError(t, w.branding.Upsert(ctx, &domain.OwnerBranding{OwnerID: "owner-1", AppName: "Fresh"}))
	require.NoError(t, w.cache.Invalidate(ctx, cache.OwnerPrefix("owner-1")))

	view, err = v.Gym(ctx, gym)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", view.Branding.AppName)
	assert.Same(t, gym, view.Gym)
}

func TestLeaderboardViewSortsByRank(t *testing.T) {
	w := newWorld()
	gym := w.gyms.byID[gymA]
	gym.LeaderboardConfig.Rewards = []domain.RankReward{
		{Rank: 3, RewardID: rewardGold, Label: "Bronze"},
		{Rank: 1, RewardID: rewardGold, Label: "Gold"},
	}
	v := newViews(w)

	lb, err := v.Leaderboard(context.Background(), gym)
	require.NoError(t, err)
	require.Len(t, lb.Config.Rewards, 2)
	assert.Equal(t, 1, lb.Config.Rewards[0].Rank)
	assert.Equal(t, 3, gym.LeaderboardConfig.Rewards[0].Rank, "source config is not reordered")
	require.Len(t, lb.Rewards, 1)
	assert.Equal(t, "Gold", lb.Rewards[0].Name)
}

func TestRedemptionsFilterByStatus(t *testing.T) {
	w := newWorld()
	v := newViews(w)

	all, err := v.Redemptions(context.Background(), gymB, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := v.Redemptions(context.Background(), gymB, domain.RedemptionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, redPending, pending[0].ID)

	none, err := v.Redemptions(context.Background(), gymA, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
