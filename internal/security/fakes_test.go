package security

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

type fakeProfiles struct {
	byID  map[string]*domain.Profile
	calls atomic.Int32
	err   error
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("profiles: %w", domain.ErrNotFound)
}

func (f *fakeProfiles) UpdateAssignment(context.Context, string, domain.Role, string) error {
	return nil
}

type fakeGyms struct {
	byID  map[string]*domain.Gym
	calls atomic.Int32
	err   error
}

func (f *fakeGyms) GetByID(_ context.Context, id string) (*domain.Gym, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if g, ok := f.byID[id]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("gyms: %w", domain.ErrNotFound)
}

func (f *fakeGyms) ListAll(context.Context) ([]*domain.Gym, error) {
	return nil, nil
}

func (f *fakeGyms) ListByOwner(context.Context, string) ([]*domain.Gym, error) {
	return nil, nil
}

func (f *fakeGyms) UpdateLeaderboardConfig(context.Context, string, domain.LeaderboardConfig) error {
	return nil
}

type fakeRedemptions struct {
	rows []*domain.Redemption
}

func (f *fakeRedemptions) GetForGym(_ context.Context, gymID, id string) (*domain.Redemption, error) {
	for _, r := range f.rows {
		if r.ID == id && r.GymID == gymID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("redemptions: %w", domain.ErrNotFound)
}

func (f *fakeRedemptions) ListForGym(context.Context, string, domain.RedemptionStatus) ([]*domain.Redemption, error) {
	return f.rows, nil
}

func (f *fakeRedemptions) Confirm(context.Context, string, string, string, time.Time) error {
	return nil
}

func strPtr(s string) *string { return &s }

const (
	gym1       = "10000000-0000-4000-8000-000000000001"
	gym2       = "10000000-0000-4000-8000-000000000002"
	gym3       = "10000000-0000-4000-8000-000000000003"
	gymMissing = "10000000-0000-4000-8000-000000000404"
)

// fixture is the scenario world: gym1 owned by owner-1, gym2 owned by owner-9,
// gym3 without owner
type fixture struct {
	profiles *fakeProfiles
	gyms     *fakeGyms
	resolver *ProfileResolver
	lookup   *OwnershipLookup
}

func newFixture() *fixture {
	profiles := &fakeProfiles{byID: map[string]*domain.Profile{
		"admin-1":    {ID: "admin-1", Role: domain.RoleGymAdmin, AssignedGymID: strPtr(gym1)},
		"owner-9":    {ID: "owner-9", Role: domain.RoleGymOwner},
		"desk-1":     {ID: "desk-1", Role: domain.RoleReceptionist, AssignedGymID: strPtr(gym2)},
		"root":       {ID: "root", Role: domain.RoleSuperadmin},
		"member-1":   {ID: "member-1", Role: domain.RoleMember},
		"disabled-1": {ID: "disabled-1", Role: domain.RoleGymOwner, Disabled: true},
	}}
	gyms := &fakeGyms{byID: map[string]*domain.Gym{
		gym1: {ID: gym1, OwnerID: strPtr("owner-1"), Name: "North"},
		gym2: {ID: gym2, OwnerID: strPtr("owner-9"), Name: "South"},
		gym3: {ID: gym3, Name: "Orphan"},
	}}
	resolver := NewProfileResolver(profiles, nil, 0, nil)
	lookup := NewOwnershipLookup(gyms, &fakeRedemptions{rows: []*domain.Redemption{
		{ID: "red-1", GymID: gym2, Status: domain.RedemptionPending},
	}}, nil)
	return &fixture{profiles: profiles, gyms: gyms, resolver: resolver, lookup: lookup}
}
