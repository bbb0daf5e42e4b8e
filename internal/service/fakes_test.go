package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

const (
	gymA       = "11111111-1111-4111-8111-111111111111" // owner-1
	gymB       = "22222222-2222-4222-8222-222222222222" // owner-9
	gymOrphan  = "33333333-3333-4333-8333-333333333333"
	rewardGold = "44444444-4444-4444-8444-444444444444"
	rewardB    = "55555555-5555-4555-8555-555555555555" // belongs to gymB
	redPending = "66666666-6666-4666-8666-666666666666"
	redDone    = "77777777-7777-4777-8777-777777777777"
	missingID  = "99999999-9999-4999-8999-999999999999"
)

func strPtr(s string) *string { return &s }

type memProfiles struct {
	mu    sync.Mutex
	byID  map[string]*domain.Profile
	reads int
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("profiles: %w", domain.ErrNotFound)
}

func (m *memProfiles) UpdateAssignment(_ context.Context, id string, role domain.Role, gymID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("profiles: %w", domain.ErrNotFound)
	}
	p.Role = role
	p.AssignedGymID = strPtr(gymID)
	return nil
}

type memGyms struct {
	mu     sync.Mutex
	byID   map[string]*domain.Gym
	reads  int
	writes int
}

func (m *memGyms) GetByID(_ context.Context, id string) (*domain.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if g, ok := m.byID[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, fmt.Errorf("gyms: %w", domain.ErrNotFound)
}

func (m *memGyms) ListAll(context.Context) ([]*domain.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Gym{}
	for _, g := range m.byID {
		out = append(out, g)
	}
	return out, nil
}

func (m *memGyms) ListByOwner(_ context.Context, ownerID string) ([]*domain.Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Gym{}
	for _, g := range m.byID {
		if g.Owner() == ownerID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGyms) UpdateLeaderboardConfig(_ context.Context, gymID string, cfg domain.LeaderboardConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	g, ok := m.byID[gymID]
	if !ok {
		return fmt.Errorf("gyms: %w", domain.ErrNotFound)
	}
	g.LeaderboardConfig = cfg
	return nil
}

// memBranding keys rows by owner_id like the upsert conflict target
type memBranding struct {
	mu      sync.Mutex
	byOwner map[string]*domain.OwnerBranding
	writes  int
}

func (m *memBranding) GetByOwner(_ context.Context, ownerID string) (*domain.OwnerBranding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.byOwner[ownerID]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("owner_branding: %w", domain.ErrNotFound)
}

func (m *memBranding) Upsert(_ context.Context, b *domain.OwnerBranding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	cp := *b
	m.byOwner[b.OwnerID] = &cp
	return nil
}

type memStaff struct {
	mu          sync.Mutex
	invitations map[string]*domain.StaffInvitation
	team        map[string][]*domain.TeamMember
	teamReads   int
}

func (m *memStaff) CreateInvitation(_ context.Context, inv *domain.StaffInvitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invitations[inv.ID] = &cp
	return nil
}

func (m *memStaff) GetInvitation(_ context.Context, id string) (*domain.StaffInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, fmt.Errorf("staff_invitations: %w", domain.ErrNotFound)
}

func (m *memStaff) MarkAccepted(_ context.Context, id, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status != domain.InvitationPending {
		return fmt.Errorf("invitation: %w", domain.ErrNotFound)
	}
	inv.Status = domain.InvitationAccepted
	inv.AcceptedBy = strPtr(profileID)
	return nil
}

func (m *memStaff) ListInvitations(_ context.Context, gymID string) ([]*domain.StaffInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.StaffInvitation
	for _, inv := range m.invitations {
		if inv.GymID == gymID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memStaff) ListTeam(_ context.Context, gymID string) ([]*domain.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teamReads++
	return m.team[gymID], nil
}

func (m *memStaff) ExpirePending(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, inv := range m.invitations {
		if inv.Status == domain.InvitationPending && inv.ExpiresAt.Before(before) {
			inv.Status = domain.InvitationExpired
			n++
		}
	}
	return n, nil
}

type memRewards struct {
	rows []*domain.Reward
}

func (m *memRewards) ListByIDs(_ context.Context, gymID string, ids []string) ([]*domain.Reward, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*domain.Reward
	for _, r := range m.rows {
		if r.GymID == gymID && want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type memRedemptions struct {
	mu   sync.Mutex
	rows map[string]*domain.Redemption
}

func (m *memRedemptions) GetForGym(_ context.Context, gymID, id string) (*domain.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok && r.GymID == gymID {
		cp := *r
		return &cp, nil
	}
	return nil, fmt.Errorf("redemptions: %w", domain.ErrNotFound)
}

func (m *memRedemptions) ListForGym(_ context.Context, gymID string, status domain.RedemptionStatus) ([]*domain.Redemption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Redemption
	for _, r := range m.rows {
		if r.GymID == gymID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRedemptions) Confirm(_ context.Context, gymID, id, by string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.GymID != gymID || r.Status != domain.RedemptionPending {
		return fmt.Errorf("redemption: %w", domain.ErrNotFound)
	}
	r.Status = domain.RedemptionConfirmed
	r.ConfirmedBy = strPtr(by)
	r.ConfirmedAt = &at
	return nil
}

type world struct {
	profiles    *memProfiles
	gyms        *memGyms
	branding    *memBranding
	staff       *memStaff
	rewards     *memRewards
	redemptions *memRedemptions
	cache       *cache.Memory
	events      *auth.Events
	deps        Deps
	now         time.Time
}

func newWorld() *world {
	w := &world{
		profiles: &memProfiles{byID: map[string]*domain.Profile{
			"owner-1":  {ID: "owner-1", Email: "one@example.com", Role: domain.RoleGymOwner},
			"owner-9":  {ID: "owner-9", Email: "nine@example.com", Role: domain.RoleGymOwner},
			"admin-a":  {ID: "admin-a", Email: "admin-a@example.com", Role: domain.RoleGymAdmin, AssignedGymID: strPtr(gymA)},
			"desk-b":   {ID: "desk-b", Email: "desk-b@example.com", Role: domain.RoleReceptionist, AssignedGymID: strPtr(gymB)},
			"root":     {ID: "root", Email: "root@example.com", Role: domain.RoleSuperadmin},
			"member-1": {ID: "member-1", Email: "new@example.com", Role: domain.RoleMember},
		}},
		gyms: &memGyms{byID: map[string]*domain.Gym{
			gymA:      {ID: gymA, OwnerID: strPtr("owner-1"), Name: "North"},
			gymB:      {ID: gymB, OwnerID: strPtr("owner-9"), Name: "South"},
			gymOrphan: {ID: gymOrphan, Name: "Orphan"},
		}},
		branding: &memBranding{byOwner: map[string]*domain.OwnerBranding{}},
		staff:    &memStaff{invitations: map[string]*domain.StaffInvitation{}, team: map[string][]*domain.TeamMember{}},
		rewards: &memRewards{rows: []*domain.Reward{
			{ID: rewardGold, GymID: gymA, Name: "Gold"},
			{ID: rewardB, GymID: gymB, Name: "Smoothie"},
		}},
		redemptions: &memRedemptions{rows: map[string]*domain.Redemption{
			redPending: {ID: redPending, GymID: gymB, Status: domain.RedemptionPending},
			redDone:    {ID: redDone, GymID: gymB, Status: domain.RedemptionConfirmed},
		}},
		cache:  cache.NewMemory(64, time.Hour),
		events: auth.NewEvents(nil),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	resolver := security.NewProfileResolver(w.profiles, nil, 0, nil)
	ownership := security.NewOwnershipLookup(w.gyms, w.redemptions, nil)
	auditLog := audit.NewLogger(nil)
	w.deps = Deps{
		Authorizer: security.NewMutationAuthorizer(resolver, ownership, auditLog, nil),
		Ownership:  ownership,
		Validator:  validation.MustNew(),
		Cache:      w.cache,
		Audit:      auditLog,
		Events:     w.events,
		Now:        func() time.Time { return w.now },
	}
	return w
}

func sess(id string) *auth.Session {
	return &auth.Session{UserID: id, AccessToken: "tok-" + id}
}
