package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/memory"
	"github.com/aryan0dhankhar/gymdesk/internal/repository"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/gymdesk/internal/service"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
)

const (
	gymA       = "11111111-1111-4111-8111-111111111111"
	gymB       = "22222222-2222-4222-8222-222222222222"
	rewardGold = "44444444-4444-4444-8444-444444444444"
	redPending = "66666666-6666-4666-8666-666666666666"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func strPtr(s string) *string { return &s }

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenManager
	store   *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Seed("profiles",
		domain.Profile{ID: "owner-1", Email: "one@example.com", Role: domain.RoleGymOwner},
		domain.Profile{ID: "admin-a", Email: "admin@example.com", Role: domain.RoleGymAdmin, AssignedGymID: strPtr(gymA)},
		domain.Profile{ID: "desk-b", Email: "desk@example.com", FullName: "Desk", Role: domain.RoleReceptionist, AssignedGymID: strPtr(gymB)},
		domain.Profile{ID: "member-1", Email: "new@example.com", Role: domain.RoleMember},
	))
	require.NoError(t, store.Seed("gyms",
		domain.Gym{ID: gymA, OwnerID: strPtr("owner-1"), Name: "North", Status: domain.GymActive},
		domain.Gym{ID: gymB, OwnerID: strPtr("owner-9"), Name: "South", Status: domain.GymActive},
	))
	require.NoError(t, store.Seed("rewards", domain.Reward{ID: rewardGold, GymID: gymA, Name: "Gold"}))
	require.NoError(t, store.Seed("redemptions", domain.Redemption{ID: redPending, GymID: gymB, Status: domain.RedemptionPending}))
	store.HandleRPC("get_gym_analytics", func(_ *memory.Store, params map[string]any) (any, error) {
		return []domain.GymSummary{{GymID: params["p_gym_id"].(string), ActiveMembers: 7}}, nil
	})

	viewCache := cache.NewMemory(128, time.Hour)
	profiles := repository.NewProfileRepository(store, quiet)
	gyms := repository.NewGymRepository(store, quiet)
	redemptions := repository.NewRedemptionRepository(store, quiet)
	staff := repository.NewStaffRepository(store, quiet)
	rewards := repository.NewRewardRepository(store, quiet)

	events := auth.NewEvents(quiet)
	auditLog := audit.NewLogger(quiet)
	resolver := security.NewProfileResolver(profiles, viewCache, time.Minute, quiet)
	resolver.Watch(events)
	lookup := security.NewOwnershipLookup(gyms, redemptions, quiet)
	deps := service.Deps{
		Authorizer: security.NewMutationAuthorizer(resolver, lookup, auditLog, quiet),
		Ownership:  lookup,
		Validator:  validation.MustNew(),
		Cache:      viewCache,
		Audit:      auditLog,
		Events:     events,
		Logger:     quiet,
	}

	views := service.NewViewService(service.ViewRepositories{
		Gyms:        gyms,
		Branding:    repository.NewBrandingRepository(store, quiet),
		Staff:       staff,
		Rewards:     rewards,
		Redemptions: redemptions,
		Analytics:   repository.NewAnalyticsRepository(store, quiet),
	}, viewCache, time.Minute, quiet)

	muts := NewMutationHandler(
		service.NewBrandingService(deps, repository.NewBrandingRepository(store, quiet)),
		service.NewLeaderboardService(deps, gyms, rewards),
		service.NewStaffService(deps, staff, profiles, time.Hour),
		service.NewRedemptionService(deps, redemptions),
		quiet,
	)
	health := NewHealthHandler([]Check{{Name: "backend", Pinger: store}}, quiet)
	gk := middleware.NewGatekeeper(security.NewGate(resolver, lookup, auditLog, quiet), "/login", quiet)

	mux := http.NewServeMux()
	Register(mux, gk, NewPageHandler(views, quiet), muts, health)

	tokens := auth.NewTokenManager("test-secret", "", "")
	return &testServer{
		handler: middleware.Session(tokens, quiet)(mux),
		tokens:  tokens,
		store:   store,
	}
}

func (s *testServer) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		token, err := s.tokens.GenerateToken(user, "", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) service.Result {
	t.Helper()
	var res service.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestReadsAreGated(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/gyms/"+gymA, "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?next="))

	rec = s.do(t, http.MethodGet, "/api/gyms/"+gymA, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.GymView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "North", view.Gym.Name)
	assert.Equal(t, "owner-1", view.Branding.OwnerID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/gyms/"+gymB, "admin-a", "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/gyms/"+gymB+"/team", "desk-b", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/gyms/"+gymB+"/redemptions", "desk-b", "").Code)
}

func TestMeAndGymListing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/me", "desk-b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, domain.RoleReceptionist, me.Role)

	rec = s.do(t, http.MethodGet, "/api/gyms", "admin-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Gyms []domain.Gym `json:"gyms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Gyms, 1)
	assert.Equal(t, gymA, list.Gyms[0].ID)

	rec = s.do(t, http.MethodGet, "/api/gyms", "member-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/me", "member-1", "").Code)
}

func TestMalformedGymIDIsNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/gyms/not-a-uuid", "/api/gyms/not-a-uuid/team", "/api/gyms/gym-1/analytics"} {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "owner-1", "").Code, path)
	}
}

func TestGymPageShowsBrandingWrite(t *testing.T) {
	s := newTestServer(t)
	gymPath := "/api/gyms/" + gymA

	rec := s.do(t, http.MethodGet, gymPath, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, gymPath+"/branding", "owner-1", `{"app_name":"Fresh","primary_color":"#112233"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, gymPath, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.GymView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Fresh", view.Branding.AppName)
	assert.Equal(t, "#112233", view.Branding.PrimaryColor)
}

func TestWriteDeniedAfterProfileDisabled(t *testing.T) {
	s := newTestServer(t)
	path := "/api/gyms/" + gymA + "/leaderboard"

	// the read caches the acting profile
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, "admin-a", "").Code)

	require.NoError(t, s.store.Update(context.Background(), "profiles",
		map[string]any{"disabled": true}, []domain.Filter{domain.Eq("id", "admin-a")}, nil))

	rec := s.do(t, http.MethodPut, path, "admin-a", `{"rewards":[{"rank":1,"reward_id":"`+rewardGold+`","label":"Gold"}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.False(t, decodeResult(t, rec).Success)

	// the write refreshed the cached profile, so reads are denied too
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "admin-a", "").Code)
}

func TestBrandingMutation(t *testing.T) {
	s := newTestServer(t)
	path := "/api/gyms/" + gymA + "/branding"

	// prime the cache with the default branding
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, "owner-1", "").Code)

	rec := s.do(t, http.MethodPut, path, "", `{"app_name":"North Fit","primary_color":"#112233"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.KindAuthenticationMissing, decodeResult(t, rec).Error.Kind)

	rec = s.do(t, http.MethodPut, path, "owner-1", `{"app_name":"North Fit","primary_color":"blue"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decodeResult(t, rec)
	require.NotEmpty(t, res.Error.Fields)
	assert.Equal(t, "primary_color", res.Error.Fields[0].Field)

	rec = s.do(t, http.MethodPut, path, "owner-1", `{"app_name":"North Fit","primary_color":"#112233","owner_id":"owner-9"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPut, path, "admin-a", `{"app_name":"North Fit","primary_color":"#112233"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, path, "owner-1", `{"app_name":"North Fit","primary_color":"#112233"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeResult(t, rec).Success)

	rec = s.do(t, http.MethodGet, path, "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var b domain.OwnerBranding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "North Fit", b.AppName)
}

func TestLeaderboardMutation(t *testing.T) {
	s := newTestServer(t)
	path := "/api/gyms/" + gymA + "/leaderboard"

	rec := s.do(t, http.MethodPut, path, "admin-a", `{"rewards":[{"rank":1,"reward_id":"`+rewardGold+`","label":"Gold"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, path, "admin-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.LeaderboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Config.Rewards, 1)
	require.Len(t, view.Rewards, 1)
	assert.Equal(t, "Gold", view.Rewards[0].Name)
}

func TestInvitationFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/gyms/"+gymA+"/staff/invitations", "admin-a", `{"email":"new@example.com","role":"receptionist"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Token)

	// before accepting, the member cannot see the gym
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/gyms/"+gymA, "member-1", "").Code)

	rec = s.do(t, http.MethodPost, "/api/invitations/"+created.Data.ID+"/accept", "member-1", `{"token":"`+created.Data.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/gyms/"+gymA, "member-1", "").Code)

	rec = s.do(t, http.MethodGet, "/api/gyms/"+gymA+"/team", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var team service.TeamView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	var ids []string
	for _, m := range team.Members {
		ids = append(ids, m.ProfileID)
	}
	assert.Contains(t, ids, "member-1")
}

func TestConfirmRedemption(t *testing.T) {
	s := newTestServer(t)
	path := "/api/gyms/" + gymB + "/redemptions/" + redPending + "/confirm"

	rec := s.do(t, http.MethodPost, path, "desk-b", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, path, "desk-b", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/gyms/"+gymB+"/redemptions?status=confirmed", "desk-b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Redemptions []domain.Redemption `json:"redemptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Redemptions, 1)
	require.NotNil(t, list.Redemptions[0].ConfirmedBy)
	assert.Equal(t, "desk-b", *list.Redemptions[0].ConfirmedBy)
}

func TestRedemptionStatusFilterIsValidated(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/gyms/"+gymB+"/redemptions?status=void", "desk-b", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/gyms/"+gymA+"/analytics", "owner-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.GymSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 7, summary.ActiveMembers)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("dial tcp: refused") }

func TestHealthAndReadiness(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", "").Code)

	h := NewHealthHandler([]Check{
		{Name: "backend", Pinger: s.store},
		{Name: "admin", Pinger: failingPinger{}, Optional: true},
		{Name: "cache", Pinger: failingPinger{}},
	}, quiet)
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Checks["backend"])
	assert.Equal(t, "unavailable", body.Checks["cache"])
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrAuthenticationMissing, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.NewFieldError("x", "bad"), http.StatusUnprocessableEntity},
		{domain.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resultStatus(service.Fail(tt.err)), tt.err.Error())
	}
	assert.Equal(t, http.StatusOK, resultStatus(service.OK(nil)))
}
