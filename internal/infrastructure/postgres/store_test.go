package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil), mock
}

func jsonRow(body string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte(body))
}

func TestSelectBuildsScopedQuery(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT "id", "gym_id", "status" FROM "redemptions" WHERE "gym_id" = $1 AND "status" = $2 ORDER BY "created_at" DESC LIMIT 50) t`).
		WithArgs("gym-1", "pending").
		WillReturnRows(jsonRow(`[{"id":"r-1","gym_id":"gym-1","status":"pending"}]`))

	var rows []domain.Redemption
	err := s.Select(context.Background(), domain.Query{
		Table:   "redemptions",
		Columns: []string{"id", "gym_id", "status"},
		Filters: []domain.Filter{domain.Eq("gym_id", "gym-1"), domain.Eq("status", domain.RedemptionPending)},
		Order:   &domain.Order{Column: "created_at", Descending: true},
		Limit:   50,
	}, &rows)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r-1", rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectInAndIsNull(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT * FROM "rewards" WHERE "gym_id" = $1 AND "id" = ANY($2) AND "deleted_at" IS NULL) t`).
		WithArgs("gym-1", pq.Array([]string{"a", "b"})).
		WillReturnRows(jsonRow(`[]`))

	var rows []domain.Reward
	err := s.Select(context.Background(), domain.Query{
		Table: "rewards",
		Filters: []domain.Filter{
			domain.Eq("gym_id", "gym-1"),
			{Column: "id", Op: domain.OpIn, Value: []string{"a", "b"}},
			{Column: "deleted_at", Op: domain.OpIs},
		},
	}, &rows)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectRejectsBadIdentifier(t *testing.T) {
	s, mock := newMockStore(t)
	var rows []domain.Gym
	err := s.Select(context.Background(), domain.Query{Table: `gyms; drop table gyms`}, &rows)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOnOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WITH changed AS (INSERT INTO "owner_branding" ("app_name", "owner_id", "primary_color") VALUES ($1, $2, $3) ON CONFLICT ("owner_id") DO UPDATE SET "app_name" = EXCLUDED."app_name", "primary_color" = EXCLUDED."primary_color" RETURNING *) SELECT coalesce(json_agg(changed), '[]'::json) FROM changed`).
		WithArgs("Iron Temple", "owner-9", "#112233").
		WillReturnRows(jsonRow(`[{"owner_id":"owner-9","app_name":"Iron Temple","primary_color":"#112233"}]`))

	var out domain.OwnerBranding
	err := s.Upsert(context.Background(), "owner_branding", map[string]any{
		"owner_id":      "owner-9",
		"app_name":      "Iron Temple",
		"primary_color": "#112233",
	}, "owner_id", &out)
	require.NoError(t, err)
	assert.Equal(t, "Iron Temple", out.AppName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEncodesJSONColumns(t *testing.T) {
	s, mock := newMockStore(t)

	cfg := domain.LeaderboardConfig{Rewards: []domain.RankReward{{Rank: 1, RewardID: "rw-1", Label: "Gold"}}}
	mock.ExpectQuery(`WITH changed AS (UPDATE "gyms" SET "leaderboard_config" = $1 WHERE "id" = $2 RETURNING *) SELECT coalesce(json_agg(changed), '[]'::json) FROM changed`).
		WithArgs(`{"rewards":[{"rank":1,"reward_id":"rw-1","label":"Gold"}]}`, "gym-1").
		WillReturnRows(jsonRow(`[{"id":"gym-1"}]`))

	err := s.Update(context.Background(), "gyms", map[string]any{"leaderboard_config": cfg}, []domain.Filter{domain.Eq("id", "gym-1")}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRequiresFilters(t *testing.T) {
	s, _ := newMockStore(t)
	err := s.Update(context.Background(), "gyms", map[string]any{"name": "x"}, nil, nil)
	require.Error(t, err)
}

func TestRPCNamedArguments(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT coalesce(json_agg(r), '[]'::json) FROM "get_gym_analytics"("p_gym_id" => $1) AS r`).
		WithArgs("gym-1").
		WillReturnRows(jsonRow(`[{"gym_id":"gym-1","active_members":12}]`))

	var out domain.GymSummary
	require.NoError(t, s.RPC(context.Background(), "get_gym_analytics", map[string]any{"p_gym_id": "gym-1"}, &out))
	assert.Equal(t, 12, out.ActiveMembers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorIsUpstream(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT * FROM "gyms") t`).
		WillReturnError(errors.New("connection refused"))

	var rows []domain.Gym
	err := s.Select(context.Background(), domain.Query{Table: "gyms"}, &rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.NoError(t, mock.ExpectationsWereMet())
}
