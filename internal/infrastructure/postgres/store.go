package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// Config holds database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements domain.Backend directly against Postgres. It is the
// self-hosted alternative to the hosted REST client and speaks the same
// select/rpc/write vocabulary. Row-level security is whatever the connecting
// role is subject to; the application policy still runs first.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Open creates a connection pool and verifies it with a ping
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected")
	return New(db, logger), nil
}

// New wraps an existing pool
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the pool
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks the database health
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Upstream("ping", err)
	}
	return nil
}

// Select reads rows as a JSON array and decodes them into dest
func (s *Store) Select(ctx context.Context, q domain.Query, dest any) error {
	table, err := quote(q.Table)
	if err != nil {
		return err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			if quoted[i], err = quote(c); err != nil {
				return err
			}
		}
		cols = strings.Join(quoted, ", ")
	}

	where, args, err := whereClause(q.Filters, 1)
	if err != nil {
		return err
	}

	inner := fmt.Sprintf("SELECT %s FROM %s%s", cols, table, where)
	if q.Order != nil {
		col, err := quote(q.Order.Column)
		if err != nil {
			return err
		}
		dir := "ASC"
		if q.Order.Descending {
			dir = "DESC"
		}
		inner += fmt.Sprintf(" ORDER BY %s %s", col, dir)
	}
	if q.Limit > 0 {
		inner += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	query := fmt.Sprintf("SELECT coalesce(json_agg(t), '[]'::json) FROM (%s) t", inner)
	return s.queryJSON(ctx, "select "+q.Table, query, args, dest)
}

// RPC calls a database function with named arguments
func (s *Store) RPC(ctx context.Context, fn string, params map[string]any, dest any) error {
	name, err := quote(fn)
	if err != nil {
		return err
	}
	keys := sortedKeys(params)
	named := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		col, err := quote(k)
		if err != nil {
			return err
		}
		named[i] = fmt.Sprintf("%s => $%d", col, i+1)
		args[i] = arg(params[k])
	}

	query := fmt.Sprintf("SELECT coalesce(json_agg(r), '[]'::json) FROM %s(%s) AS r", name, strings.Join(named, ", "))
	return s.queryJSON(ctx, "rpc "+fn, query, args, single(dest))
}

// Insert adds one row and returns it
func (s *Store) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	stmt, args, err := insertStatement(table, values)
	if err != nil {
		return err
	}
	return s.queryJSON(ctx, "insert "+table, returning(stmt), args, single(dest))
}

// Upsert inserts one row or updates every other column on conflict
func (s *Store) Upsert(ctx context.Context, table string, values map[string]any, onConflict string, dest any) error {
	stmt, args, err := insertStatement(table, values)
	if err != nil {
		return err
	}
	target, err := quote(onConflict)
	if err != nil {
		return err
	}
	if _, ok := values[onConflict]; !ok {
		return fmt.Errorf("upsert %s: conflict column %s missing from values", table, onConflict)
	}

	var sets []string
	for _, k := range sortedKeys(values) {
		if k == onConflict {
			continue
		}
		col, _ := quote(k)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if len(sets) == 0 {
		stmt += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", target)
	} else {
		stmt += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", target, strings.Join(sets, ", "))
	}
	return s.queryJSON(ctx, "upsert "+table, returning(stmt), args, single(dest))
}

// Update modifies every row matching filters and returns them
func (s *Store) Update(ctx context.Context, table string, values map[string]any, filters []domain.Filter, dest any) error {
	if len(filters) == 0 {
		return fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	if len(values) == 0 {
		return fmt.Errorf("update %s: no values", table)
	}
	name, err := quote(table)
	if err != nil {
		return err
	}

	keys := sortedKeys(values)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filters))
	for i, k := range keys {
		col, err := quote(k)
		if err != nil {
			return err
		}
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, arg(values[k]))
	}

	where, whereArgs, err := whereClause(filters, len(keys)+1)
	if err != nil {
		return err
	}
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s", name, strings.Join(sets, ", "), where)
	return s.queryJSON(ctx, "update "+table, returning(stmt), args, single(dest))
}

func (s *Store) queryJSON(ctx context.Context, op, query string, args []any, dest any) error {
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		s.logger.Error("database query failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return domain.Upstream(op, err)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return domain.Upstream(op, fmt.Errorf("decode rows: %w", err))
	}
	return nil
}

func insertStatement(table string, values map[string]any) (string, []any, error) {
	name, err := quote(table)
	if err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("insert %s: no values", table)
	}
	keys := sortedKeys(values)
	cols := make([]string, len(keys))
	holders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		if cols[i], err = quote(k); err != nil {
			return "", nil, err
		}
		holders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = arg(values[k])
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(cols, ", "), strings.Join(holders, ", "))
	return stmt, args, nil
}

func returning(stmt string) string {
	return fmt.Sprintf("WITH changed AS (%s RETURNING *) SELECT coalesce(json_agg(changed), '[]'::json) FROM changed", stmt)
}

func whereClause(filters []domain.Filter, next int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		col, err := quote(f.Column)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case domain.OpIs:
			if f.Value != nil {
				return "", nil, fmt.Errorf("filter %s: is only supports null", f.Column)
			}
			conds = append(conds, col+" IS NULL")
			continue
		case domain.OpIn:
			items, ok := f.Value.([]string)
			if !ok {
				return "", nil, fmt.Errorf("filter %s: in expects []string, got %T", f.Column, f.Value)
			}
			conds = append(conds, fmt.Sprintf("%s = ANY($%d)", col, next))
			args = append(args, pq.Array(items))
		default:
			op, ok := comparisons[f.Op]
			if !ok {
				return "", nil, fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
			}
			conds = append(conds, fmt.Sprintf("%s %s $%d", col, op, next))
			args = append(args, arg(f.Value))
		}
		next++
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

var comparisons = map[domain.FilterOp]string{
	domain.OpEq:  "=",
	domain.OpNeq: "<>",
	domain.OpLt:  "<",
	domain.OpLte: "<=",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
}

func quote(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return pq.QuoteIdentifier(name), nil
}

// arg passes scalars through and encodes structured values as JSON for jsonb columns
func arg(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.(time.Time); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return arg(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// single decodes the first row of a JSON array into dest when dest is not a slice
func single(dest any) any {
	if dest == nil {
		return nil
	}
	return &firstRow{dest: dest}
}

type firstRow struct {
	dest any
}

func (f *firstRow) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, f.dest); err == nil {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return json.Unmarshal(rows[0], f.dest)
}
