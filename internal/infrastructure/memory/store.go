// Package memory is an in-process implementation of the backend capability.
// It backs the "memory" driver for local development and the end-to-end
// handler tests. Rows are kept as decoded JSON objects so filters see the
// same values a client would.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

type row = map[string]any

// RPCFunc answers one rpc call from the current rows
type RPCFunc func(s *Store, params map[string]any) (any, error)

// Store holds tables in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]row
	rpcs   map[string]RPCFunc
}

// New creates an empty store
func New() *Store {
	return &Store{tables: make(map[string][]row), rpcs: make(map[string]RPCFunc)}
}

// Seed appends rows to table. Values are normalized through JSON.
func (s *Store) Seed(table string, rows ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		n, err := normalize(r)
		if err != nil {
			return fmt.Errorf("seed %s: %w", table, err)
		}
		s.tables[table] = append(s.tables[table], n)
	}
	return nil
}

// HandleRPC registers fn under name
func (s *Store) HandleRPC(name string, fn RPCFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcs[name] = fn
}

// Rows returns the rows of table matching filters decoded into dest
func (s *Store) Rows(table string, filters []domain.Filter, dest any) error {
	return s.Select(context.Background(), domain.Query{Table: table, Filters: filters}, dest)
}

func (s *Store) Select(_ context.Context, q domain.Query, dest any) error {
	s.mu.RLock()
	var out []row
	for _, r := range s.tables[q.Table] {
		ok, err := matches(r, q.Filters)
		if err != nil {
			s.mu.RUnlock()
			return err
		}
		if ok {
			out = append(out, project(r, q.Columns))
		}
	}
	s.mu.RUnlock()

	if q.Order != nil {
		col, desc := q.Order.Column, q.Order.Descending
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][col], out[j][col])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return decode("select "+q.Table, emptyIfNil(out), dest)
}

func (s *Store) RPC(_ context.Context, fn string, params map[string]any, dest any) error {
	s.mu.RLock()
	h, ok := s.rpcs[fn]
	s.mu.RUnlock()
	if !ok {
		return domain.Upstream("rpc "+fn, fmt.Errorf("function %s does not exist", fn))
	}
	res, err := h(s, params)
	if err != nil {
		return domain.Upstream("rpc "+fn, err)
	}
	return decode("rpc "+fn, res, dest)
}

func (s *Store) Insert(_ context.Context, table string, values map[string]any, dest any) error {
	n, err := normalize(values)
	if err != nil {
		return domain.Upstream("insert "+table, err)
	}
	s.mu.Lock()
	s.tables[table] = append(s.tables[table], n)
	s.mu.Unlock()
	return decode("insert "+table, []row{n}, dest)
}

func (s *Store) Upsert(_ context.Context, table string, values map[string]any, onConflict string, dest any) error {
	n, err := normalize(values)
	if err != nil {
		return domain.Upstream("upsert "+table, err)
	}
	key, ok := n[onConflict]
	if !ok {
		return fmt.Errorf("upsert %s: conflict column %s missing from values", table, onConflict)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.tables[table] {
		if compare(r[onConflict], key) == 0 {
			for k, v := range n {
				r[k] = v
			}
			return decode("upsert "+table, []row{copyRow(r)}, dest)
		}
	}
	s.tables[table] = append(s.tables[table], n)
	return decode("upsert "+table, []row{copyRow(n)}, dest)
}

func (s *Store) Update(_ context.Context, table string, values map[string]any, filters []domain.Filter, dest any) error {
	if len(filters) == 0 {
		return fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	n, err := normalize(values)
	if err != nil {
		return domain.Upstream("update "+table, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := []row{}
	for _, r := range s.tables[table] {
		ok, err := matches(r, filters)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for k, v := range n {
			r[k] = v
		}
		changed = append(changed, copyRow(r))
	}
	return decode("update "+table, changed, dest)
}

func (s *Store) Ping(context.Context) error { return nil }

func matches(r row, filters []domain.Filter) (bool, error) {
	for _, f := range filters {
		v, present := r[f.Column]
		switch f.Op {
		case domain.OpIs:
			if f.Value != nil {
				return false, fmt.Errorf("filter %s: is only supports null", f.Column)
			}
			if present && v != nil {
				return false, nil
			}
		case domain.OpIn:
			items, ok := f.Value.([]string)
			if !ok {
				return false, fmt.Errorf("filter %s: in expects []string, got %T", f.Column, f.Value)
			}
			found := false
			for _, it := range items {
				if compare(v, it) == 0 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			want, err := normalizeValue(f.Value)
			if err != nil {
				return false, err
			}
			if v == nil || want == nil {
				if f.Op == domain.OpNeq {
					if v == want {
						return false, nil
					}
					continue
				}
				return false, nil
			}
			c := compare(v, want)
			var ok bool
			switch f.Op {
			case domain.OpEq:
				ok = c == 0
			case domain.OpNeq:
				ok = c != 0
			case domain.OpLt:
				ok = c < 0
			case domain.OpLte:
				ok = c <= 0
			case domain.OpGt:
				ok = c > 0
			case domain.OpGte:
				ok = c >= 0
			default:
				return false, fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// compare orders numbers numerically, timestamps chronologically and
// everything else by its string form
func compare(a, b any) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	if ta, err := time.Parse(time.RFC3339Nano, sa); err == nil {
		if tb, err := time.Parse(time.RFC3339Nano, sb); err == nil {
			return ta.Compare(tb)
		}
	}
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func project(r row, cols []string) row {
	if len(cols) == 0 {
		return copyRow(r)
	}
	out := make(row, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func copyRow(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func normalize(v any) (row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case int:
		return float64(t), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func emptyIfNil(rows []row) []row {
	if rows == nil {
		return []row{}
	}
	return rows
}

func decode(op string, v any, dest any) error {
	if dest == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return domain.Upstream(op, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return domain.Upstream(op, fmt.Errorf("decode rows: %w", err))
	}
	return nil
}
