package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

type writeCall struct {
	op         string
	table      string
	values     map[string]any
	onConflict string
	filters    []domain.Filter
}

// fakeBackend answers every call with canned JSON and records what it was asked
type fakeBackend struct {
	mu      sync.Mutex
	answers map[string]string // table or rpc name -> JSON body
	err     error
	queries []domain.Query
	writes  []writeCall
	rpcs    []map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{answers: map[string]string{}}
}

func (f *fakeBackend) answer(key string, dest any) error {
	if f.err != nil {
		return f.err
	}
	body, ok := f.answers[key]
	if !ok {
		body = "[]"
	}
	if dest == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), dest)
}

func (f *fakeBackend) Select(_ context.Context, q domain.Query, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.answer(q.Table, dest)
}

func (f *fakeBackend) RPC(_ context.Context, fn string, params map[string]any, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rpcs = append(f.rpcs, params)
	return f.answer(fn, dest)
}

func (f *fakeBackend) Insert(_ context.Context, table string, values map[string]any, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{op: "insert", table: table, values: values})
	return f.answer(table, dest)
}

func (f *fakeBackend) Upsert(_ context.Context, table string, values map[string]any, onConflict string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{op: "upsert", table: table, values: values, onConflict: onConflict})
	return f.answer(table, dest)
}

func (f *fakeBackend) Update(_ context.Context, table string, values map[string]any, filters []domain.Filter, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{op: "update", table: table, values: values, filters: filters})
	return f.answer(table, dest)
}

func (f *fakeBackend) Ping(context.Context) error { return f.err }

func hasFilter(filters []domain.Filter, column string, value any) bool {
	for _, flt := range filters {
		if flt.Column == column && flt.Value == value {
			return true
		}
	}
	return false
}
