package backend

import (
	"context"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/metrics"
)

// Instrumented records call metrics around another backend
type Instrumented struct {
	next   domain.Backend
	driver string
}

// Instrument wraps next; driver labels the metrics ("supabase", "postgres")
func Instrument(driver string, next domain.Backend) *Instrumented {
	return &Instrumented{next: next, driver: driver}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.ObserveBackendCall(i.driver, op, result, time.Since(start))
}

func (i *Instrumented) Select(ctx context.Context, q domain.Query, dest any) (err error) {
	defer func(start time.Time) { i.observe("select", start, err) }(time.Now())
	return i.next.Select(ctx, q, dest)
}

func (i *Instrumented) RPC(ctx context.Context, fn string, params map[string]any, dest any) (err error) {
	defer func(start time.Time) { i.observe("rpc", start, err) }(time.Now())
	return i.next.RPC(ctx, fn, params, dest)
}

func (i *Instrumented) Insert(ctx context.Context, table string, values map[string]any, dest any) (err error) {
	defer func(start time.Time) { i.observe("insert", start, err) }(time.Now())
	return i.next.Insert(ctx, table, values, dest)
}

func (i *Instrumented) Upsert(ctx context.Context, table string, values map[string]any, onConflict string, dest any) (err error) {
	defer func(start time.Time) { i.observe("upsert", start, err) }(time.Now())
	return i.next.Upsert(ctx, table, values, onConflict, dest)
}

func (i *Instrumented) Update(ctx context.Context, table string, values map[string]any, filters []domain.Filter, dest any) (err error) {
	defer func(start time.Time) { i.observe("update", start, err) }(time.Now())
	return i.next.Update(ctx, table, values, filters, dest)
}

func (i *Instrumented) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { i.observe("ping", start, err) }(time.Now())
	return i.next.Ping(ctx)
}
