package domain

import "context"

// FilterOp is a comparison understood by every backend implementation
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNeq FilterOp = "neq"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpIn  FilterOp = "in"
	OpIs  FilterOp = "is" // only with nil
)

// Filter restricts a query to rows where Column Op Value
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

// Eq is shorthand for an equality filter
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Order sorts query results by one column
type Order struct {
	Column     string
	Descending bool
}

// Query describes a filtered read of one table
type Query struct {
	Table   string
	Columns []string // empty selects every column
	Filters []Filter
	Order   *Order
	Limit   int
}

// Backend is the hosted data store as seen by the core: filtered selects, rpc
// calls for aggregates, and writes. Results are decoded into dest, which must be a
// pointer to a slice for row results.
type Backend interface {
	Select(ctx context.Context, q Query, dest any) error
	RPC(ctx context.Context, fn string, params map[string]any, dest any) error
	Insert(ctx context.Context, table string, values map[string]any, dest any) error
	Upsert(ctx context.Context, table string, values map[string]any, onConflict string, dest any) error
	Update(ctx context.Context, table string, values map[string]any, filters []Filter, dest any) error
	Ping(ctx context.Context) error
}

type accessTokenKey struct{}

// ContextWithAccessToken attaches the caller's session token so reads run under
// the caller's row-level security.
func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the session token attached to ctx, if any
func AccessTokenFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return t
	}
	return ""
}
