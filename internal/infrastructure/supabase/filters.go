package supabase

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

// queryParams encodes filters in the REST dialect: column=op.value
func queryParams(filters []domain.Filter) (url.Values, error) {
	params := url.Values{}
	for _, f := range filters {
		v, err := filterValue(f)
		if err != nil {
			return nil, err
		}
		params.Add(f.Column, string(f.Op)+"."+v)
	}
	return params, nil
}

func filterValue(f domain.Filter) (string, error) {
	switch f.Op {
	case domain.OpIs:
		if f.Value != nil {
			return "", fmt.Errorf("filter %s: is only supports null", f.Column)
		}
		return "null", nil
	case domain.OpIn:
		items, ok := f.Value.([]string)
		if !ok {
			return "", fmt.Errorf("filter %s: in expects []string, got %T", f.Column, f.Value)
		}
		quoted := make([]string, len(items))
		for i, item := range items {
			quoted[i] = `"` + strings.ReplaceAll(item, `"`, `\"`) + `"`
		}
		return "(" + strings.Join(quoted, ",") + ")", nil
	case domain.OpEq, domain.OpNeq, domain.OpLt, domain.OpLte, domain.OpGt, domain.OpGte:
		return scalar(f.Value), nil
	default:
		return "", fmt.Errorf("filter %s: unsupported operator %q", f.Column, f.Op)
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
