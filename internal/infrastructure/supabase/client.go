package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

const (
	defaultTimeout            = 10 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerTimeout     = 30 * time.Second
)

// Config holds the endpoint and credential for one client
type Config struct {
	URL                string
	Key                string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
	// ForwardSession sends the caller's access token instead of Key when one is
	// attached to the request context.
	ForwardSession bool
	// HTTPClient overrides the default instrumented client (tests)
	HTTPClient *http.Client
}

// Client talks to the hosted backend's REST and rpc endpoints. It holds only
// configuration and is safe for concurrent use.
type Client struct {
	name           string
	baseURL        string
	key            string
	forwardSession bool
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker[*response]
	logger         *slog.Logger
}

type response struct {
	status int
	body   []byte
}

// NewClient creates a client. name identifies it in logs and breaker state.
func NewClient(name string, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase %s client: url and key are required", name)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("supabase %s client: invalid url: %w", name, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout == 0 {
		breakerTimeout = defaultBreakerTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "supabase:" + name,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		name:           name,
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		key:            cfg.Key,
		forwardSession: cfg.ForwardSession,
		http:           httpClient,
		breaker:        cb,
		logger:         logger,
	}, nil
}

// NewAdminClient builds the service-role client. A missing service key is not
// fatal: it yields ErrBackendUnavailable so callers can render a degraded state.
//
// The service key bypasses row-level security. The admin client must only be
// reachable from server-side code paths and never from anything that serves
// browser requests without going through the mutation authorizer first.
func NewAdminClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY not set: %w", domain.ErrBackendUnavailable)
	}
	cfg.ForwardSession = false
	return NewClient("admin", cfg, logger)
}

// Select reads rows from a table
func (c *Client) Select(ctx context.Context, q domain.Query, dest any) error {
	params, err := queryParams(q.Filters)
	if err != nil {
		return err
	}
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	if q.Order != nil {
		dir := "asc"
		if q.Order.Descending {
			dir = "desc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}
	return c.do(ctx, "select "+q.Table, http.MethodGet, "/rest/v1/"+q.Table, params, nil, "", dest)
}

// RPC calls a database function
func (c *Client) RPC(ctx context.Context, fn string, params map[string]any, dest any) error {
	if params == nil {
		params = map[string]any{}
	}
	return c.do(ctx, "rpc "+fn, http.MethodPost, "/rest/v1/rpc/"+fn, nil, params, "", dest)
}

// Insert adds one row
func (c *Client) Insert(ctx context.Context, table string, values map[string]any, dest any) error {
	return c.do(ctx, "insert "+table, http.MethodPost, "/rest/v1/"+table, nil, values, "return=representation", rowsDest(dest))
}

// Upsert inserts or merges one row on the onConflict column
func (c *Client) Upsert(ctx context.Context, table string, values map[string]any, onConflict string, dest any) error {
	params := url.Values{}
	params.Set("on_conflict", onConflict)
	return c.do(ctx, "upsert "+table, http.MethodPost, "/rest/v1/"+table, params, values,
		"resolution=merge-duplicates,return=representation", rowsDest(dest))
}

// Update modifies every row matching filters
func (c *Client) Update(ctx context.Context, table string, values map[string]any, filters []domain.Filter, dest any) error {
	if len(filters) == 0 {
		return fmt.Errorf("update %s: refusing unfiltered update", table)
	}
	params, err := queryParams(filters)
	if err != nil {
		return err
	}
	return c.do(ctx, "update "+table, http.MethodPatch, "/rest/v1/"+table, params, values, "return=representation", rowsDest(dest))
}

// Ping checks that the REST endpoint answers
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/rest/v1/", nil, nil, "", nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body any, prefer string, dest any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal body: %w", op, err)
		}
		payload = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.bearer(ctx))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		out := &response{status: res.StatusCode, body: data}
		// Only server-side failures count against the breaker.
		if res.StatusCode >= http.StatusInternalServerError {
			return out, fmt.Errorf("status %d", res.StatusCode)
		}
		return out, nil
	})
	if err != nil {
		if resp != nil {
			c.logUpstream(op, resp)
		} else if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("backend call rejected by circuit breaker",
				slog.String("client", c.name),
				slog.String("op", op),
			)
		}
		return domain.Upstream(op, err)
	}

	if resp.status >= http.StatusMultipleChoices {
		c.logUpstream(op, resp)
		return domain.Upstream(op, fmt.Errorf("status %d", resp.status))
	}

	if dest == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, dest); err != nil {
		return domain.Upstream(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if c.forwardSession {
		if token := domain.AccessTokenFromContext(ctx); token != "" {
			return token
		}
	}
	return c.key
}

func (c *Client) logUpstream(op string, resp *response) {
	body := string(resp.body)
	if len(body) > 512 {
		body = body[:512]
	}
	c.logger.Error("backend request failed",
		slog.String("client", c.name),
		slog.String("op", op),
		slog.Int("status", resp.status),
		slog.String("body", body),
	)
}

// rowsDest lets write calls accept either a slice or a single struct: the REST
// endpoint always answers with an array.
func rowsDest(dest any) any {
	if dest == nil {
		return nil
	}
	return &singleOrSlice{dest: dest}
}

type singleOrSlice struct {
	dest any
}

func (s *singleOrSlice) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, s.dest); err == nil {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return json.Unmarshal(rows[0], s.dest)
}
