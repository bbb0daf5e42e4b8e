package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gymdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymdesk_access_decisions_total",
		Help: "Gate decisions by route and outcome",
	}, []string{"route", "outcome"})

	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymdesk_mutations_total",
		Help: "Mutation attempts by action and result kind",
	}, []string{"action", "result"})

	backendCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gymdesk_backend_call_duration_seconds",
		Help:    "Duration of backend calls by driver, operation and result",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver", "op", "result"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gymdesk_view_cache_lookups_total",
		Help: "View cache lookups by result",
	}, []string{"result"})

	invitationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_invitations_expired_total",
		Help: "Staff invitations expired by the sweeper",
	})
)

// ObserveHTTPRequest records an HTTP request metric. route is the mux pattern,
// not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAccessDecision counts one gate outcome
func ObserveAccessDecision(route, outcome string) {
	accessDecisions.WithLabelValues(route, outcome).Inc()
}

// ObserveMutation counts one mutation attempt. result is "ok" or an error kind.
func ObserveMutation(action, result string) {
	mutations.WithLabelValues(action, result).Inc()
}

// ObserveBackendCall records the duration of one backend call
func ObserveBackendCall(driver, op, result string, duration time.Duration) {
	backendCalls.WithLabelValues(driver, op, result).Observe(duration.Seconds())
}

// ObserveCacheLookup counts a view cache hit or miss
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// AddInvitationsExpired adds n to the expired invitation counter
func AddInvitationsExpired(n int) {
	if n > 0 {
		invitationsExpired.Add(float64(n))
	}
}
