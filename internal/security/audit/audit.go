package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/gymdesk/internal/featureflags"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/logger"
)

// Logger writes the audit trail of access decisions and writes as structured
// log records under the "audit" message.
type Logger struct {
	logger     *slog.Logger
	logAllowed bool
}

// NewLogger creates an audit logger. Allowed read decisions are recorded only
// when the audit_allowed feature flag is on; denials and writes always are.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{logger: l, logAllowed: featureflags.Enabled(featureflags.AuditAllowed)}
}

// LogAction records one audited action
func (al *Logger) LogAction(ctx context.Context, profileID, action, gymID, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("gym_id", gymID),
		slog.String("resource_id", resourceID),
		slog.String("profile_id", profileID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", logger.RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

// LogDecision records a gate decision for a route
func (al *Logger) LogDecision(ctx context.Context, profileID, route, gymID, outcome string) {
	if outcome == "allowed" && !al.logAllowed {
		return
	}
	al.LogAction(ctx, profileID, "access:"+route, gymID, "", outcome, "")
}

// LogMutation records the result of an authorized write attempt
func (al *Logger) LogMutation(ctx context.Context, profileID, action, gymID, resourceID, result string) {
	al.LogAction(ctx, profileID, action, gymID, resourceID, result, "")
}

// LogDenied records a refused request
func (al *Logger) LogDenied(ctx context.Context, profileID, action, gymID, reason string) {
	al.LogAction(ctx, profileID, action, gymID, "", "denied", reason)
}
