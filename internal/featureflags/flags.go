package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// AuditAllowed records allowed read decisions in the audit trail, not only denials
	AuditAllowed = "audit_allowed"
	// TeamInvitations enables the staff invitation endpoints
	TeamInvitations = "team_invitations"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// EnabledOr is Enabled with a default for unset flags
func EnabledOr(name string, def bool) bool {
	if _, ok := os.LookupEnv("FLAG_" + strings.ToUpper(name)); !ok {
		return def
	}
	return Enabled(name)
}
