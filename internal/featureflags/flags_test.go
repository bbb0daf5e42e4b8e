package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	t.Setenv("FLAG_AUDIT_ALLOWED", "Yes")
	assert.True(t, Enabled(AuditAllowed))

	t.Setenv("FLAG_AUDIT_ALLOWED", "0")
	assert.False(t, Enabled(AuditAllowed))
}

func TestEnabledOr(t *testing.T) {
	assert.True(t, EnabledOr("not_set_anywhere", true))

	t.Setenv("FLAG_TEAM_INVITATIONS", "false")
	assert.False(t, EnabledOr(TeamInvitations, true))
}
