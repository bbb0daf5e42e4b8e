package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{ErrAuthenticationMissing, KindAuthenticationMissing},
		{fmt.Errorf("resolve: %w", ErrNotFound), KindNotFound},
		{NewFieldError("gym_id", "required"), KindValidation},
		{fmt.Errorf("admin: %w", ErrBackendUnavailable), KindBackendUnavailable},
		{Upstream("select gyms", errors.New("connection reset")), KindUpstream},
		{errors.New("boom"), KindUpstream},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), "%v", tc.err)
	}
}

func TestUpstreamKeepsTaxonomy(t *testing.T) {
	assert.ErrorIs(t, Upstream("op", ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, Upstream("op", ErrBackendUnavailable), ErrBackendUnavailable)

	err := Upstream("select", errors.New("timeout"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "timeout")
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "email", Message: "is required"},
		{Field: "role", Message: "must be one of gym_admin, receptionist"},
	}}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: email: is required; role: must be one of gym_admin, receptionist", err.Error())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("gym_admin")
	assert.True(t, ok)
	assert.Equal(t, RoleGymAdmin, r)

	_, ok = ParseRole("coach")
	assert.False(t, ok)
}

func TestEffectiveGymID(t *testing.T) {
	assigned, legacy := "gym-1", "gym-legacy"

	p := &Profile{AssignedGymID: &assigned, AdminGymID: &legacy}
	assert.Equal(t, "gym-1", p.EffectiveGymID())

	p = &Profile{AdminGymID: &legacy}
	assert.Equal(t, "gym-legacy", p.EffectiveGymID())

	p = &Profile{}
	assert.Equal(t, "", p.EffectiveGymID())
}
