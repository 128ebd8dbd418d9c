package custody

import (
	"testing"

	"github.com/notaria/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleCashier, ParseRole(" cashier "))
	assert.True(t, ParseRole("notary").IsValid())
	assert.False(t, ParseRole("janitor").IsValid())
	assert.False(t, ParseRole("").IsValid())
}

func TestRole_IsElevated(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleNotary, RoleSupervisor} {
		assert.True(t, r.IsElevated(), r)
	}
	for _, r := range []Role{RoleHandler, RoleCashier, RoleReception} {
		assert.False(t, r.IsElevated(), r)
	}
}

func TestActor_Validate(t *testing.T) {
	assert.NoError(t, Actor{ID: "u-1", Role: RoleCashier}.Validate())
	assert.ErrorIs(t, Actor{ID: "  "}.Validate(), shared.ErrValidation)
}
