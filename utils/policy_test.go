package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleHierarchy(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	assert.True(t, p.Allowed(RoleReceptionist, "reservations", "check-in"))
	assert.False(t, p.Allowed(RoleReceptionist, "reservations", "force-status"))
	assert.False(t, p.Allowed(RoleReceptionist, "payments", "refund"))
	assert.True(t, p.Allowed(RoleReceptionist, "rooms", "status"))
	assert.False(t, p.Allowed(RoleReceptionist, "rooms", "update"))

	assert.True(t, p.Allowed(RoleManager, "reservations", "check-in"))
	assert.True(t, p.Allowed(RoleManager, "reservations", "force-status"))
	assert.False(t, p.Allowed(RoleManager, "rooms", "delete"))

	assert.True(t, p.Allowed(RoleAdmin, "rooms", "delete"))
	assert.True(t, p.Allowed(RoleAdmin, "payments", "refund"))
	assert.True(t, p.Allowed(RoleAdmin, "rooms", "read"))

	assert.False(t, p.Allowed("guest", "rooms", "read"))
}
