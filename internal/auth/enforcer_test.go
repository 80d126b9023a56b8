package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcer_DefaultPermissions(t *testing.T) {
	e, err := New(DefaultPermissions())
	require.NoError(t, err)

	tests := []struct {
		role    string
		module  string
		action  string
		allowed bool
	}{
		{role: "admin", module: "rooms", action: "delete", allowed: true},
		{role: "admin", module: "reservations", action: "create", allowed: true},
		{role: "receptionist", module: "rooms", action: "read", allowed: true},
		{role: "receptionist", module: "rooms", action: "update", allowed: false},
		{role: "receptionist", module: "reservations", action: "update", allowed: true},
		{role: "receptionist", module: "reservations", action: "delete", allowed: false},
		{role: "housekeeping", module: "rooms", action: "update", allowed: true},
		{role: "housekeeping", module: "reservations", action: "read", allowed: false},
		{role: "guest", module: "rooms", action: "read", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.role+" "+tt.module+" "+tt.action, func(t *testing.T) {
			allowed, err := e.Allowed(NewContextWithRole(context.Background(), tt.role), tt.module, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}

func TestEnforcer_NoRole(t *testing.T) {
	e, err := New(DefaultPermissions())
	require.NoError(t, err)

	allowed, err := e.Allowed(context.Background(), "rooms", "read")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = e.Allowed(NewContextWithRole(context.Background(), ""), "rooms", "read")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestEnforcer_CustomPermissions(t *testing.T) {
	e, err := New([]Permission{{Role: "auditor", Module: "reservations", CanView: true}})
	require.NoError(t, err)

	ctx := NewContextWithRole(context.Background(), "auditor")

	allowed, err := e.Allowed(ctx, "reservations", "read")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = e.Allowed(ctx, "reservations", "create")
	require.NoError(t, err)
	assert.False(t, allowed)
}
