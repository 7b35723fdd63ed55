package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "instructor", "admin"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		require.Equal(t, valid, role.String())
	}

	for _, invalid := range []string{"", "superuser", "Admin", "USER"} {
		_, err := ParseRole(invalid)
		require.ErrorIs(t, err, ErrInvalidRole)
	}
}

func TestIdentityResolvedRole(t *testing.T) {
	require.Equal(t, RoleUser, (&Identity{}).ResolvedRole())
	require.Equal(t, RoleAdmin, (&Identity{Role: RoleAdmin}).ResolvedRole())
}
