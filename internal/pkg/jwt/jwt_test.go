package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manager() user.Caller {
	return user.Caller{
		UserID:      "user-1",
		EmployeeID:  "emp-1",
		CompanyID:   "company-1",
		Role:        user.RoleManager,
		Permissions: []user.Permission{user.PermissionLeaveApprove},
	}
}

func TestAccessTokenCarriesCaller(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, exp, err := svc.GenerateAccessToken(manager())
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims["type"])

	caller, err := user.CallerFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, manager(), caller)
}

func TestSSEToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresIn, err := svc.GenerateSSEToken(manager())
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	caller, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", caller.EmployeeID)

	access, _, err := svc.GenerateAccessToken(manager())
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err, "access tokens are not SSE tokens")

	other := NewJWTService("other-secret", time.Hour)
	_, err = other.ValidateSSEToken(token)
	assert.Error(t, err)
}
