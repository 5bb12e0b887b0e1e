package jwttoken

import (
	"testing"
	"time"

	dErrors "givecycle/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-key", "givecycle", "givecycle-api")

	token, err := svc.GenerateServiceToken("donation-requests", RoleService, time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "donation-requests", claims.Subject)
	assert.Equal(t, RoleService, claims.Role)
	assert.NotEmpty(t, claims.ID)

	adapted, err := NewValidator(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "donation-requests", adapted.Subject)
	assert.Equal(t, RoleService, adapted.Role)
	assert.Equal(t, claims.ID, adapted.JTI)
}

func TestValidator_RejectsUnknownRole(t *testing.T) {
	svc := NewJWTService("test-key", "givecycle", "givecycle-api")
	token, err := svc.GenerateServiceToken("intruder", "superuser", time.Minute)
	require.NoError(t, err)

	_, err = NewValidator(svc).ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	assert.True(t, KnownRole(RolePayments))
	assert.False(t, KnownRole(""))
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-key", "givecycle", "givecycle-api")

	t.Run("expired token", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := svc.GenerateServiceToken("ops", RoleAdmin, time.Minute)
		svc.now = time.Now
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewJWTService("other-key", "givecycle", "givecycle-api")
		token, err := other.GenerateServiceToken("ops", RoleAdmin, time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTService("test-key", "givecycle", "somewhere-else")
		token, err := other.GenerateServiceToken("ops", RoleAdmin, time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
