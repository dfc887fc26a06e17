package security

import (
	"context"
	"testing"
	"time"

	"docbase/internal/auth/config"
	"docbase/internal/auth/domain/model"
	"docbase/internal/auth/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(ttl time.Duration) *config.Config {
	return &config.Config{
		JWTSecretKey:   "test-secret-key",
		JWTIssuer:      "docbase-test",
		AccessTokenTTL: ttl,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	token, expiredAt, err := svc.GenerateToken(ctx, "u1", model.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Greater(t, expiredAt, time.Now().Unix())

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	require.True(t, claims.HasRole())
	assert.Equal(t, model.RoleUser, *claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestAdminClaims(t *testing.T) {
	svc, err := NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	token, _, err := svc.GenerateToken(context.Background(), "root", model.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestValidateExpiredToken(t *testing.T) {
	svc, err := NewJWTokenService(testConfig(time.Millisecond))
	require.NoError(t, err)

	token, _, err := svc.GenerateToken(context.Background(), "u1", model.RoleUser)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateGarbageToken(t *testing.T) {
	svc, err := NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	svcA, err := NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	other := testConfig(time.Hour)
	other.JWTSecretKey = "another-secret"
	svcB, err := NewJWTokenService(other)
	require.NoError(t, err)

	token, _, err := svcB.GenerateToken(context.Background(), "u1", model.RoleUser)
	require.NoError(t, err)

	_, err = svcA.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestNilClaimsHaveNoRole(t *testing.T) {
	// A request that never carried a token ends as nil claims; the guards
	// rely on HasRole being safe on nil.
	var claims *repository.Claims
	assert.False(t, claims.HasRole())
	assert.False(t, claims.IsAdmin())
}
