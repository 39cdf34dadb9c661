package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewellner/daybridge/pkg/config"
)

func newTestJWTService(expiryHours int) *JWTService {
	return NewJWTService(&config.Config{Auth: config.AuthConfig{
		JWTSecret:      "test-secret",
		JWTExpiryHours: expiryHours,
		JWTIssuer:      "daybridge-test",
	}})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(72)

	token, err := svc.GenerateToken("user-1", "u@example.com", "Erin", false)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "Erin", claims.DisplayName)
	assert.False(t, claims.Guest)
	assert.Equal(t, "daybridge-test", claims.Issuer)
}

func TestGuestClaimSurvivesRoundTrip(t *testing.T) {
	svc := newTestJWTService(72)

	token, err := svc.GenerateToken("guest-abc", "", "Guest", true)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Guest)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := newTestJWTService(72).GenerateToken("user-1", "", "", false)
	require.NoError(t, err)

	other := NewJWTService(&config.Config{Auth: config.AuthConfig{JWTSecret: "different"}})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := newTestJWTService(72).ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestRefreshTokenKeepsFreshTokens(t *testing.T) {
	svc := newTestJWTService(72)
	token, err := svc.GenerateToken("user-1", "", "", false)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, token, refreshed, "a token far from expiry is returned unchanged")
}

func TestRefreshTokenReissuesNearExpiry(t *testing.T) {
	svc := newTestJWTService(1)
	token, err := svc.GenerateToken("user-1", "u@example.com", "Erin", false)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(token)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UID)
}

func TestTokenBlacklist(t *testing.T) {
	tb := GetTokenBlacklist()
	tb.AddToBlacklist("revoked-token", time.Now().Add(time.Hour))

	assert.True(t, tb.IsBlacklisted("revoked-token"))
	assert.False(t, tb.IsBlacklisted("other-token"))
}
