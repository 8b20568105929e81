// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/config"
	"github.com/carterperez-dev/sculptor/internal/core"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionSecret: "unit-test-session-secret",
		TokenExpire:   time.Hour,
		Issuer:        "sculptor",
		Audience:      "sculptor-api",
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(config.AuthConfig{})
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager, err := NewJWTManager(testAuthConfig())
	require.NoError(t, err)

	signed, expiresAt, err := manager.CreateAccessToken(42, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, signed)

	claims, err := manager.ParseAccessToken(signed)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signer, err := NewJWTManager(testAuthConfig())
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.SessionSecret = "a-different-secret-entirely"
	verifier, err := NewJWTManager(otherCfg)
	require.NoError(t, err)

	signed, _, err := signer.CreateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(signed)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testAuthConfig()
	cfg.TokenExpire = -time.Minute
	manager, err := NewJWTManager(cfg)
	require.NoError(t, err)

	signed, _, err := manager.CreateAccessToken(1, "alice")
	require.NoError(t, err)

	_, err = manager.ParseAccessToken(signed)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestParseRejectsGarbage(t *testing.T) {
	manager, err := NewJWTManager(testAuthConfig())
	require.NoError(t, err)

	_, err = manager.ParseAccessToken("not.a.token")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}
