// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordProducesPHCFormat(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	// Same password hashes differently thanks to the random salt.
	other, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	ok, err := VerifyPassword("secret-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-phc-string")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafeWithNilHash(t *testing.T) {
	valid, newHash, err := VerifyPasswordTimingSafe("anything", nil)

	require.NoError(t, err)
	assert.False(t, valid)
	assert.Empty(t, newHash)
}

func TestVerifyPasswordTimingSafeMatch(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)

	valid, newHash, err := VerifyPasswordTimingSafe("secret-password", &hash)

	require.NoError(t, err)
	assert.True(t, valid)
	// A hash produced with current parameters needs no upgrade.
	assert.Empty(t, newHash)
}
