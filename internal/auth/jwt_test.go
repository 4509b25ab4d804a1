package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	secret := "test-secret-key"

	t.Run("no ttl has no expiry", func(t *testing.T) {
		token, err := GenerateToken(secret, "alice", "user-123", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := ParseToken(secret, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Nil(t, claims.ExpiresAt)
		assert.NotNil(t, claims.IssuedAt)
	})

	t.Run("ttl sets expiry", func(t *testing.T) {
		token, err := GenerateToken(secret, "alice", "user-123", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		require.NoError(t, err)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
	})
}

func TestParseToken(t *testing.T) {
	secret := "test-secret-key"

	t.Run("invalid signature", func(t *testing.T) {
		token, err := GenerateToken("wrong-secret", "alice", "user-123", 0)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseToken(secret, "invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		c := Claims{
			Username: "alice",
			UserID:   "user-123",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = ParseToken(secret, token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		c := Claims{Username: "alice", UserID: "user-123"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte(secret))
		require.NoError(t, err)

		_, err = ParseToken(secret, token)
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, VerifyPassword(hash, "secret"))
	assert.False(t, VerifyPassword(hash, "wrong"))

	other, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted per account")
}
