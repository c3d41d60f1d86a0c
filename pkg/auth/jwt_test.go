package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateToken("moderator", true)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "moderator", claims.Username)
	assert.True(t, claims.Admin)
}

func TestJWTService_Rejects(t *testing.T) {
	svc, err := NewJWTService("secret", time.Hour)
	require.NoError(t, err)

	other, err := NewJWTService("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("moderator", true)
	require.NoError(t, err)

	_, err = svc.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrTokenSignature, "чужая подпись отклоняется")

	_, err = svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	expired, err := NewJWTService("secret", time.Hour)
	require.NoError(t, err)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateToken("moderator", true)
	require.NoError(t, err)
	_, err = svc.ParseToken(old)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Токен без нужной аудитории
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, &ModeratorClaims{
		Admin:            true,
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{"someone-else"}},
	})
	signed, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	_, err := NewJWTService("", time.Hour)
	assert.Error(t, err)
}
