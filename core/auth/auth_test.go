package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("secret", []string{"g1", "g2"}, true, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, claims.Groups)
	assert.True(t, claims.Admin)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewToken("secret", nil, false, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewToken("secret", nil, false, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckAppKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("app-key"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckAppKey("app-key", string(hash)))
	assert.False(t, CheckAppKey("wrong", string(hash)))
	assert.False(t, CheckAppKey("", string(hash)))
	assert.False(t, CheckAppKey("app-key", ""))
}
