package security

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("S3cret!pass", testParams)
	require.NoError(t, err)

	ok, err := VerifyPassword("S3cret!pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", []byte("$2a$10$bcrypt-style"))
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("secret", "user-1", "sess-1", "a@example.com", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseAccessToken(token, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("secret", "user-1", "sess-1", "a@example.com", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, "secret")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerificationTokenCannotBeUsedAsAccessToken(t *testing.T) {
	token, err := GenerateVerificationToken("secret", "a@example.com", time.Hour)
	require.NoError(t, err)

	email, err := ParseVerificationToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)

	_, err = ParseAccessToken(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHash(t *testing.T) {
	token, hash, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	assert.Equal(t, hash, HashRefreshToken(token))

	other, _, err := GenerateRefreshToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestCheckPassword(t *testing.T) {
	cases := map[string]PasswordChecks{
		"":            {},
		"abcdefgh":    {MinLength: true, Lowercase: true},
		"Abcdefg1":    {MinLength: true, Uppercase: true, Lowercase: true, Number: true},
		"Abcdef1!":    {MinLength: true, Uppercase: true, Lowercase: true, Number: true, Special: true},
		"Ab1! ":       {Uppercase: true, Lowercase: true, Number: true, Special: true},
		"ÄÖÜäöü12345": {MinLength: true, Number: true, Special: true},
	}
	for password, want := range cases {
		assert.Equal(t, want, CheckPassword(password), password)
	}

	assert.True(t, CheckPassword("Abcdef1!").OK())
	assert.Equal(t, []string{"one uppercase character", "one number", "one special character"}, CheckPassword("abcdefgh").Unmet())
}

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"ann@example.com", " ann@mail.example.org ", "a.b+tag@example.co"} {
		assert.True(t, ValidEmail(email), email)
	}
	for _, email := range []string{"", "ann", "a@b", "ann@example.", "Ann <ann@example.com>", "ann@@example.com"} {
		assert.False(t, ValidEmail(email), email)
	}
}
