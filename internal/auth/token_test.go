package auth_test

import (
	"testing"
	"time"

	"smartTask/internal/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", 30*time.Minute)
	subject := uuid.New()

	token, err := tokens.Issue(subject)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)

	got, err := claims.Subject()
	require.NoError(t, err)
	assert.Equal(t, subject, got)

	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_VerifyWrongSecret(t *testing.T) {
	issuer := auth.NewTokenService("secret-one", time.Hour)
	verifier := auth.NewTokenService("secret-two", time.Hour)

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestTokenService_VerifyGarbage(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a token", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrTokenInvalid)
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", -time.Minute)

	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)

	left, err := tokens.Remaining(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.Equal(t, time.Duration(0), left)
}

func TestTokenService_Remaining(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)

	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	left, err := tokens.Remaining(token)
	require.NoError(t, err)
	assert.Greater(t, left, 59*time.Minute)
	assert.LessOrEqual(t, left, time.Hour)
}

func TestTokenService_ExpiresAtOnExpiredToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", -time.Hour)

	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	exp, err := tokens.ExpiresAt(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), exp, 5*time.Second)
}
