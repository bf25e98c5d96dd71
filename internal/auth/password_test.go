package auth_test

import (
	"testing"

	"smartTask/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "correct horse")

	assert.True(t, auth.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, auth.VerifyPassword("wrong password", hash))
	assert.False(t, auth.VerifyPassword("anything", ""))
}

func TestHashPassword_SaltedHashesDiffer(t *testing.T) {
	first, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	second, err := auth.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, auth.VerifyPassword("same-password", first))
	assert.True(t, auth.VerifyPassword("same-password", second))
}
