// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestHashPasswordIsNonDeterministic(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)

	second, err := HashPassword("same password")
	require.NoError(t, err)

	// Embedded random salt: same input, different records.
	assert.NotEqual(t, first, second)

	// Both still verify against the original candidate.
	assert.True(t, CheckPasswordHash("same password", first))
	assert.True(t, CheckPasswordHash("same password", second))
}

func TestCheckPasswordHashRejectsGarbage(t *testing.T) {
	assert.False(t, CheckPasswordHash("anything", "not-a-bcrypt-record"))
}

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(24)
	require.NoError(t, err)

	second, err := GenerateSecureToken(24)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	// 24 bytes base64url-encoded without padding is 32 characters.
	assert.Len(t, first, 32)
}
