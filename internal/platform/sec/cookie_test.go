// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieSignerRoundTrip(t *testing.T) {
	signer, err := NewCookieSigner([]string{"current-key"})
	require.NoError(t, err)

	signed := signer.Sign("session-id-value")

	value, ok := signer.Verify(signed)
	assert.True(t, ok)
	assert.Equal(t, "session-id-value", value)
}

func TestCookieSignerRejectsTampering(t *testing.T) {
	signer, err := NewCookieSigner([]string{"current-key"})
	require.NoError(t, err)

	signed := signer.Sign("session-id-value")

	_, ok := signer.Verify("other-id" + signed[len("session-id-value"):])
	assert.False(t, ok)

	_, ok = signer.Verify("no-separator-at-all")
	assert.False(t, ok)

	_, ok = signer.Verify("")
	assert.False(t, ok)
}

func TestCookieSignerKeyRotation(t *testing.T) {
	oldSigner, err := NewCookieSigner([]string{"old-key"})
	require.NoError(t, err)

	legacyCookie := oldSigner.Sign("session-id-value")

	// After rotation the new key signs, but the retiring key still verifies.
	rotated, err := NewCookieSigner([]string{"new-key", "old-key"})
	require.NoError(t, err)

	value, ok := rotated.Verify(legacyCookie)
	assert.True(t, ok)
	assert.Equal(t, "session-id-value", value)

	// A signer without the old key no longer accepts the legacy cookie.
	dropped, err := NewCookieSigner([]string{"new-key"})
	require.NoError(t, err)

	_, ok = dropped.Verify(legacyCookie)
	assert.False(t, ok)
}

func TestNewCookieSignerRequiresKeys(t *testing.T) {
	_, err := NewCookieSigner(nil)
	assert.ErrorIs(t, err, ErrNoSignatureKeys)

	_, err = NewCookieSigner([]string{""})
	assert.ErrorIs(t, err, ErrNoSignatureKeys)
}
