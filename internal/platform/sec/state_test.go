// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crewdesk/internal/platform/sec"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := sec.NewStateSigner(testSecret, "crewdesk")

	token, err := signer.Sign("nonce-1", "/events/1", 10*time.Minute)
	require.NoError(t, err)

	claims, err := signer.Verify(token, "nonce-1")
	require.NoError(t, err)
	assert.Equal(t, "/events/1", claims.Callback)
}

/*
TestStateSigner_Rejects covers the nonce, expiry and key checks.
*/
func TestStateSigner_Rejects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	signer := sec.NewStateSigner(testSecret, "crewdesk").WithClock(clock)

	token, err := signer.Sign("nonce-1", "/", 10*time.Minute)
	require.NoError(t, err)

	t.Run("wrong_nonce", func(t *testing.T) {
		_, err := signer.Verify(token, "nonce-2")
		assert.ErrorIs(t, err, sec.ErrInvalidState)
	})

	t.Run("empty_nonce", func(t *testing.T) {
		_, err := signer.Verify(token, "")
		assert.ErrorIs(t, err, sec.ErrInvalidState)
	})

	t.Run("other_secret", func(t *testing.T) {
		other := sec.NewStateSigner("ffffffffffffffffffffffffffffffff", "crewdesk").WithClock(clock)
		_, err := other.Verify(token, "nonce-1")
		assert.ErrorIs(t, err, sec.ErrInvalidState)
	})

	t.Run("expired", func(t *testing.T) {
		late := sec.NewStateSigner(testSecret, "crewdesk").WithClock(func() time.Time { return now.Add(11 * time.Minute) })
		_, err := late.Verify(token, "nonce-1")
		assert.ErrorIs(t, err, sec.ErrInvalidState)
	})
}

func TestTokens(t *testing.T) {
	a, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.Len(t, sec.HashToken(a), 64)
	assert.Equal(t, sec.HashToken(a), sec.HashToken(a))
}

func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("hunter22", hash))
	assert.False(t, sec.CheckPasswordHash("hunter23", hash))
	assert.False(t, sec.CheckPasswordHash("hunter22", ""))
}
