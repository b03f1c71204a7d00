package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	userID := uuid.New()

	token, exp, err := m.IssueAccess(userID, "admin")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	gotID, role, err := m.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "admin", role)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("other", time.Minute).IssueAccess(uuid.New(), "user")
	require.NoError(t, err)

	_, _, err = NewTokenManager("secret", time.Minute).ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsExpiredAndMalformed(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = m.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	raw, err = noSub.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, _, err = m.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = m.ParseAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCacheService_TTLAndPrefix(t *testing.T) {
	cs := NewCacheService()
	t.Cleanup(cs.Close)

	cs.Set("platforms:withdrawal:active", 1, time.Minute)
	cs.Set("platforms:deposit:active", 2, time.Minute)
	cs.Set("other", 3, time.Minute)
	cs.Set("short", 4, -time.Second)

	v, ok := cs.Get("platforms:deposit:active")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = cs.Get("short")
	assert.False(t, ok)

	cs.InvalidateByPrefix("platforms:")
	_, ok = cs.Get("platforms:withdrawal:active")
	assert.False(t, ok)
	_, ok = cs.Get("other")
	assert.True(t, ok)

	cs.evictExpired(time.Now())
	cs.mu.RLock()
	_, present := cs.cache["short"]
	cs.mu.RUnlock()
	assert.False(t, present)
}
