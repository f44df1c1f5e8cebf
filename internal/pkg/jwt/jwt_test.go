package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	v := New("test-secret-0123456789012345678901234567")
	uid := "user-1"

	token, err := v.Sign("sess-abc", &uid, 30*24*time.Hour)
	require.NoError(t, err)

	identity, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", identity.SessionID)
	require.NotNil(t, identity.UserID)
	assert.Equal(t, "user-1", *identity.UserID)
}

func TestParseRejectsTamperedSecret(t *testing.T) {
	v1 := New("secret-one-0123456789012345678901234567")
	v2 := New("secret-two-0123456789012345678901234567")

	token, err := v1.Sign("sess-abc", nil, time.Hour)
	require.NoError(t, err)

	_, err = v2.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	v := New("test-secret-0123456789012345678901234567")
	token, err := v.Sign("sess-abc", nil, -time.Minute)
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsMissingSessionID(t *testing.T) {
	v := New("test-secret-0123456789012345678901234567")
	token, err := v.Sign("", nil, time.Hour)
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.Error(t, err)
}
