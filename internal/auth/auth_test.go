package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	m := NewManager("secret", time.Hour)

	hash, err := m.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)

	assert.NoError(t, m.VerifyPassword(hash, "correct-horse"))
	assert.ErrorIs(t, m.VerifyPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.IssueToken(42, "user@example.com")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestTokenVerification(t *testing.T) {
	m := NewManager("secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.VerifyToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := m.IssueToken(1, "a@example.com")
		require.NoError(t, err)

		other := NewManager("different-secret", time.Hour)
		_, err = other.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewManager("secret", time.Nanosecond)
		token, err := short.IssueToken(1, "a@example.com")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = short.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
