package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-tracker/internal/domain"
)

func TestCredentialVerifier(t *testing.T) {
	users := newMemoryUsers()
	stored := users.add(t, "alice", "alice@example.com", "Alice", "correct-horse")
	users.add(t, "bob", "bob@example.com", "Bob", "")
	verifier := NewCredentialVerifier(users)
	ctx := context.Background()

	t.Run("username", func(t *testing.T) {
		p, err := verifier.Verify(ctx, "alice", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, p.ID)
		assert.Equal(t, "Alice", p.DisplayName)
		assert.Equal(t, "alice@example.com", p.Email)
		assert.Equal(t, domain.DefaultRoles(), p.Roles)
		assert.Equal(t, domain.OriginCredentials, p.Origin)
	})

	t.Run("email", func(t *testing.T) {
		p, err := verifier.Verify(ctx, "alice@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, p.ID)
	})

	t.Run("wrong secret and unknown user are indistinguishable", func(t *testing.T) {
		_, wrongSecret := verifier.Verify(ctx, "alice", "wrong")
		_, unknown := verifier.Verify(ctx, "mallory", "wrong")
		_, unknownEmail := verifier.Verify(ctx, "mallory@example.com", "wrong")
		assert.ErrorIs(t, wrongSecret, ErrBadCredentials)
		assert.ErrorIs(t, unknown, ErrBadCredentials)
		assert.ErrorIs(t, unknownEmail, ErrBadCredentials)
		assert.Equal(t, wrongSecret.Error(), unknown.Error())
	})

	t.Run("federated-only account has no password", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "bob", "")
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, err = verifier.Verify(ctx, "bob", "anything")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("empty identifier", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "  ", "correct-horse")
		assert.ErrorIs(t, err, ErrBadCredentials)
	})
}

func TestCredentialVerifierStoreFailure(t *testing.T) {
	users := newMemoryUsers()
	users.lookup = errors.New("database is locked")
	verifier := NewCredentialVerifier(users)

	_, err := verifier.Verify(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadCredentials)
}
