package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-tracker/internal/domain"
)

func newTestCallback(t *testing.T, users FederatedResolver) (*FederatedLoginCallback, *TokenCodec) {
	t.Helper()
	logger, _ := newTestLogger()
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	return NewFederatedLoginCallback(users, codec, "/app", "", logger), codec
}

func TestFederatedCompleteCreatesUserAndMintsToken(t *testing.T) {
	users := newMemoryUsers()
	callback, codec := newTestCallback(t, users)

	target, err := callback.Complete(context.Background(), map[string]any{
		"email": "bob@x.com",
		"name":  "Bob",
		"sub":   "google-123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, users.count())

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "/app", u.Path)

	p, err := codec.Decode(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", p.Email)
	assert.Equal(t, "Bob", p.DisplayName)

	// a second login reuses the linked account
	_, err = callback.Complete(context.Background(), map[string]any{"email": "bob@x.com", "sub": "google-123"})
	require.NoError(t, err)
	assert.Equal(t, 1, users.count())
}

func TestFederatedCompleteRequiresEmail(t *testing.T) {
	users := newMemoryUsers()
	callback, _ := newTestCallback(t, users)

	target, err := callback.Complete(context.Background(), map[string]any{"name": "No Mail", "sub": "x"})
	assert.ErrorIs(t, err, ErrMissingAssertionAttribute)
	assert.Empty(t, target)
	assert.Zero(t, users.count())
}

func TestFederatedCompleteRefusesUnverifiedLink(t *testing.T) {
	users := newMemoryUsers()
	users.add(t, "bob", "bob@x.com", "Bob", "correct-horse")
	callback, _ := newTestCallback(t, users)

	target, err := callback.Complete(context.Background(), map[string]any{
		"email":          "bob@x.com",
		"email_verified": false,
		"sub":            "g-other",
	})
	assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
	assert.Empty(t, target)
}

type failingResolver struct{}

func (failingResolver) ResolveFederated(context.Context, domain.FederatedIdentity) (*domain.User, error) {
	return nil, errors.New("database unavailable")
}

func TestFederatedCompleteResolveFailure(t *testing.T) {
	callback, _ := newTestCallback(t, failingResolver{})

	target, err := callback.Complete(context.Background(), map[string]any{"email": "bob@x.com"})
	assert.Error(t, err)
	assert.Empty(t, target)
}

func TestAssertionFromAttributes(t *testing.T) {
	a, err := AssertionFromAttributes(map[string]any{"email": " carol@x.com ", "id": float64(4242)})
	require.NoError(t, err)
	assert.Equal(t, "carol@x.com", a.Email)
	assert.Equal(t, "4242", a.Subject)
	assert.True(t, a.EmailVerified)
	assert.Empty(t, a.Name)

	a, err = AssertionFromAttributes(map[string]any{"email": "d@x.com", "sub": "s-1", "id": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", a.Subject)

	a, err = AssertionFromAttributes(map[string]any{"email": "e@x.com", "email_verified": false})
	require.NoError(t, err)
	assert.False(t, a.EmailVerified)
	a, err = AssertionFromAttributes(map[string]any{"email": "e@x.com", "email_verified": "false"})
	require.NoError(t, err)
	assert.False(t, a.EmailVerified)

	_, err = AssertionFromAttributes(map[string]any{"email": ""})
	assert.ErrorIs(t, err, ErrMissingAssertionAttribute)
}

func TestFederatedFailureURL(t *testing.T) {
	callback, _ := newTestCallback(t, newMemoryUsers())
	assert.Equal(t, "/login-page?error=missing_email", callback.FailureURL("missing_email"))
}
