package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

// memoryUsers is an in-memory user store for auth tests.
type memoryUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
	lookup error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{nextID: 1, users: map[int64]*domain.User{}}
}

func (m *memoryUsers) add(t *testing.T, username, email, name, password string) *domain.User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &domain.User{ID: m.nextID, Username: username, Email: email, Name: name}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		user.PasswordHash = string(hash)
	}
	m.users[user.ID] = user
	m.nextID++
	return user
}

func (m *memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookup != nil {
		return nil, m.lookup
	}
	for _, u := range m.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("user %w", repository.ErrNotFound)
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) })
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *memoryUsers) ResolveFederated(_ context.Context, identity domain.FederatedIdentity) (*domain.User, error) {
	if u, err := m.find(func(u *domain.User) bool { return identity.Subject != "" && u.GoogleID == identity.Subject }); err == nil {
		return u, nil
	}
	if u, err := m.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, identity.Email) }); err == nil {
		if !identity.EmailVerified {
			return nil, domain.ErrEmailNotVerified
		}
		return u, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &domain.User{ID: m.nextID, Username: identity.Email, Email: identity.Email, Name: identity.Name, GoogleID: identity.Subject}
	m.users[user.ID] = user
	m.nextID++
	clone := *user
	return &clone, nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
