package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

// CredentialStore is the read side of the user store needed to check a password.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CredentialVerifier checks an identifier and secret against stored bcrypt hashes.
type CredentialVerifier struct {
	store CredentialStore

	dummyOnce sync.Once
	dummyHash []byte
}

func NewCredentialVerifier(store CredentialStore) *CredentialVerifier {
	return &CredentialVerifier{store: store}
}

// Verify resolves the identifier as a username, then as an email, and compares the secret.
// Unknown identifiers and wrong secrets both yield ErrBadCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, identifier, secret string) (domain.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return domain.Principal{}, ErrBadCredentials
	}

	user, err := v.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn a comparable amount of time so a missing user is not observable
			_ = bcrypt.CompareHashAndPassword(v.placeholderHash(), []byte(secret))
			return domain.Principal{}, ErrBadCredentials
		}
		return domain.Principal{}, fmt.Errorf("lookup credentials: %w", err)
	}

	hash := []byte(user.PasswordHash)
	if len(hash) == 0 {
		hash = v.placeholderHash()
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil || user.PasswordHash == "" {
		return domain.Principal{}, ErrBadCredentials
	}

	return domain.PrincipalFromUser(user, domain.OriginCredentials), nil
}

func (v *CredentialVerifier) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := v.store.GetByUsername(ctx, identifier)
	if err == nil || !errors.Is(err, repository.ErrNotFound) || !strings.Contains(identifier, "@") {
		return user, err
	}
	return v.store.GetByEmail(ctx, identifier)
}

func (v *CredentialVerifier) placeholderHash() []byte {
	v.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)
		if err == nil {
			v.dummyHash = hash
		}
	})
	return v.dummyHash
}
