package domain

import (
	"errors"
	"time"
)

// User represents an account holder of the household tracker.
type User struct {
	ID           int64
	Username     string
	Email        string
	Name         string
	GoogleID     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FederatedIdentity is the identity an external provider asserted for a login.
type FederatedIdentity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// ErrEmailNotVerified is returned when an unverified provider email matches an existing account.
var ErrEmailNotVerified = errors.New("federated email is not verified")
