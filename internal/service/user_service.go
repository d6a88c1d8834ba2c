package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"household-tracker/internal/domain"
	"household-tracker/internal/repository"
)

var (
	// ErrInvalidRegistrationPassword indicates the registration secret is incorrect.
	ErrInvalidRegistrationPassword = errors.New("invalid registration password")
	// ErrRegistrationDisabled is returned when no registration secret is configured.
	ErrRegistrationDisabled = errors.New("registration is disabled")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username or email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidInput wraps field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// RegisterInput carries the fields of a self-registration request.
type RegisterInput struct {
	Username         string
	Email            string
	Name             string
	Password         string
	RegisterPassword string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ResolveFederated(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error)
}

type userService struct {
	users          repository.UserRepository
	registerSecret string
}

func NewUserService(users repository.UserRepository, registerSecret string) UserService {
	return &userService{
		users:          users,
		registerSecret: strings.TrimSpace(registerSecret),
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	// passwords are hashed exactly as typed; login compares the untrimmed secret
	password := in.Password
	providedSecret := strings.TrimSpace(in.RegisterPassword)

	if s.registerSecret == "" {
		return nil, ErrRegistrationDisabled
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.Contains(username, "@") {
		return nil, fmt.Errorf("%w: username must not contain '@'", ErrInvalidInput)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: email is malformed", ErrInvalidInput)
		}
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.registerSecret)) != 1 {
		return nil, ErrInvalidRegistrationPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if name == "" {
		name = username
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// ResolveFederated finds the local user for a federated identity, linking or creating as needed.
// Lookup order is federated id, then email. An existing account is only linked by email
// when the provider vouches for that email.
func (s *userService) ResolveFederated(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error) {
	email := strings.TrimSpace(identity.Email)
	name := strings.TrimSpace(identity.Name)
	googleID := strings.TrimSpace(identity.Subject)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if googleID != "" {
		user, err := s.users.GetByGoogleID(ctx, googleID)
		if err == nil {
			return sanitizeUser(user), nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !identity.EmailVerified {
			return nil, fmt.Errorf("link user %d: %w", user.ID, domain.ErrEmailNotVerified)
		}
		if googleID != "" && user.GoogleID == "" {
			if err := s.users.LinkGoogleID(ctx, user.ID, googleID); err != nil {
				return nil, err
			}
			user.GoogleID = googleID
		}
		return sanitizeUser(user), nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	if name == "" {
		name = email
	}
	user = &domain.User{
		Username: federatedUsername(email),
		Email:    email,
		Name:     name,
		GoogleID: googleID,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, err
		}
		// the email's local part is already a username; retry once with a random suffix
		user.Username = federatedUsername(email) + "-" + uuid.NewString()[:8]
		if _, err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}
	return sanitizeUser(user), nil
}

func federatedUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "user"
	}
	return strings.ToLower(local)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		GoogleID:  user.GoogleID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
