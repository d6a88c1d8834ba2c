package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"household-tracker/internal/domain"
)

const (
	// DefaultTokenTTL is used when no lifetime is configured.
	DefaultTokenTTL = 24 * time.Hour
	defaultIssuer   = "household-tracker"
)

// Claims is the payload of a first-party access token.
type Claims struct {
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles"`
	Origin string   `json:"origin,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 tokens with a process-wide secret.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(c *TokenCodec) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			c.issuer = issuer
		}
	}
}

func NewTokenCodec(secret string, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	c := &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Encode signs a token asserting the principal's id and roles, valid from now for the codec TTL.
func (c *TokenCodec) Encode(p domain.Principal) (string, error) {
	if p.ID <= 0 {
		return "", errors.New("principal id is required")
	}
	roles := p.Roles
	if len(roles) == 0 {
		roles = domain.DefaultRoles()
	}

	now := c.now().UTC()
	claims := Claims{
		Name:   p.DisplayName,
		Email:  p.Email,
		Roles:  roles,
		Origin: string(p.Origin),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, issuer and expiry and rebuilds the principal from the claims.
// Every failure matches ErrInvalidToken. exp is stored in whole seconds and a token is
// rejected from that second on, so it can lapse up to a second before issuedAt+TTL.
func (c *TokenCodec) Decode(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(c.issuer),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, claims.Subject)
	}

	return domain.Principal{
		ID:          id,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Roles:       append([]string(nil), claims.Roles...),
		Origin:      decodedOrigin(claims.Origin),
	}, nil
}

// decodedOrigin reports how the token's principal originally logged in,
// falling back to OriginToken for tokens that carry no recognised origin.
func decodedOrigin(origin string) domain.PrincipalOrigin {
	switch o := domain.PrincipalOrigin(origin); o {
	case domain.OriginCredentials, domain.OriginFederated:
		return o
	}
	return domain.OriginToken
}

// Subject returns the sub claim without verifying the signature or expiry.
// Use it for diagnostics only; it is not proof of identity.
func (c *TokenCodec) Subject(token string) (string, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), &claims); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return claims.Subject, nil
}
