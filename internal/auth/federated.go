package auth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"household-tracker/internal/domain"
)

// AssertionFromAttributes extracts the federated identity from a userinfo document.
// The subject is read from "sub", falling back to "federatedId" and "id". A missing
// "email_verified" claim counts as verified; only an explicit false marks the email unverified.
func AssertionFromAttributes(attrs map[string]any) (domain.FederatedIdentity, error) {
	identity := domain.FederatedIdentity{
		Subject:       stringAttr(attrs, "sub", "federatedId", "id"),
		Email:         stringAttr(attrs, "email"),
		Name:          stringAttr(attrs, "name"),
		EmailVerified: boolAttr(attrs, "email_verified", true),
	}
	if identity.Email == "" {
		return domain.FederatedIdentity{}, fmt.Errorf("%w: email", ErrMissingAssertionAttribute)
	}
	return identity, nil
}

func boolAttr(attrs map[string]any, key string, fallback bool) bool {
	switch v := attrs[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func stringAttr(attrs map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case float64:
			// numeric ids arrive as JSON numbers
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// FederatedResolver finds or creates the local user for a federated identity.
type FederatedResolver interface {
	ResolveFederated(ctx context.Context, identity domain.FederatedIdentity) (*domain.User, error)
}

// FederatedLoginCallback turns a confirmed third-party identity into a first-party token
// delivered through a redirect.
type FederatedLoginCallback struct {
	users       FederatedResolver
	tokens      TokenEncoder
	landingPath string
	failurePath string
	logger      logrus.FieldLogger
}

func NewFederatedLoginCallback(users FederatedResolver, tokens TokenEncoder, landingPath, failurePath string, logger logrus.FieldLogger) *FederatedLoginCallback {
	if landingPath == "" {
		landingPath = "/"
	}
	if failurePath == "" {
		failurePath = "/login-page"
	}
	return &FederatedLoginCallback{
		users:       users,
		tokens:      tokens,
		landingPath: landingPath,
		failurePath: failurePath,
		logger:      logger,
	}
}

// Complete resolves the asserted user and returns the landing URL carrying the token in
// the "token" query parameter. No token is minted when a required attribute is missing.
func (f *FederatedLoginCallback) Complete(ctx context.Context, attrs map[string]any) (string, error) {
	identity, err := AssertionFromAttributes(attrs)
	if err != nil {
		return "", err
	}

	user, err := f.users.ResolveFederated(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("resolve federated user: %w", err)
	}

	token, err := f.tokens.Encode(domain.PrincipalFromUser(user, domain.OriginFederated))
	if err != nil {
		return "", err
	}

	// TODO: replace the token query parameter with a one-time exchange code once clients support it;
	// query strings end up in access logs and browser history.
	target, err := withQuery(f.landingPath, "token", token)
	if err != nil {
		return "", err
	}
	f.logger.WithField("user_id", user.ID).Info("federated login completed")
	return target, nil
}

// FailureURL is where the browser is sent when the federated flow cannot issue a token.
func (f *FederatedLoginCallback) FailureURL(code string) string {
	target, err := withQuery(f.failurePath, "error", code)
	if err != nil {
		return "/login-page?error=" + url.QueryEscape(code)
	}
	return target
}

func withQuery(base, key, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse redirect target %q: %w", base, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
