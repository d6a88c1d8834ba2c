package auth

import "errors"

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrBadCredentials is returned for an unknown identifier and a wrong secret alike.
	ErrBadCredentials = errors.New("bad credentials")
	// ErrMissingAssertionAttribute is returned when a federated identity lacks a required attribute.
	ErrMissingAssertionAttribute = errors.New("missing required assertion attribute")
	// ErrFederatedHandshake is returned when the OAuth2 exchange with the identity provider fails.
	ErrFederatedHandshake = errors.New("federated handshake failed")
)
