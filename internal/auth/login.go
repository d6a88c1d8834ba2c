package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"household-tracker/internal/domain"
)

// Verifier checks a presented identifier and secret.
type Verifier interface {
	Verify(ctx context.Context, identifier, secret string) (domain.Principal, error)
}

// TokenEncoder mints a token for a resolved principal.
type TokenEncoder interface {
	Encode(p domain.Principal) (string, error)
}

// LoginResult is the public outcome of a successful credential login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Subject     string `json:"subject"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Secret     string `json:"secret"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (r loginRequest) secret() string {
	if r.Secret != "" {
		return r.Secret
	}
	return r.Password
}

// LoginEndpoint exchanges valid credentials for a bearer token.
type LoginEndpoint struct {
	verifier Verifier
	tokens   TokenEncoder
	logger   logrus.FieldLogger
}

func NewLoginEndpoint(verifier Verifier, tokens TokenEncoder, logger logrus.FieldLogger) *LoginEndpoint {
	return &LoginEndpoint{verifier: verifier, tokens: tokens, logger: logger}
}

// Login verifies the credentials and mints a fresh token. Each call issues an independent token.
func (e *LoginEndpoint) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	principal, err := e.verifier.Verify(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	token, err := e.tokens.Encode(principal)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   strings.TrimSpace(bearerPrefix),
		Subject:     identifier,
		UserID:      principal.ID,
		Email:       principal.Email,
		Name:        principal.DisplayName,
	}, nil
}

func (e *LoginEndpoint) Handle(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed login request"})
		return
	}
	identifier, secret := req.identifier(), req.secret()
	if identifier == "" || secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identifier and secret are required"})
		return
	}

	result, err := e.Login(c.Request.Context(), identifier, secret)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			e.logger.WithField("identifier", identifier).Info("login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		e.logger.WithField("identifier", identifier).Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Header("Authorization", bearerPrefix+result.AccessToken)
	c.JSON(http.StatusOK, result)
}
