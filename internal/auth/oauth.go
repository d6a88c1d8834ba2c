package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"household-tracker/internal/domain"
)

const (
	// AuthorizationPath starts the federated login handshake.
	AuthorizationPath = "/oauth2/authorization/google"
	// CallbackPath receives the identity provider's redirect.
	CallbackPath = "/oauth2/callback"

	stateCookie   = "oauth2_state"
	stateLifetime = 10 * time.Minute
)

// OAuth2Settings describes the identity provider. Federated login is disabled when ClientID is empty.
type OAuth2Settings struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
	SecureCookie bool
}

// OAuth2Login drives the authorization-code handshake and hands the confirmed
// identity to a FederatedLoginCallback.
type OAuth2Login struct {
	config      *oauth2.Config
	userInfoURL string
	secure      bool
	callback    *FederatedLoginCallback
	httpClient  *http.Client
	logger      logrus.FieldLogger
}

func NewOAuth2Login(settings OAuth2Settings, callback *FederatedLoginCallback, logger logrus.FieldLogger) *OAuth2Login {
	return &OAuth2Login{
		config: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURL,
			Scopes:       settings.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   settings.AuthURL,
				TokenURL:  settings.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: settings.UserInfoURL,
		secure:      settings.SecureCookie,
		callback:    callback,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// Enabled reports whether an identity provider is configured.
func (o *OAuth2Login) Enabled() bool {
	return o != nil && o.config.ClientID != ""
}

// Start redirects the user agent to the provider's consent page.
func (o *OAuth2Login) Start(c *gin.Context) {
	if !o.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "federated login is not configured"})
		return
	}
	state, err := newState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start federated login"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int(stateLifetime.Seconds()), "/oauth2", "", o.secure, true)
	c.Redirect(http.StatusFound, o.config.AuthCodeURL(state))
}

// Callback completes the handshake. Every failure redirects to the failure page without a token.
func (o *OAuth2Login) Callback(c *gin.Context) {
	if !o.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "federated login is not configured"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	expected, _ := c.Cookie(stateCookie)
	c.SetCookie(stateCookie, "", -1, "/oauth2", "", o.secure, true)

	if providerErr := c.Query("error"); providerErr != "" {
		o.logger.WithField("provider_error", providerErr).Warn("identity provider returned an error")
		c.Redirect(http.StatusFound, o.callback.FailureURL("access_denied"))
		return
	}
	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		o.logger.Warn("federated login state mismatch")
		c.Redirect(http.StatusFound, o.callback.FailureURL("invalid_state"))
		return
	}
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, o.callback.FailureURL("missing_code"))
		return
	}

	attrs, err := o.fetchAttributes(c.Request.Context(), code)
	if err != nil {
		o.logger.Warnf("federated handshake: %v", err)
		c.Redirect(http.StatusFound, o.callback.FailureURL("handshake_failed"))
		return
	}

	target, err := o.callback.Complete(c.Request.Context(), attrs)
	if err != nil {
		o.logger.Warnf("federated login: %v", err)
		switch {
		case errors.Is(err, ErrMissingAssertionAttribute):
			c.Redirect(http.StatusFound, o.callback.FailureURL("missing_email"))
			return
		case errors.Is(err, domain.ErrEmailNotVerified):
			c.Redirect(http.StatusFound, o.callback.FailureURL("email_not_verified"))
			return
		}
		c.Redirect(http.StatusFound, o.callback.FailureURL("federated_login_failed"))
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (o *OAuth2Login) fetchAttributes(ctx context.Context, code string) (map[string]any, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", ErrFederatedHandshake, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build userinfo request: %w", ErrFederatedHandshake, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %w", ErrFederatedHandshake, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", ErrFederatedHandshake, resp.StatusCode)
	}

	var attrs map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %w", ErrFederatedHandshake, err)
	}
	return attrs, nil
}

func newState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
