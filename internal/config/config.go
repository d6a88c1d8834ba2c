package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret        string
		TokenTTL         time.Duration
		Issuer           string
		RegisterPassword string
	}
	OAuth struct {
		ClientID     string
		ClientSecret string
		AuthURL      string
		TokenURL     string
		UserInfoURL  string
		RedirectURL  string
		Scopes       []string
		LandingPath  string
		FailurePath  string
		SecureCookie bool
	}
	Security struct {
		DefaultPolicy string
		PublicPaths   []string
	}
}

// Load reads configuration from environment variables and optional config files.
// Environment variables use the HOUSEHOLD_ prefix, e.g. HOUSEHOLD_AUTH_JWTSECRET.
func Load() (Config, error) {
	// .env values never override variables already set in the environment
	_ = gotenv.Load(".env")

	v := viper.New()
	v.SetEnvPrefix("HOUSEHOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "data/household.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.issuer", "household-tracker")
	v.SetDefault("auth.registerpassword", "")
	v.SetDefault("oauth.clientid", "")
	v.SetDefault("oauth.clientsecret", "")
	v.SetDefault("oauth.authurl", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("oauth.tokenurl", "https://oauth2.googleapis.com/token")
	v.SetDefault("oauth.userinfourl", "https://openidconnect.googleapis.com/v1/userinfo")
	v.SetDefault("oauth.redirecturl", "http://localhost:8080/oauth2/callback")
	v.SetDefault("oauth.scopes", []string{"openid", "email", "profile"})
	v.SetDefault("oauth.landingpath", "/")
	v.SetDefault("oauth.failurepath", "/login-page")
	v.SetDefault("oauth.securecookie", false)
	v.SetDefault("security.defaultpolicy", "deny")
	v.SetDefault("security.publicpaths", []string{})

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth jwt secret must be at least 32 bytes")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch strings.ToLower(strings.TrimSpace(c.Security.DefaultPolicy)) {
	case "deny", "allow":
	default:
		return fmt.Errorf("security default policy must be deny or allow, got %q", c.Security.DefaultPolicy)
	}
	if c.OAuth.ClientID != "" {
		if c.OAuth.ClientSecret == "" || c.OAuth.RedirectURL == "" || c.OAuth.UserInfoURL == "" {
			return errors.New("oauth client secret, redirect url and userinfo url are required when a client id is set")
		}
	}
	return nil
}

// FederatedLoginEnabled reports whether an OAuth2 identity provider is configured.
func (c Config) FederatedLoginEnabled() bool {
	return c.OAuth.ClientID != ""
}
