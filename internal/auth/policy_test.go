package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyClassify(t *testing.T) {
	policy, err := NewPolicy(PublicRules(DefaultPublicPatterns()...), AccessProtected)
	require.NoError(t, err)
	assert.Equal(t, AccessProtected, policy.DefaultAccess())

	cases := map[string]Access{
		"/health":                      AccessPublic,
		"/auth/login":                  AccessPublic,
		"/oauth2/callback":             AccessPublic,
		"/oauth2/authorization/google": AccessPublic,
		"/login-page":                  AccessPublic,
		"/api/users/register":          AccessPublic,
		"/api/users/me":                AccessProtected,
		"/api/ledger-entries":          AccessProtected,
		"/api/ledger-entries/3":        AccessProtected,
		"/":                            AccessProtected,
		"/auth/../api/users/me":        AccessProtected,
		"/healthz":                     AccessProtected,
	}
	for path, want := range cases {
		assert.Equal(t, want, policy.Classify(path), path)
	}
}

func TestPolicyFirstMatchWins(t *testing.T) {
	policy, err := NewPolicy([]Rule{
		{Pattern: "/api/users/register", Access: AccessPublic},
		{Pattern: "/api/**", Access: AccessProtected},
		{Pattern: "/api/users/**", Access: AccessPublic},
	}, AccessPublic)
	require.NoError(t, err)

	assert.Equal(t, AccessPublic, policy.Classify("/api/users/register"))
	assert.Equal(t, AccessProtected, policy.Classify("/api/users/me"))
	assert.Equal(t, AccessPublic, policy.Classify("/elsewhere"))
	assert.Equal(t, AccessPublic, policy.DefaultAccess())
}

func TestNewPolicyRejectsBadInput(t *testing.T) {
	_, err := NewPolicy(PublicRules("health"), AccessProtected)
	assert.Error(t, err)
	_, err = NewPolicy(PublicRules("/[broken"), AccessProtected)
	assert.Error(t, err)
	_, err = NewPolicy(nil, Access("maybe"))
	assert.Error(t, err)
}

func TestParseAccess(t *testing.T) {
	for in, want := range map[string]Access{"": AccessProtected, "deny": AccessProtected, "ALLOW": AccessPublic} {
		got, err := ParseAccess(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAccess("sometimes")
	assert.Error(t, err)
}

func newGatedRouter(t *testing.T, defaultAccess Access) (*gin.Engine, *TokenCodec, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := newTestLogger()
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	policy, err := NewPolicy(PublicRules(DefaultPublicPatterns()...), defaultAccess)
	require.NoError(t, err)

	calls := 0
	router := gin.New()
	router.Use(Authenticate(codec, logger), Gate(policy, logger))
	handler := func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
	router.GET("/health", handler)
	router.GET("/api/ledger-entries", handler)
	return router, codec, &calls
}

func TestGateRejectsAnonymousOnProtectedRoute(t *testing.T) {
	router, codec, calls := newGatedRouter(t, AccessProtected)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not.a.token"} {
		rec := serve(router, "/api/ledger-entries", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
	assert.Zero(t, *calls, "handler must not run for anonymous callers")

	token, err := codec.Encode(alice())
	require.NoError(t, err)
	rec := serve(router, "/api/ledger-entries", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)

	rec = serve(router, "/api/ledger-entries", "Bearer "+flipLastChar(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, *calls)
}

func TestGateAllowsPublicRouteWithoutToken(t *testing.T) {
	router, _, calls := newGatedRouter(t, AccessProtected)

	rec := serve(router, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(router, "/health", "Bearer garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, *calls)
}

func TestGateDefaultAllow(t *testing.T) {
	router, _, calls := newGatedRouter(t, AccessPublic)

	rec := serve(router, "/api/ledger-entries", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)
}
