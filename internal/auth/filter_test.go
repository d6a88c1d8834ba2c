package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-tracker/internal/domain"
)

type decoderFunc func(string) (domain.Principal, error)

func (f decoderFunc) Decode(token string) (domain.Principal, error) { return f(token) }

type observed struct {
	calls     int
	principal domain.Principal
	ok        bool
	binding   *Binding
}

func newFilterRouter(decoder TokenDecoder, opts ...FilterOption) (*gin.Engine, *observed) {
	gin.SetMode(gin.TestMode)
	logger, _ := newTestLogger()
	obs := &observed{}
	router := gin.New()
	router.Use(Authenticate(decoder, logger, opts...))
	router.GET("/whoami", func(c *gin.Context) {
		obs.calls++
		obs.principal, obs.ok = CurrentPrincipal(c)
		obs.binding = BindingFrom(c)
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) {
		obs.binding = BindingFrom(c)
		panic("handler failure")
	})
	return router, obs
}

func serve(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateLeavesAnonymous(t *testing.T) {
	decodeCalls := 0
	decoder := decoderFunc(func(string) (domain.Principal, error) {
		decodeCalls++
		return domain.Principal{}, ErrInvalidToken
	})

	cases := map[string]string{
		"no header":    "",
		"basic scheme": "Basic c29tZTpiYXNpYw==",
		"empty bearer": "Bearer ",
		"blank bearer": "Bearer    ",
		"lowercase":    "bearer abc",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			router, obs := newFilterRouter(decoder)
			rec := serve(router, "/whoami", header)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 1, obs.calls)
			assert.False(t, obs.ok)
		})
	}
	assert.Zero(t, decodeCalls, "decoder must not run without a bearer token")
}

func TestAuthenticateInvalidTokenProceedsAnonymous(t *testing.T) {
	router, obs := newFilterRouter(decoderFunc(func(string) (domain.Principal, error) {
		return domain.Principal{}, ErrInvalidToken
	}))

	rec := serve(router, "/whoami", "Bearer invalid.jwt.token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, obs.calls)
	assert.False(t, obs.ok)
}

func TestAuthenticateDecoderPanicDegradesToAnonymous(t *testing.T) {
	router, obs := newFilterRouter(decoderFunc(func(string) (domain.Principal, error) {
		panic("codec exploded")
	}))

	rec := serve(router, "/whoami", "Bearer valid.jwt.token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, obs.calls)
	assert.False(t, obs.ok)
}

func TestAuthenticateValidTokenBindsPrincipal(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := codec.Encode(alice())
	require.NoError(t, err)

	router, obs := newFilterRouter(codec)
	rec := serve(router, "/whoami", "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, obs.ok)
	assert.Equal(t, int64(7), obs.principal.ID)

	_, stillBound := obs.binding.Current()
	assert.False(t, stillBound, "binding must be cleared after the request")
}

func TestAuthenticateClearsBindingWhenHandlerPanics(t *testing.T) {
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := codec.Encode(alice())
	require.NoError(t, err)

	router, obs := newFilterRouter(codec)
	assert.Panics(t, func() { serve(router, "/boom", "Bearer "+token) })

	require.NotNil(t, obs.binding)
	_, stillBound := obs.binding.Current()
	assert.False(t, stillBound)
}

func TestAuthenticateRefreshesPrincipalFromLookup(t *testing.T) {
	users := newMemoryUsers()
	stored := users.add(t, "alice", "alice@new.example.com", "Alice Renamed", "")
	codec, err := NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	p := alice()
	p.ID = stored.ID
	token, err := codec.Encode(p)
	require.NoError(t, err)

	router, obs := newFilterRouter(codec, WithPrincipalLookup(users))
	serve(router, "/whoami", "Bearer "+token)
	require.True(t, obs.ok)
	assert.Equal(t, "Alice Renamed", obs.principal.DisplayName)
	assert.Equal(t, "alice@new.example.com", obs.principal.Email)

	users.lookup = errors.New("user deleted")
	serve(router, "/whoami", "Bearer "+token)
	assert.False(t, obs.ok)
}
