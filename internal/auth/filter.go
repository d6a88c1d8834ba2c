package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"household-tracker/internal/domain"
)

const bearerPrefix = "Bearer "

// TokenDecoder verifies a bearer token and returns the principal it asserts.
type TokenDecoder interface {
	Decode(token string) (domain.Principal, error)
}

// PrincipalLookup reloads the user behind a token so that stale display fields are refreshed
// and tokens of deleted users stop resolving.
type PrincipalLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type FilterOption func(*filter)

// WithPrincipalLookup enables per-request user reload after a token decodes.
func WithPrincipalLookup(lookup PrincipalLookup) FilterOption {
	return func(f *filter) { f.lookup = lookup }
}

type filter struct {
	codec  TokenDecoder
	lookup PrincipalLookup
	logger logrus.FieldLogger
}

// Authenticate installs an empty principal binding for the request, fills it from a valid
// bearer token when one is present, and clears it once the rest of the chain returns.
// It never aborts: rejecting anonymous callers is the job of Gate.
func Authenticate(codec TokenDecoder, logger logrus.FieldLogger, opts ...FilterOption) gin.HandlerFunc {
	f := &filter{codec: codec, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return func(c *gin.Context) {
		binding := installBinding(c)
		defer binding.Clear()

		if p, ok := f.resolve(c); ok {
			binding.Set(p)
		}
		c.Next()
	}
}

func (f *filter) resolve(c *gin.Context) (principal domain.Principal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.WithField("path", c.Request.URL.Path).Errorf("authentication filter recovered: %v", r)
			principal, ok = domain.Principal{}, false
		}
	}()

	token, found := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
	if !found {
		return domain.Principal{}, false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, false
	}

	p, err := f.codec.Decode(token)
	if err != nil {
		f.logger.WithField("path", c.Request.URL.Path).Debugf("bearer token rejected: %v", err)
		return domain.Principal{}, false
	}

	if f.lookup != nil {
		user, err := f.lookup.GetByID(c.Request.Context(), p.ID)
		if err != nil {
			f.logger.WithField("user_id", p.ID).Debugf("token subject not resolvable: %v", err)
			return domain.Principal{}, false
		}
		p.DisplayName = user.Name
		p.Email = user.Email
	}
	return p, true
}
