package auth

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Access string

const (
	AccessProtected Access = "protected"
	AccessPublic    Access = "public"
)

// ParseAccess maps the configured default policy ("deny" or "allow") to an Access.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deny", string(AccessProtected):
		return AccessProtected, nil
	case "allow", string(AccessPublic):
		return AccessPublic, nil
	}
	return "", fmt.Errorf("unknown access policy %q", s)
}

// Rule classifies every path matching Pattern. Patterns use doublestar syntax.
type Rule struct {
	Pattern string
	Access  Access
}

// DefaultPublicPatterns lists the routes reachable without a token.
func DefaultPublicPatterns() []string {
	return []string{
		"/auth/**",
		"/oauth2/**",
		"/login/**",
		"/login-page",
		"/error",
		"/health",
		"/api/users/register",
	}
}

// PublicRules turns patterns into public rules, preserving order.
func PublicRules(patterns ...string) []Rule {
	rules := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, Rule{Pattern: p, Access: AccessPublic})
	}
	return rules
}

// Policy is an ordered rule table; the first matching rule wins, otherwise the default applies.
type Policy struct {
	rules         []Rule
	defaultAccess Access
}

func NewPolicy(rules []Rule, defaultAccess Access) (*Policy, error) {
	if defaultAccess != AccessPublic && defaultAccess != AccessProtected {
		return nil, fmt.Errorf("unknown default access %q", defaultAccess)
	}
	for _, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") || !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("invalid route pattern %q", r.Pattern)
		}
		if r.Access != AccessPublic && r.Access != AccessProtected {
			return nil, fmt.Errorf("unknown access %q for pattern %q", r.Access, r.Pattern)
		}
	}
	return &Policy{rules: append([]Rule(nil), rules...), defaultAccess: defaultAccess}, nil
}

// Classify returns the access level for a request path.
func (p *Policy) Classify(requestPath string) Access {
	clean := path.Clean("/" + requestPath)
	for _, r := range p.rules {
		if ok, _ := doublestar.Match(r.Pattern, clean); ok {
			return r.Access
		}
	}
	return p.defaultAccess
}

// DefaultAccess reports what unmatched paths resolve to.
func (p *Policy) DefaultAccess() Access {
	return p.defaultAccess
}

// Gate rejects anonymous requests to protected paths with 401 before any handler runs.
// It must be installed after Authenticate.
func Gate(policy *Policy, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if policy.Classify(c.Request.URL.Path) == AccessPublic {
			c.Next()
			return
		}
		if _, ok := CurrentPrincipal(c); !ok {
			logger.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).Debug("unauthenticated request to protected route")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
