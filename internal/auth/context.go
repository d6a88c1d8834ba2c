package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"household-tracker/internal/domain"
)

// ginBindingKey is the gin.Context key holding the request's *Binding.
const ginBindingKey = "auth.binding"

type bindingCtxKey struct{}

// Binding is the single principal slot of one inbound request.
// A Binding is created per request and never shared, so it needs no locking.
type Binding struct {
	principal *domain.Principal
}

// Set stores p for the rest of the request, replacing any earlier value.
func (b *Binding) Set(p domain.Principal) {
	p.Roles = append([]string(nil), p.Roles...)
	b.principal = &p
}

// Current returns the stored principal. Unset slots and the anonymous principal (id 0) report false.
func (b *Binding) Current() (domain.Principal, bool) {
	if b == nil || b.principal == nil || b.principal.ID <= 0 {
		return domain.Principal{}, false
	}
	p := *b.principal
	p.Roles = append([]string(nil), p.Roles...)
	return p, true
}

// Clear empties the slot.
func (b *Binding) Clear() {
	if b != nil {
		b.principal = nil
	}
}

// WithBinding returns a copy of ctx carrying b.
func WithBinding(ctx context.Context, b *Binding) context.Context {
	return context.WithValue(ctx, bindingCtxKey{}, b)
}

// BindingFrom returns the binding installed for the request that ctx belongs to.
// ctx may be a *gin.Context or any context derived from the request context.
func BindingFrom(ctx context.Context) *Binding {
	if c, ok := ctx.(*gin.Context); ok {
		if v, exists := c.Get(ginBindingKey); exists {
			if b, ok := v.(*Binding); ok {
				return b
			}
		}
		if c.Request == nil {
			return nil
		}
		ctx = c.Request.Context()
	}
	b, _ := ctx.Value(bindingCtxKey{}).(*Binding)
	return b
}

// CurrentPrincipal returns the authenticated caller, if any.
func CurrentPrincipal(ctx context.Context) (domain.Principal, bool) {
	return BindingFrom(ctx).Current()
}

// CurrentUserID returns the authenticated caller's user id.
func CurrentUserID(ctx context.Context) (int64, bool) {
	p, ok := CurrentPrincipal(ctx)
	if !ok {
		return 0, false
	}
	return p.ID, true
}

func installBinding(c *gin.Context) *Binding {
	b := &Binding{}
	c.Set(ginBindingKey, b)
	c.Request = c.Request.WithContext(WithBinding(c.Request.Context(), b))
	return b
}
