package awl

import (
	"context"

	"github.com/google/uuid"

	"github.com/danpasecinic/awl/internal/scope"
)

// ScopeFunc returns the object owning instances of a context. Instances are
// cached per owner; a nil owner means a new instance on every resolution.
type ScopeFunc func(c *Context) (any, error)

type ScopeKind = scope.Kind

const (
	ScopeTransient = scope.Transient
	ScopeSingleton = scope.Singleton
	ScopeRequest   = scope.Request
	ScopeCustom    = scope.Custom
)

// Singleton scopes instances to the kernel.
func Singleton(c *Context) (any, error) {
	return c.Kernel(), nil
}

func Transient(*Context) (any, error) {
	return nil, nil
}

// PerRequest scopes instances to the RequestScope carried by the context.
func PerRequest(c *Context) (any, error) {
	rs, ok := RequestScopeFrom(c.Context())
	if !ok {
		return nil, errScopeNotFound(c.Service(), "no request scope in context; use WithRequestScope")
	}
	return rs, nil
}

type requestScopeKey struct{}

// RequestScope owns the instances of request-scoped bindings for one unit of
// work. End it with Kernel.EndRequest or Kernel.ReleaseScope.
type RequestScope struct {
	id string
}

func (rs *RequestScope) ID() string {
	return rs.id
}

func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, &RequestScope{id: uuid.NewString()})
}

func RequestScopeFrom(ctx context.Context) (*RequestScope, bool) {
	rs, ok := ctx.Value(requestScopeKey{}).(*RequestScope)
	return rs, ok
}
