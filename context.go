package awl

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/danpasecinic/awl/internal/activation"
)

type passKey struct{}

// pass is the state shared by one top-level resolution and everything it
// triggers recursively.
type pass struct {
	id     string
	kernel *Kernel
	cache  *activation.Cache
	stack  *activation.Stack
}

func newPass(k *Kernel) *pass {
	return &pass{
		id:     uuid.NewString(),
		kernel: k,
		cache:  activation.NewCache(),
		stack:  activation.NewStack(),
	}
}

func (p *pass) clear() {
	p.cache.Clear()
}

// joinPass returns the pass carried by ctx or opens a new one. owned is true
// when the caller opened it and must clear it.
func (k *Kernel) joinPass(ctx context.Context) (context.Context, *pass, bool) {
	if p, ok := ctx.Value(passKey{}).(*pass); ok && p.kernel == k {
		return ctx, p, false
	}
	p := newPass(k)
	return context.WithValue(ctx, passKey{}, p), p, true
}

// DetachPass returns ctx without the activation pass it carries, so a
// resolution made with it opens its own pass. Request scopes and other values
// of ctx are kept.
func DetachPass(ctx context.Context) context.Context {
	return context.WithValue(ctx, passKey{}, nil)
}

// Context is the resolution unit for one request and one candidate binding.
type Context struct {
	kernel      *Kernel
	request     *Request
	binding     *Binding
	genericArgs []Service
	params      []Parameter
	ctx         context.Context
	pass        *pass

	planOnce sync.Once
	plan     *Plan
	planErr  error
}

func newContext(ctx context.Context, k *Kernel, p *pass, req *Request, b *Binding) *Context {
	var inherited []Parameter
	if req.ParentContext != nil {
		inherited = inheritedOnly(req.ParentContext.params)
	}

	c := &Context{
		kernel:  k,
		request: req,
		binding: b,
		params:  mergeParameters(req.Parameters, b.params, inherited),
		ctx:     ctx,
		pass:    p,
	}
	if b.service.IsGeneric() {
		c.genericArgs = req.Service.Arguments()
	}
	return c
}

func (c *Context) Kernel() *Kernel   { return c.kernel }
func (c *Context) Request() *Request { return c.request }
func (c *Context) Binding() *Binding { return c.binding }

// Service is the closed service being activated.
func (c *Context) Service() Service { return c.request.Service }

// Context is the context.Context of the current pass. Pass it to nested
// resolutions so they share activation state with this one. A pass belongs to
// one goroutine: a factory that resolves from several goroutines must give
// each of them a fresh context (see DetachPass) instead of this one.
func (c *Context) Context() context.Context { return c.ctx }

// GenericArguments are the type arguments inferred from the request when the
// binding is an open generic.
func (c *Context) GenericArguments() []Service {
	return append([]Service(nil), c.genericArgs...)
}

// Parameters are the effective parameters: request overrides first, then the
// binding's, then those inherited from the parent context.
func (c *Context) Parameters() []Parameter {
	return append([]Parameter(nil), c.params...)
}

// Parameter returns the factory value registered under name.
func (c *Context) Parameter(name string) (any, bool) {
	for _, p := range c.params {
		if p.Kind == FactoryValue && p.Name == name {
			v, err := p.Value(c, nil)
			return v, err == nil
		}
	}
	return nil, false
}

// Plan returns the activation plan, computing it on first use.
func (c *Context) Plan() (*Plan, error) {
	c.planOnce.Do(
		func() {
			c.plan, c.planErr = c.kernel.planner.plan(c)
		},
	)
	return c.plan, c.planErr
}

// Scope returns the scope owner, or nil when instances are not cached.
func (c *Context) Scope() (any, error) {
	return c.binding.scope(c)
}

// Resolve resolves req as a dependency of this context. Requests without a
// parent are attached to c so they see its inherited parameters.
func (c *Context) Resolve(ctx context.Context, req *Request) *Iterator {
	c.adopt(req)
	return c.kernel.Resolve(ctx, req)
}

func (c *Context) CanResolve(ctx context.Context, req *Request) bool {
	c.adopt(req)
	return c.kernel.CanResolve(ctx, req)
}

func (c *Context) adopt(req *Request) {
	if req.ParentContext != nil {
		return
	}
	req.ParentContext = c
	req.ParentRequest = c.request
	req.Depth = c.request.Depth + 1
}

// cacheKey identifies the context's instance within a scope cache.
func (c *Context) cacheKey() string {
	return strconv.FormatUint(c.binding.id, 10) + "|" + c.request.Service.Key()
}

func (c *Context) logAttrs() []any {
	return []any{"service", c.request.Service.String(), "binding", c.binding.id, "pass", c.pass.id}
}
