package awl

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/danpasecinic/awl/internal/scope"
)

// Kernel resolves services from its bindings. Kernels are independent of
// each other and safe for concurrent use.
type Kernel struct {
	config   *kernelConfig
	registry *registry
	planner  *planner
	pipeline *Pipeline
	scopes   *scope.Table
	logger   *slog.Logger
	closed   atomic.Bool
}

type kernelConfig struct {
	logger       *slog.Logger
	conventions  Conventions
	lifecycle    Lifecycle
	strategies   []Strategy
	selfBinding  bool
	onResolve    []ResolveHook
	onActivate   []ActivateHook
	onDeactivate []DeactivateHook
}

func New(opts ...Option) *Kernel {
	cfg := &kernelConfig{
		logger:      slog.Default(),
		lifecycle:   DefaultLifecycle{},
		selfBinding: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.conventions == nil {
		cfg.conventions = NewTagConventions()
	}

	strategies := append(DefaultStrategies(cfg.lifecycle), cfg.strategies...)

	return &Kernel{
		config:   cfg,
		registry: newRegistry(cfg.selfBinding),
		planner:  &planner{conventions: cfg.conventions},
		pipeline: &Pipeline{
			strategies:   strategies,
			logger:       cfg.logger,
			onActivate:   cfg.onActivate,
			onDeactivate: cfg.onDeactivate,
		},
		scopes: scope.NewTable(),
		logger: cfg.logger,
	}
}

// Add registers bindings. Either all of them are added or none is.
func (k *Kernel) Add(bindings ...*Binding) error {
	if k.closed.Load() {
		return errKernelClosed()
	}

	for _, b := range bindings {
		if err := b.validate(); err != nil {
			return err
		}
	}
	for i, b := range bindings {
		if !b.frozen.CompareAndSwap(false, true) {
			for _, prev := range bindings[:i] {
				prev.frozen.Store(false)
			}
			return errInvalidBinding(b.service, "binding is already registered")
		}
	}

	k.registry.add(bindings...)
	for _, b := range bindings {
		k.logger.Debug("binding added", "service", b.service.String(), "binding", b.id, "provider", b.provider.Kind.String())
	}
	return nil
}

// Unbind removes every binding of service and returns how many there were.
// Instances already cached stay alive until their scope is released.
func (k *Kernel) Unbind(service Service) int {
	return len(k.registry.remove(service))
}

// RemoveBinding removes b and reports whether it was registered.
func (k *Kernel) RemoveBinding(b *Binding) bool {
	return k.registry.removeBinding(b)
}

// Bindings returns the registered bindings in registration order.
func (k *Kernel) Bindings() []*Binding {
	return k.registry.all()
}

func (k *Kernel) Size() int {
	return k.registry.size()
}

func (k *Kernel) Pipeline() *Pipeline {
	return k.pipeline
}

func (k *Kernel) Logger() *slog.Logger {
	return k.logger
}

// activate produces the instance of b for req, going through the scope cache
// when the binding has a scope owner.
func (k *Kernel) activate(ctx context.Context, p *pass, req *Request, b *Binding) (any, error) {
	c := newContext(ctx, k, p, req, b)

	owner, err := c.Scope()
	if err != nil {
		return nil, err
	}

	key := c.cacheKey()
	var cache *scope.Cache
	if owner != nil {
		cache, err = k.scopes.GetOrCreate(owner)
		if err != nil {
			return nil, errActivation(req.Service, "invalid scope owner", err)
		}
		if e, ok := cache.Lookup(key); ok {
			k.logger.Debug("scope cache hit", c.logAttrs()...)
			return e.Instance, nil
		}
	}

	if ok, cycle := p.stack.Push(key, req.Service.String()); !ok {
		return nil, errCyclicDependency(req.Service, cycle)
	}
	defer p.stack.Pop()

	if cache == nil {
		return k.pipeline.Activate(c)
	}

	waiter := scope.Waiter{ID: p.id, Label: req.Service.String()}
	e, _, err := cache.GetOrCreate(
		key, waiter, func() (any, any, error) {
			instance, err := k.pipeline.Activate(c)
			return instance, entryData{binding: b, service: req.Service}, err
		},
	)
	if err != nil {
		var cycle *scope.CycleError
		if errors.As(err, &cycle) {
			return nil, errCyclicDependency(req.Service, cycle.Chain)
		}
		return nil, err
	}
	return e.Instance, nil
}

// entryData is what teardown needs to rebuild a context for a cached
// instance. It must not reference the scope owner.
type entryData struct {
	binding *Binding
	service Service
}
