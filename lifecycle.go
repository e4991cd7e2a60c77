package awl

import (
	"context"
	"io"
)

// Initializer is called once after an instance is constructed and injected.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Deactivator is called once before an instance is disposed.
type Deactivator interface {
	Deactivate(ctx context.Context) error
}

type Disposer interface {
	Dispose(ctx context.Context) error
}

// Lifecycle invokes the hooks an instance exposes. The kernel guarantees
// ordering and at-most-once calls per pass; the lifecycle decides what a hook
// is.
type Lifecycle interface {
	Activate(c *Context, instance any) error
	Deactivate(c *Context, instance any) error
	Dispose(ctx context.Context, instance any) error
}

// DefaultLifecycle runs binding OnActivation hooks then Initializer, and
// Deactivator then binding OnDeactivation hooks. Disposal uses Disposer,
// falling back to io.Closer.
type DefaultLifecycle struct{}

func (DefaultLifecycle) Activate(c *Context, instance any) error {
	for _, hook := range c.binding.onActivation {
		if err := hook(c, instance); err != nil {
			return err
		}
	}
	if i, ok := instance.(Initializer); ok {
		return i.Initialize(c.Context())
	}
	return nil
}

func (DefaultLifecycle) Deactivate(c *Context, instance any) error {
	if d, ok := instance.(Deactivator); ok {
		if err := d.Deactivate(c.Context()); err != nil {
			return err
		}
	}
	for _, hook := range c.binding.onDeactivation {
		if err := hook(c, instance); err != nil {
			return err
		}
	}
	return nil
}

func (DefaultLifecycle) Dispose(ctx context.Context, instance any) error {
	switch d := instance.(type) {
	case Disposer:
		return d.Dispose(ctx)
	case io.Closer:
		return d.Close()
	default:
		return nil
	}
}
