package awl

import (
	"context"

	"go.uber.org/multierr"

	"github.com/danpasecinic/awl/internal/scope"
)

// Release deactivates instance and removes it from its scope cache. It
// reports false when no scope holds the instance, which is always the case
// for transient instances.
func (k *Kernel) Release(ctx context.Context, instance any) (bool, error) {
	for _, cache := range k.scopes.Caches() {
		if e, ok := cache.Remove(instance); ok {
			return true, k.deactivate(ctx, []*scope.Entry{e})
		}
	}
	return false, nil
}

// ReleaseScope deactivates every instance owned by owner, newest first, and
// forgets the owner.
func (k *Kernel) ReleaseScope(ctx context.Context, owner any) error {
	cache, ok := k.scopes.Remove(owner)
	if !ok {
		return nil
	}
	return k.deactivate(ctx, cache.Drain())
}

// ReleaseScopeWhenDone releases owner once ctx is done and returns a stop
// function that cancels the release. Owners referenced by their own cached
// instances are never evicted by the collector, so their scope has to be
// ended this way or with ReleaseScope.
func (k *Kernel) ReleaseScopeWhenDone(ctx context.Context, owner any) (stop func() bool) {
	return context.AfterFunc(
		ctx, func() {
			if err := k.ReleaseScope(context.WithoutCancel(ctx), owner); err != nil {
				k.logger.Warn("scope release failed", "error", err)
			}
		},
	)
}

// EndRequest releases the request scope carried by ctx.
func (k *Kernel) EndRequest(ctx context.Context) error {
	rs, ok := RequestScopeFrom(ctx)
	if !ok {
		return newError(ErrCodeScopeNotFound, "no request scope in context", nil)
	}
	return k.ReleaseScope(ctx, rs)
}

// Close deactivates every cached instance in reverse activation order and
// rejects further use of the kernel. Failures do not stop the teardown; they
// are returned together.
func (k *Kernel) Close(ctx context.Context) error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}

	var entries []*scope.Entry
	for _, cache := range k.scopes.Caches() {
		entries = append(entries, cache.Drain()...)
	}
	scope.SortNewestFirst(entries)

	k.logger.Debug("closing kernel", "instances", len(entries))
	return k.deactivate(ctx, entries)
}

func (k *Kernel) IsClosed() bool {
	return k.closed.Load()
}

func (k *Kernel) deactivate(ctx context.Context, entries []*scope.Entry) error {
	ctx, p, owned := k.joinPass(ctx)
	if owned {
		defer p.clear()
	}

	var errs error
	for _, e := range entries {
		data, ok := e.Data.(entryData)
		if !ok {
			continue
		}
		c := newContext(ctx, k, p, NewRequest(data.service, ExactlyOne), data.binding)
		errs = multierr.Append(errs, k.pipeline.Deactivate(c, e.Instance))
	}
	return errs
}
