package awl

import (
	"context"
	"iter"
	"time"
)

// Resolve starts resolving req. Nothing is activated until the iterator is
// advanced, and each step activates one candidate binding. Resolutions made
// with a context handed out by the kernel join the pass of that context;
// others open a new pass that ends when the iterator is exhausted or closed.
func (k *Kernel) Resolve(ctx context.Context, req *Request) *Iterator {
	ctx, p, owned := k.joinPass(ctx)
	it := &Iterator{
		kernel: k,
		req:    req,
		ctx:    ctx,
		pass:   p,
		owned:  owned,
		start:  time.Now(),
	}

	if k.closed.Load() {
		it.err = errKernelClosed()
		return it
	}

	it.bindings = k.registry.candidates(req)
	if len(it.bindings) == 0 && !req.Multiplicity.IsOptional() {
		it.err = errNoMatchingBinding(req)
	}
	if owned {
		k.logger.Debug("pass started", "service", req.Service.String(), "pass", p.id, "candidates", len(it.bindings))
	}
	return it
}

// CanResolve reports whether resolving req would not fail outright. No
// instance is activated.
func (k *Kernel) CanResolve(_ context.Context, req *Request) bool {
	if k.closed.Load() {
		return false
	}
	return req.Multiplicity.IsOptional() || len(k.registry.candidates(req)) > 0
}

// Iterator is a lazy, single-pass sequence of resolved instances.
//
//	it := k.Resolve(ctx, req)
//	defer it.Close()
//	for it.Next() {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
type Iterator struct {
	kernel   *Kernel
	req      *Request
	ctx      context.Context
	pass     *pass
	owned    bool
	bindings []*Binding
	pos      int
	value    any
	err      error
	done     bool
	start    time.Time
}

// Next activates the next candidate. It returns false when the sequence is
// exhausted or an error occurred; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if it.err != nil || it.pos >= len(it.bindings) {
		it.finish()
		return false
	}
	if it.pos == 1 && it.req.Multiplicity.IsUnique() {
		it.err = errAmbiguousMatch(it.req, len(it.bindings))
		it.finish()
		return false
	}

	b := it.bindings[it.pos]
	it.pos++

	v, err := it.kernel.activate(it.ctx, it.pass, it.req, b)
	if err != nil {
		it.err = err
		it.value = nil
		it.finish()
		return false
	}
	it.value = v
	return true
}

func (it *Iterator) Value() any {
	return it.value
}

func (it *Iterator) Err() error {
	return it.err
}

// Len is the number of candidate bindings selected for the request.
func (it *Iterator) Len() int {
	return len(it.bindings)
}

// Close abandons the sequence. Remaining candidates are never activated.
func (it *Iterator) Close() {
	it.finish()
}

// All adapts the iterator to a range-over-func sequence. A failure is
// yielded as the last pair.
func (it *Iterator) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		defer it.Close()

		for it.Next() {
			if !yield(it.Value(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (it *Iterator) finish() {
	if it.done {
		return
	}
	it.done = true

	if it.owned {
		it.pass.clear()
		it.kernel.logger.Debug("pass ended", "service", it.req.Service.String(), "pass", it.pass.id)
	}
	for _, hook := range it.kernel.config.onResolve {
		hook(it.req.Service.String(), time.Since(it.start), it.err)
	}
}
