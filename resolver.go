package awl

import (
	"context"
	"fmt"
	"iter"
)

// Resolver is implemented by *Kernel and *Context. Resolving through a
// Context attaches the request to it as a dependency.
type Resolver interface {
	Resolve(ctx context.Context, req *Request) *Iterator
	CanResolve(ctx context.Context, req *Request) bool
}

type RequestOption func(*Request)

func WithName(name string) RequestOption {
	return Where(NamedConstraint(name))
}

// Where adds a constraint on binding metadata. Constraints accumulate.
func Where(constraint func(BindingMetadata) bool) RequestOption {
	return func(req *Request) {
		prev := req.Constraint
		if prev == nil {
			req.Constraint = constraint
			return
		}
		req.Constraint = func(m BindingMetadata) bool {
			return prev(m) && constraint(m)
		}
	}
}

func With(params ...Parameter) RequestOption {
	return func(req *Request) {
		req.Parameters = append(req.Parameters, params...)
	}
}

func newServiceRequest(service Service, m Multiplicity, opts []RequestOption) *Request {
	req := NewRequest(service, m)
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// Get resolves exactly one instance of T.
func Get[T any](ctx context.Context, r Resolver, opts ...RequestOption) (T, error) {
	var zero T
	v, err := GetService(ctx, r, TypeOf[T](), opts...)
	if err != nil {
		return zero, err
	}
	return cast[T](v)
}

func MustGet[T any](ctx context.Context, r Resolver, opts ...RequestOption) T {
	v, err := Get[T](ctx, r, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// GetService resolves exactly one instance of service. Use it for generic
// services, which have no Go type to name.
func GetService(ctx context.Context, r Resolver, service Service, opts ...RequestOption) (any, error) {
	req := newServiceRequest(service, ExactlyOne, opts)
	v, _, err := single(ctx, r, req)
	return v, err
}

// TryGet resolves at most one instance of T. It reports false when nothing
// matches, when several bindings match, or when activation fails.
func TryGet[T any](ctx context.Context, r Resolver, opts ...RequestOption) (T, bool) {
	v, ok, err := TryGetStrict[T](ctx, r, opts...)
	return v, ok && err == nil
}

// TryGetStrict is TryGet that reports ambiguity and activation failures as
// errors. Only an absent binding yields false without an error.
func TryGetStrict[T any](ctx context.Context, r Resolver, opts ...RequestOption) (T, bool, error) {
	var zero T
	req := newServiceRequest(TypeOf[T](), AtMostOne, opts)
	v, ok, err := single(ctx, r, req)
	if err != nil || !ok {
		return zero, false, err
	}
	typed, err := cast[T](v)
	if err != nil {
		return zero, false, err
	}
	return typed, true, nil
}

// GetAll resolves every instance of T in registration order.
func GetAll[T any](ctx context.Context, r Resolver, opts ...RequestOption) ([]T, error) {
	var all []T
	for v, err := range Seq[T](ctx, r, opts...) {
		if err != nil {
			return nil, err
		}
		all = append(all, v)
	}
	return all, nil
}

// Seq lazily resolves every instance of T. Breaking out of the loop leaves
// the remaining bindings unactivated.
func Seq[T any](ctx context.Context, r Resolver, opts ...RequestOption) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		req := newServiceRequest(TypeOf[T](), Any, opts)
		for v, err := range r.Resolve(ctx, req).All() {
			if err != nil {
				yield(zero, err)
				return
			}
			typed, err := cast[T](v)
			if !yield(typed, err) || err != nil {
				return
			}
		}
	}
}

func CanResolve[T any](ctx context.Context, r Resolver, opts ...RequestOption) bool {
	return r.CanResolve(ctx, newServiceRequest(TypeOf[T](), ExactlyOne, opts))
}

// single pulls the only element of a unique request, advancing once more to
// surface ambiguity.
func single(ctx context.Context, r Resolver, req *Request) (any, bool, error) {
	it := r.Resolve(ctx, req)
	defer it.Close()

	if !it.Next() {
		return nil, false, it.Err()
	}
	v := it.Value()
	if it.Next() {
		return nil, false, errAmbiguousMatch(req, it.Len())
	}
	if err := it.Err(); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func cast[T any](v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, errActivation(TypeOf[T](), fmt.Sprintf("resolved %T is not assignable", v), nil)
	}
	return typed, nil
}
