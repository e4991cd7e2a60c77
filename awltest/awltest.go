// Package awltest provides helpers for tests that build an awl kernel.
package awltest

import (
	"context"

	"github.com/danpasecinic/awl"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Cleanup(f func())
}

// TestKernel is a kernel closed automatically when the test ends.
type TestKernel struct {
	*awl.Kernel
	tb TB
}

func New(tb TB, opts ...awl.Option) *TestKernel {
	tb.Helper()

	k := awl.New(opts...)
	tk := &TestKernel{
		Kernel: k,
		tb:     tb,
	}

	tb.Cleanup(
		func() {
			if err := k.Close(context.Background()); err != nil {
				tb.Fatalf("failed to close kernel: %v", err)
			}
		},
	)

	return tk
}

func (tk *TestKernel) RequireValidate() {
	tk.tb.Helper()

	if err := tk.Validate(); err != nil {
		tk.tb.Fatalf("kernel validation failed: %v", err)
	}
}

func (tk *TestKernel) RequireWarmup(ctx context.Context) {
	tk.tb.Helper()

	if err := tk.Warmup(ctx); err != nil {
		tk.tb.Fatalf("kernel warmup failed: %v", err)
	}
}

func (tk *TestKernel) RequireClose(ctx context.Context) {
	tk.tb.Helper()

	if err := tk.Close(ctx); err != nil {
		tk.tb.Fatalf("failed to close kernel: %v", err)
	}
}

// Replace swaps every binding of T for the constant value.
func Replace[T any](tk *TestKernel, value T) {
	tk.tb.Helper()

	if _, err := awl.RebindConstant(tk.Kernel, value); err != nil {
		tk.tb.Fatalf("failed to replace %s: %v", awl.TypeOf[T](), err)
	}
}

// ReplaceNamed swaps the bindings of T registered under name for the
// constant value. Other bindings of T are kept.
func ReplaceNamed[T any](tk *TestKernel, name string, value T) {
	tk.tb.Helper()

	removeNamed[T](tk, name)
	if _, err := awl.BindConstant(tk.Kernel, value, awl.Named(name)); err != nil {
		tk.tb.Fatalf("failed to replace %s#%s: %v", awl.TypeOf[T](), name, err)
	}
}

// ReplaceFactory swaps every binding of T for fn, keeping the transient
// default.
func ReplaceFactory[T any](tk *TestKernel, fn func(c *awl.Context) (T, error)) {
	tk.tb.Helper()

	p := awl.ToFactory(
		func(c *awl.Context) (any, error) {
			return fn(c)
		},
	)
	if _, err := awl.Rebind[T](tk.Kernel, p); err != nil {
		tk.tb.Fatalf("failed to replace factory %s: %v", awl.TypeOf[T](), err)
	}
}

func removeNamed[T any](tk *TestKernel, name string) {
	key := awl.TypeOf[T]().Key()
	for _, b := range tk.Bindings() {
		if b.Service().Key() == key && b.Name() == name {
			tk.RemoveBinding(b)
		}
	}
}

func bound[T any](tk *TestKernel, name string) bool {
	key := awl.TypeOf[T]().Key()
	for _, b := range tk.Bindings() {
		if b.Service().Key() == key && (name == "" || b.Name() == name) {
			return true
		}
	}
	return false
}

// AssertBound fails unless T has an explicit binding.
func AssertBound[T any](tk *TestKernel) {
	tk.tb.Helper()

	if !bound[T](tk, "") {
		tk.tb.Fatalf("expected kernel to bind %s", awl.TypeOf[T]())
	}
}

func AssertBoundNamed[T any](tk *TestKernel, name string) {
	tk.tb.Helper()

	if !bound[T](tk, name) {
		tk.tb.Fatalf("expected kernel to bind %s#%s", awl.TypeOf[T](), name)
	}
}

func AssertNotBound[T any](tk *TestKernel) {
	tk.tb.Helper()

	if bound[T](tk, "") {
		tk.tb.Fatalf("expected kernel to not bind %s", awl.TypeOf[T]())
	}
}

func MustGet[T any](tk *TestKernel, opts ...awl.RequestOption) T {
	tk.tb.Helper()

	v, err := awl.Get[T](context.Background(), tk.Kernel, opts...)
	if err != nil {
		tk.tb.Fatalf("failed to resolve %s: %v", awl.TypeOf[T](), err)
	}
	return v
}

func MustGetNamed[T any](tk *TestKernel, name string) T {
	tk.tb.Helper()

	v, err := awl.Get[T](context.Background(), tk.Kernel, awl.WithName(name))
	if err != nil {
		tk.tb.Fatalf("failed to resolve %s#%s: %v", awl.TypeOf[T](), name, err)
	}
	return v
}

func MustGetAll[T any](tk *TestKernel, opts ...awl.RequestOption) []T {
	tk.tb.Helper()

	all, err := awl.GetAll[T](context.Background(), tk.Kernel, opts...)
	if err != nil {
		tk.tb.Fatalf("failed to resolve all %s: %v", awl.TypeOf[T](), err)
	}
	return all
}

func MustBind[T any](tk *TestKernel, p awl.Provider, opts ...awl.BindingOption) *awl.Binding {
	tk.tb.Helper()

	b, err := awl.Bind[T](tk.Kernel, p, opts...)
	if err != nil {
		tk.tb.Fatalf("failed to bind %s: %v", awl.TypeOf[T](), err)
	}
	return b
}

func MustBindConstant[T any](tk *TestKernel, value T, opts ...awl.BindingOption) *awl.Binding {
	tk.tb.Helper()

	b, err := awl.BindConstant(tk.Kernel, value, opts...)
	if err != nil {
		tk.tb.Fatalf("failed to bind constant %s: %v", awl.TypeOf[T](), err)
	}
	return b
}

func MustBindFactory[T any](
	tk *TestKernel,
	fn func(c *awl.Context) (T, error),
	opts ...awl.BindingOption,
) *awl.Binding {
	tk.tb.Helper()

	b, err := awl.BindFactory(tk.Kernel, fn, opts...)
	if err != nil {
		tk.tb.Fatalf("failed to bind factory %s: %v", awl.TypeOf[T](), err)
	}
	return b
}
