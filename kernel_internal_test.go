package awl

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gadget struct{ serial int }

type failingStrategy struct {
	err error
}

func (s failingStrategy) Activate(*Context, *Reference) error   { return s.err }
func (s failingStrategy) Deactivate(*Context, *Reference) error { return nil }

func TestPipeline_InstanceRecordedWhenLaterStrategyFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("post-processing failed")
	k := New(WithStrategies(failingStrategy{err: boom}))
	b := NewBinding(TypeOf[*gadget](), To[*gadget]())
	require.NoError(t, k.Add(b))

	ctx, p, owned := k.joinPass(context.Background())
	require.True(t, owned)

	c := newContext(ctx, k, p, NewRequest(b.service, ExactlyOne), b)
	instance, err := k.pipeline.Activate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsActivation(err))

	require.NotNil(t, instance)
	assert.True(t, p.cache.IsActivated(instance))

	p.clear()
	assert.False(t, p.cache.IsActivated(instance))
}

func TestPipeline_DeactivateOncePerPass(t *testing.T) {
	t.Parallel()

	calls := 0
	k := New()
	b := NewBinding(
		TypeOf[*gadget](), To[*gadget](), OnDeactivation(
			func(*Context, any) error {
				calls++
				return nil
			},
		),
	)
	require.NoError(t, k.Add(b))

	ctx, p, _ := k.joinPass(context.Background())
	c := newContext(ctx, k, p, NewRequest(b.service, ExactlyOne), b)
	g := &gadget{serial: 1}

	require.NoError(t, k.pipeline.Deactivate(c, g))
	require.NoError(t, k.pipeline.Deactivate(c, g))
	assert.Equal(t, 1, calls)
	assert.True(t, p.cache.IsDeactivated(g))
}

func TestJoinPass(t *testing.T) {
	t.Parallel()

	k := New()
	ctx, p, owned := k.joinPass(context.Background())
	require.True(t, owned)

	_, joined, owned := k.joinPass(ctx)
	assert.Same(t, p, joined)
	assert.False(t, owned)

	other := New()
	_, foreign, owned := other.joinPass(ctx)
	assert.NotSame(t, p, foreign, "passes never cross kernels")
	assert.True(t, owned)
}

type scopeOwnerKey struct{}

type tenant struct{ name string }

func TestScopeCache_EvictedWithOwner(t *testing.T) {
	t.Parallel()

	k := New()
	b := NewBinding(
		TypeOf[*gadget](), To[*gadget](), InScope(
			func(c *Context) (any, error) {
				return c.Context().Value(scopeOwnerKey{}), nil
			},
		),
	)
	require.NoError(t, k.Add(b))

	func() {
		owner := &tenant{name: "short-lived"}
		ctx := context.WithValue(context.Background(), scopeOwnerKey{}, owner)

		g1, err := Get[*gadget](ctx, k)
		require.NoError(t, err)
		g2, err := Get[*gadget](ctx, k)
		require.NoError(t, err)
		assert.Same(t, g1, g2)
		assert.Equal(t, 1, k.scopes.Len())
	}()

	require.Eventually(
		t, func() bool {
			runtime.GC()
			return k.scopes.Evicted() == 1
		}, 5*time.Second, 10*time.Millisecond,
	)
	assert.Zero(t, k.scopes.Len())
}

type tenantBound struct{ owner *tenant }

func TestScopeCache_OwnerReferencedByInstanceStaysUntilReleased(t *testing.T) {
	t.Parallel()

	k := New()
	_, err := BindFactory(
		k, func(c *Context) (*tenantBound, error) {
			return &tenantBound{owner: c.Context().Value(scopeOwnerKey{}).(*tenant)}, nil
		}, InScope(
			func(c *Context) (any, error) {
				return c.Context().Value(scopeOwnerKey{}), nil
			},
		),
	)
	require.NoError(t, err)

	owner := func() weak.Pointer[tenant] {
		o := &tenant{name: "self-referenced"}
		ctx := context.WithValue(context.Background(), scopeOwnerKey{}, o)
		_, err := Get[*tenantBound](ctx, k)
		require.NoError(t, err)
		return weak.Make(o)
	}()

	for range 5 {
		runtime.GC()
	}
	require.NotNil(t, owner.Value(), "the cached instance keeps its owner reachable")
	assert.Equal(t, 1, k.scopes.Len())
	assert.Zero(t, k.scopes.Evicted())

	require.NoError(t, k.ReleaseScope(context.Background(), owner.Value()))
	assert.Zero(t, k.scopes.Len())

	require.Eventually(
		t, func() bool {
			runtime.GC()
			return owner.Value() == nil
		}, 5*time.Second, 10*time.Millisecond,
	)
}

func TestFilterBindings_ConditionalPreference(t *testing.T) {
	t.Parallel()

	plain := NewBinding(TypeOf[*gadget](), To[*gadget]())
	conditional := NewBinding(TypeOf[*gadget](), To[*gadget](), When(func(*Request) bool { return true }))
	rejected := NewBinding(TypeOf[*gadget](), To[*gadget](), When(func(*Request) bool { return false }))
	all := []*Binding{plain, conditional, rejected}

	unique := filterBindings(NewRequest(TypeOf[*gadget](), ExactlyOne), all)
	assert.Equal(t, []*Binding{conditional}, unique)

	every := filterBindings(NewRequest(TypeOf[*gadget](), Any), all)
	assert.Equal(t, []*Binding{plain, conditional}, every)
}

func TestMergeParameters(t *testing.T) {
	t.Parallel()

	request := []Parameter{Arg("x", 1)}
	binding := []Parameter{Arg("x", 2), Arg("y", 3)}
	inherited := []Parameter{Inherited(Arg("y", 4)), Inherited(Property("Z", 5))}

	merged := mergeParameters(request, binding, inherited)
	require.Len(t, merged, 3)

	values := make(map[string]any)
	for _, p := range merged {
		v, err := p.Value(nil, nil)
		require.NoError(t, err)
		values[p.Key()] = v
	}
	assert.Equal(t, map[string]any{"argument:x": 1, "argument:y": 3, "property:Z": 5}, values)

	assert.Len(t, inheritedOnly(merged), 1)
}

func TestParameter_AppliesTo(t *testing.T) {
	t.Parallel()

	param := &Target{Kind: TargetParameter, Name: "x", Type: TypeOf[int]().Type()}
	field := &Target{Kind: TargetField, Name: "x", Type: TypeOf[int]().Type()}

	assert.True(t, Arg("x", 1).AppliesTo(param))
	assert.False(t, Arg("x", 1).AppliesTo(field))
	assert.True(t, Property("x", 1).AppliesTo(field))
	assert.False(t, Property("x", 1).AppliesTo(param))
	assert.True(t, ArgOf(1).AppliesTo(param))
	assert.False(t, ArgOf("1").AppliesTo(param))
	assert.False(t, Value("x", 1).AppliesTo(param))
}

func TestMultiplicity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m        Multiplicity
		optional bool
		unique   bool
		name     string
	}{
		{ExactlyOne, false, true, "exactly-one"},
		{AtMostOne, true, true, "at-most-one"},
		{Any, true, false, "any"},
		{AtLeastOne, false, false, "at-least-one"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.optional, tt.m.IsOptional(), tt.name)
		assert.Equal(t, tt.unique, tt.m.IsUnique(), tt.name)
		assert.Equal(t, tt.name, tt.m.String())
	}
}

func TestRequest_Path(t *testing.T) {
	t.Parallel()

	root := NewRequest(TypeOf[*gadget](), ExactlyOne)
	child := root.child(TypeOf[*tenant](), nil, &Target{Named: "primary", Optional: true})

	assert.Equal(t, []string{"*awl.gadget", "*awl.tenant"}, child.path())
	assert.Equal(t, AtMostOne, child.Multiplicity)
	assert.Equal(t, 1, child.Depth)
	require.NotNil(t, child.Constraint)
	assert.True(t, child.Constraint(BindingMetadata{Name: "primary"}))
	assert.False(t, child.Constraint(BindingMetadata{Name: "replica"}))
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := errActivation(TypeOf[*gadget](), "activation failed", errors.New("boom"))
	assert.Equal(t, `[ACTIVATION_FAILED] service="*awl.gadget": activation failed: boom`, err.Error())
	assert.Equal(t, "UNKNOWN(99)", ErrorCode(99).String())
	assert.True(t, errors.Is(err, ErrActivation))
	assert.False(t, errors.Is(err, ErrDeactivation))
}
