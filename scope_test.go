package awl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/awl"
)

func TestScope_Singleton(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := awl.New()
	b := awl.MustBind[*Audit](k, awl.To[*Audit](), awl.InSingletonScope())
	assert.Equal(t, awl.ScopeSingleton, b.ScopeKind())

	a1, err := awl.Get[*Audit](ctx, k)
	require.NoError(t, err)
	a2, err := awl.Get[*Audit](ctx, k)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	other := awl.New()
	awl.MustBind[*Audit](other, awl.To[*Audit](), awl.InSingletonScope())
	a3, err := awl.Get[*Audit](ctx, other)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3, "singletons are per kernel")
}

func TestScope_TransientByDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	k := awl.New()
	b := awl.MustBind[*Audit](k, awl.To[*Audit]())
	assert.Equal(t, awl.ScopeTransient, b.ScopeKind())

	a1, err := awl.Get[*Audit](ctx, k)
	require.NoError(t, err)
	a2, err := awl.Get[*Audit](ctx, k)
	require.NoError(t, err)
	assert.NotSame(t, a1, a2)
}

func TestScope_ConstantsAreSingletons(t *testing.T) {
	t.Parallel()

	k := awl.New()
	b := awl.MustBind[*Audit](k, awl.ToConstant(&Audit{}))
	assert.Equal(t, awl.ScopeSingleton, b.ScopeKind())
	assert.Equal(t, "singleton", b.ScopeKind().String())
}

func TestScope_Request(t *testing.T) {
	t.Parallel()

	k := awl.New()
	awl.MustBind[*Audit](k, awl.To[*Audit](), awl.InRequestScope())

	_, err := awl.Get[*Audit](context.Background(), k)
	assert.True(t, awl.IsScopeNotFound(err))

	req1 := awl.WithRequestScope(context.Background())
	req2 := awl.WithRequestScope(context.Background())

	a1, err := awl.Get[*Audit](req1, k)
	require.NoError(t, err)
	a2, err := awl.Get[*Audit](req1, k)
	require.NoError(t, err)
	b1, err := awl.Get[*Audit](req2, k)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b1)

	rs1, ok := awl.RequestScopeFrom(req1)
	require.True(t, ok)
	rs2, _ := awl.RequestScopeFrom(req2)
	assert.NotEqual(t, rs1.ID(), rs2.ID())

	require.NoError(t, k.EndRequest(req1))
	a3, err := awl.Get[*Audit](req1, k)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3, "ending the request drops its instances")

	assert.True(t, awl.IsScopeNotFound(k.EndRequest(context.Background())))
}

type tenantKey struct{}

func tenantScope(c *awl.Context) (any, error) {
	return c.Context().Value(tenantKey{}), nil
}

func TestScope_Custom(t *testing.T) {
	t.Parallel()

	k := awl.New()
	b := awl.MustBind[*Audit](k, awl.To[*Audit](), awl.InScope(tenantScope))
	assert.Equal(t, awl.ScopeCustom, b.ScopeKind())

	acme := context.WithValue(context.Background(), tenantKey{}, "acme")
	globex := context.WithValue(context.Background(), tenantKey{}, "globex")

	a1, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)
	a2, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)
	g1, err := awl.Get[*Audit](globex, k)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, g1)

	require.NoError(t, k.ReleaseScope(context.Background(), "acme"))
	a3, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)

	g2, err := awl.Get[*Audit](globex, k)
	require.NoError(t, err)
	assert.Same(t, g1, g2, "other owners are untouched")

	n1, err := awl.Get[*Audit](context.Background(), k)
	require.NoError(t, err)
	n2, err := awl.Get[*Audit](context.Background(), k)
	require.NoError(t, err)
	assert.NotSame(t, n1, n2, "a nil owner behaves as transient")
}

func TestScope_InvalidOwner(t *testing.T) {
	t.Parallel()

	k := awl.New()
	awl.MustBind[*Audit](
		k, awl.To[*Audit](), awl.InScope(
			func(*awl.Context) (any, error) {
				return []string{"not", "comparable"}, nil
			},
		),
	)

	_, err := awl.Get[*Audit](context.Background(), k)
	assert.True(t, awl.IsActivation(err))
}

func TestScope_ConcurrentSingletonCreatedOnce(t *testing.T) {
	t.Parallel()

	k := awl.New()
	var created atomic.Int32
	_, err := awl.BindFactory(
		k, func(*awl.Context) (*Audit, error) {
			created.Add(1)
			time.Sleep(10 * time.Millisecond)
			return &Audit{sink: "shared"}, nil
		},
		awl.InSingletonScope(),
	)
	require.NoError(t, err)

	const workers = 32
	results := make([]*Audit, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = awl.Get[*Audit](context.Background(), k)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	for i := range workers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestScope_ConcurrentRequestScopes(t *testing.T) {
	t.Parallel()

	k := awl.New()
	awl.MustBind[*Audit](k, awl.To[*Audit](), awl.InRequestScope())

	const requests = 16
	var wg sync.WaitGroup
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := awl.WithRequestScope(context.Background())
			a1, err := awl.Get[*Audit](ctx, k)
			assert.NoError(t, err)
			a2, err := awl.Get[*Audit](ctx, k)
			assert.NoError(t, err)
			assert.Same(t, a1, a2)
			assert.NoError(t, k.EndRequest(ctx))
		}()
	}
	wg.Wait()
}

type ping struct{ pong *pong }

type pong struct{ ping *ping }

func TestScope_ConcurrentCyclicSingletonsFail(t *testing.T) {
	t.Parallel()

	k := awl.New()
	var arrived atomic.Int32
	both := make(chan struct{})
	arrive := func() {
		if arrived.Add(1) == 2 {
			close(both)
		}
		<-both
	}

	_, err := awl.BindFactory(
		k, func(c *awl.Context) (*ping, error) {
			arrive()
			p, err := awl.Get[*pong](c.Context(), k)
			if err != nil {
				return nil, err
			}
			return &ping{pong: p}, nil
		}, awl.InSingletonScope(),
	)
	require.NoError(t, err)
	_, err = awl.BindFactory(
		k, func(c *awl.Context) (*pong, error) {
			arrive()
			p, err := awl.Get[*ping](c.Context(), k)
			if err != nil {
				return nil, err
			}
			return &pong{ping: p}, nil
		}, awl.InSingletonScope(),
	)
	require.NoError(t, err)

	errs := make(chan error, 2)
	go func() {
		_, err := awl.Get[*ping](context.Background(), k)
		errs <- err
	}()
	go func() {
		_, err := awl.Get[*pong](context.Background(), k)
		errs <- err
	}()

	for range 2 {
		select {
		case err := <-errs:
			require.Error(t, err)
			assert.True(t, awl.IsCyclicDependency(err), err.Error())
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent resolution of cyclic singletons did not return")
		}
	}
}

func TestScope_ReleaseWhenDone(t *testing.T) {
	t.Parallel()

	k := awl.New()
	var released atomic.Int32
	awl.MustBind[*Audit](
		k, awl.To[*Audit](), awl.InScope(tenantScope), awl.OnDeactivation(
			func(*awl.Context, any) error {
				released.Add(1)
				return nil
			},
		),
	)

	acme := context.WithValue(context.Background(), tenantKey{}, "acme")
	a1, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)

	session, cancel := context.WithCancel(context.Background())
	k.ReleaseScopeWhenDone(session, "acme")

	stopped, stopCancel := context.WithCancel(context.Background())
	stop := k.ReleaseScopeWhenDone(stopped, "acme")
	assert.True(t, stop())
	stopCancel()

	a2, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	cancel()
	require.Eventually(
		t, func() bool {
			return released.Load() == 1
		}, 5*time.Second, 10*time.Millisecond,
	)

	a3, err := awl.Get[*Audit](acme, k)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)
}
