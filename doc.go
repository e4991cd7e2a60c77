// Package awl is a dependency injection kernel for Go 1.25+.
//
// A Kernel holds bindings from services to providers and resolves requests
// for services into instances, activating them through a pipeline of
// strategies and caching them per scope.
//
// # Quick Start
//
//	k := awl.New()
//
//	awl.BindConstant(k, &Config{Port: 8080})
//	awl.Bind[Store](k, awl.To[*PostgresStore](awl.Ctor(NewPostgresStore)), awl.InSingletonScope())
//
//	store, err := awl.Get[Store](ctx, k)
//	defer k.Close(ctx)
//
// # Services
//
// A Service is a Go type or a closed instance of a generic definition:
//
//	awl.TypeOf[*Config]()
//
//	var Repository = awl.NewGeneric("Repository", 1)
//	Repository.Of(awl.TypeOf[User]())
//
// # Providers
//
// A binding's provider decides how instances are made:
//
//	awl.To[*Impl](awl.Ctor(NewImpl))       // constructor chosen by the planner
//	awl.ToFactory(func(c *awl.Context) (any, error) { ... })
//	awl.ToConstant(value)                  // singleton by default
//	awl.ToProvider(external)
//
// When a type provider lists several constructors, the satisfiable one with
// the most parameters wins. Constructor arguments are resolved by type, or
// overridden by name with Arg or by type with ArgOf:
//
//	awl.Bind[*Impl](k, awl.To[*Impl](awl.Ctor(NewImpl, awl.Param{Name: "x"})))
//	v, err := awl.Get[*Impl](ctx, k, awl.With(awl.Arg("x", 42)))
//
// # Members
//
// Pointer instances of type providers get their tagged fields and Inject*
// setters assigned after construction:
//
//	type Handler struct {
//	    Log   *slog.Logger `awl:""`
//	    Audit Sink         `awl:"audit"`
//	    Cache *Cache       `awl:",optional"`
//	}
//	func (h *Handler) InjectRegion(r Region) { h.region = r }
//
// # Resolution
//
//	awl.Get[T](ctx, r)           // exactly one
//	awl.TryGet[T](ctx, r)        // zero or one, tolerant
//	awl.TryGetStrict[T](ctx, r)  // zero or one, ambiguity is an error
//	awl.GetAll[T](ctx, r)        // every binding, in registration order
//	awl.Seq[T](ctx, r)           // lazily, one activation per step
//
// Requests can be narrowed by name or metadata:
//
//	awl.Get[Sink](ctx, k, awl.WithName("audit"))
//	awl.GetAll[Sink](ctx, k, awl.Where(func(m awl.BindingMetadata) bool { return m.Has("remote") }))
//
// Unbound struct types resolve to themselves and unbound slices gather every
// binding of their element type.
//
// # Scopes
//
//	awl.InSingletonScope()   // one per kernel
//	awl.InTransientScope()   // one per resolution (default)
//	awl.InRequestScope()     // one per awl.WithRequestScope context
//	awl.InScope(fn)          // one per object returned by fn
//
// Scope caches do not keep their owner alive: once a pointer owner is
// garbage collected its cache is dropped. An instance that references its own
// owner defeats this; end such scopes with ReleaseScope or
// ReleaseScopeWhenDone.
//
// Singletons and other cached instances are created once even under
// concurrent resolution. Two passes that would wait on each other's creation
// fail with a cyclic dependency error instead of blocking.
//
// # Lifecycle
//
// Instances implementing Initializer are initialized after injection;
// Deactivator, Disposer and io.Closer are honoured on teardown. OnActivation
// and OnDeactivation add per-binding hooks.
//
//	k.Release(ctx, instance)
//	k.ReleaseScope(ctx, owner)
//	k.EndRequest(ctx)
//	k.Close(ctx)              // every cached instance, newest first
//
// # Diagnostics
//
//	k.Validate()              // missing bindings and cycles
//	k.Warmup(ctx)             // activate singletons up front
//	k.PrintGraph()
//	k.FprintBindings(os.Stdout)
//	k.Health(ctx)
package awl
