package awl

import (
	"fmt"
	"maps"
	"reflect"
	"sync/atomic"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
	"github.com/danpasecinic/awl/internal/scope"
)

type ProviderKind int

const (
	ProviderType ProviderKind = iota
	ProviderFactory
	ProviderConstant
	ProviderExternal
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderType:
		return "type"
	case ProviderFactory:
		return "factory"
	case ProviderConstant:
		return "constant"
	case ProviderExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Factory builds an instance from the activation context. Dependencies are
// pulled through c.Resolve so they join the current pass.
type Factory func(c *Context) (any, error)

// External is a provider whose construction logic lives outside the kernel.
type External interface {
	Create(c *Context) (any, error)
}

// Provider describes how a binding produces instances. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Provider struct {
	Kind         ProviderKind
	Type         reflect.Type
	Constructors []*Constructor
	Factory      Factory
	Constant     any
	External     External
}

// To maps a service to the implementation type T. Constructors are the
// candidates the planner chooses from; with none, the kernel's conventions
// are consulted.
func To[T any](ctors ...*Constructor) Provider {
	return ToType(ireflect.TypeOf[T](), ctors...)
}

func ToType(t reflect.Type, ctors ...*Constructor) Provider {
	return Provider{Kind: ProviderType, Type: t, Constructors: ctors}
}

func ToFactory(fn Factory) Provider {
	return Provider{Kind: ProviderFactory, Factory: fn}
}

func ToConstant(v any) Provider {
	var t reflect.Type
	if v != nil {
		t = reflect.TypeOf(v)
	}
	return Provider{Kind: ProviderConstant, Type: t, Constant: v}
}

func ToProvider(p External) Provider {
	return Provider{Kind: ProviderExternal, External: p}
}

func (p Provider) validate() error {
	switch p.Kind {
	case ProviderType:
		if p.Type == nil {
			return fmt.Errorf("type provider has no implementation type")
		}
		for i, c := range p.Constructors {
			if c == nil {
				return fmt.Errorf("constructor %d is nil", i)
			}
			if c.err != nil {
				return fmt.Errorf("constructor %d: %w", i, c.err)
			}
		}
	case ProviderFactory:
		if p.Factory == nil {
			return fmt.Errorf("factory provider has no factory")
		}
	case ProviderConstant:
		if p.Constant == nil {
			return fmt.Errorf("constant provider has a nil value")
		}
	case ProviderExternal:
		if p.External == nil {
			return fmt.Errorf("external provider is nil")
		}
	default:
		return fmt.Errorf("unknown provider kind %d", p.Kind)
	}
	return nil
}

// Param describes one constructor argument. Name is what Arg overrides match
// against; Service defaults to the Go type of the argument.
type Param struct {
	Name       string
	Service    Service
	Named      string
	Optional   bool
	Default    any
	HasDefault bool
}

// Constructor is a candidate function for a type provider:
// func(args...) T or func(args...) (T, error).
type Constructor struct {
	fn     *ireflect.FuncInfo
	params []Param
	err    error
}

// Ctor wraps fn. params describe fn's arguments by position; arguments past
// len(params) are resolved by their Go type.
func Ctor(fn any, params ...Param) *Constructor {
	info, err := ireflect.Func(fn)
	if err != nil {
		return &Constructor{err: err}
	}
	if len(params) > len(info.Params) {
		return &Constructor{err: fmt.Errorf("%d params described for %d arguments", len(params), len(info.Params))}
	}

	full := make([]Param, len(info.Params))
	for i, t := range info.Params {
		if i < len(params) {
			full[i] = params[i]
		}
		if full[i].Name == "" {
			full[i].Name = fmt.Sprintf("arg%d", i)
		}
		if full[i].Service.IsZero() {
			full[i].Service = ServiceOf(t)
		}
	}
	return &Constructor{fn: info, params: full}
}

func (c *Constructor) Params() []Param {
	return append([]Param(nil), c.params...)
}

func (c *Constructor) Returns() reflect.Type {
	if c.fn == nil {
		return nil
	}
	return c.fn.Returns
}

// zeroConstructor builds T or *T from its zero value for self-bindable types
// that expose no constructor.
func zeroConstructor(t reflect.Type) *Constructor {
	return &Constructor{
		fn: &ireflect.FuncInfo{
			Value: reflect.ValueOf(
				func() any {
					if t.Kind() == reflect.Ptr {
						return reflect.New(t.Elem()).Interface()
					}
					return reflect.Zero(t).Interface()
				},
			),
			Returns: t,
		},
	}
}

// BindingMetadata is the read-only view of a binding offered to request
// constraints.
type BindingMetadata struct {
	Name   string
	values map[string]any
}

func (m BindingMetadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m BindingMetadata) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

type InstanceHook func(c *Context, instance any) error

var bindingSeq atomic.Uint64

// Binding maps a service to a provider together with its scope, name,
// metadata, parameters and condition. A binding is immutable once added to a
// kernel.
type Binding struct {
	id             uint64
	service        Service
	provider       Provider
	scope          ScopeFunc
	scopeKind      scope.Kind
	name           string
	metadata       map[string]any
	params         []Parameter
	condition      func(*Request) bool
	onActivation   []InstanceHook
	onDeactivation []InstanceHook
	implicit       bool
	frozen         atomic.Bool
}

type BindingOption func(*Binding)

func NewBinding(service Service, provider Provider, opts ...BindingOption) *Binding {
	b := &Binding{
		id:        bindingSeq.Add(1),
		service:   service,
		provider:  provider,
		scope:     Transient,
		scopeKind: scope.Transient,
		metadata:  make(map[string]any),
	}
	if provider.Kind == ProviderConstant {
		b.scope, b.scopeKind = Singleton, scope.Singleton
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Apply configures a binding that has not been added to a kernel yet.
func (b *Binding) Apply(opts ...BindingOption) error {
	if b.frozen.Load() {
		return errInvalidBinding(b.service, "binding is already registered and cannot be changed")
	}
	for _, opt := range opts {
		opt(b)
	}
	return nil
}

func (b *Binding) ID() uint64            { return b.id }
func (b *Binding) Service() Service      { return b.service }
func (b *Binding) Provider() Provider    { return b.provider }
func (b *Binding) Name() string          { return b.name }
func (b *Binding) ScopeKind() scope.Kind { return b.scopeKind }
func (b *Binding) IsConditional() bool   { return b.condition != nil }
func (b *Binding) IsImplicit() bool      { return b.implicit }

func (b *Binding) Metadata() BindingMetadata {
	return BindingMetadata{Name: b.name, values: maps.Clone(b.metadata)}
}

func (b *Binding) Parameters() []Parameter {
	return append([]Parameter(nil), b.params...)
}

// Matches reports whether the binding's condition holds for req.
func (b *Binding) Matches(req *Request) bool {
	return b.condition == nil || b.condition(req)
}

func (b *Binding) String() string {
	s := b.service.String()
	if b.name != "" {
		s += "#" + b.name
	}
	return s
}

func (b *Binding) validate() error {
	if b.frozen.Load() {
		return errInvalidBinding(b.service, "binding is already registered")
	}
	if b.service.IsZero() {
		return errInvalidBinding(b.service, "binding has no service")
	}
	if _, ok := b.service.IsParam(); ok {
		return errInvalidBinding(b.service, "a generic parameter cannot be bound")
	}
	if err := b.provider.validate(); err != nil {
		return errInvalidBinding(b.service, err.Error())
	}
	if b.scope == nil {
		return errInvalidBinding(b.service, "binding has no scope")
	}
	return nil
}

func (b *Binding) metadataView() BindingMetadata {
	return BindingMetadata{Name: b.name, values: b.metadata}
}

func Named(name string) BindingOption {
	return func(b *Binding) {
		b.name = name
	}
}

func WithMetadata(key string, value any) BindingOption {
	return func(b *Binding) {
		b.metadata[key] = value
	}
}

// InScope caches instances per owner returned by fn. A pointer owner is held
// weakly and its instances are dropped once it is collected, unless one of
// them references the owner: the cache then keeps the owner reachable, and the
// scope lasts until ReleaseScope or ReleaseScopeWhenDone ends it.
func InScope(fn ScopeFunc) BindingOption {
	return func(b *Binding) {
		b.scope = fn
		b.scopeKind = scope.Custom
	}
}

func InSingletonScope() BindingOption {
	return func(b *Binding) {
		b.scope = Singleton
		b.scopeKind = scope.Singleton
	}
}

func InTransientScope() BindingOption {
	return func(b *Binding) {
		b.scope = Transient
		b.scopeKind = scope.Transient
	}
}

func InRequestScope() BindingOption {
	return func(b *Binding) {
		b.scope = PerRequest
		b.scopeKind = scope.Request
	}
}

func WithParameter(p Parameter) BindingOption {
	return func(b *Binding) {
		b.params = append(b.params, p)
	}
}

func WithConstructorArgument(name string, value any) BindingOption {
	return WithParameter(Arg(name, value))
}

func WithPropertyValue(name string, value any) BindingOption {
	return WithParameter(Property(name, value))
}

func OnActivation(hook InstanceHook) BindingOption {
	return func(b *Binding) {
		b.onActivation = append(b.onActivation, hook)
	}
}

func OnDeactivation(hook InstanceHook) BindingOption {
	return func(b *Binding) {
		b.onDeactivation = append(b.onDeactivation, hook)
	}
}

// When makes the binding conditional. Conditional bindings whose condition
// holds are preferred over unconditional ones for unique requests.
func When(condition func(*Request) bool) BindingOption {
	return func(b *Binding) {
		b.condition = condition
	}
}

// WhenInjectedInto restricts the binding to requests made while activating
// the given service.
func WhenInjectedInto(parent Service) BindingOption {
	return When(
		func(req *Request) bool {
			return req.ParentContext != nil && req.ParentContext.Service().Key() == parent.Key()
		},
	)
}
