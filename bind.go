package awl

// Bind registers a binding of service S to provider p.
func Bind[S any](k *Kernel, p Provider, opts ...BindingOption) (*Binding, error) {
	return BindService(k, TypeOf[S](), p, opts...)
}

func MustBind[S any](k *Kernel, p Provider, opts ...BindingOption) *Binding {
	b, err := Bind[S](k, p, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

func BindService(k *Kernel, service Service, p Provider, opts ...BindingOption) (*Binding, error) {
	b := NewBinding(service, p, opts...)
	if err := k.Add(b); err != nil {
		return nil, err
	}
	return b, nil
}

// BindConstant binds S to value. Constants are singletons unless another
// scope is given.
func BindConstant[S any](k *Kernel, value S, opts ...BindingOption) (*Binding, error) {
	return Bind[S](k, ToConstant(value), opts...)
}

// BindFactory binds S to a typed factory.
func BindFactory[S any](k *Kernel, fn func(c *Context) (S, error), opts ...BindingOption) (*Binding, error) {
	return Bind[S](
		k, ToFactory(
			func(c *Context) (any, error) {
				return fn(c)
			},
		), opts...,
	)
}

// BindGeneric binds the open form of def. Requests for any closed instance
// of def are served by it, with the type arguments available through
// Context.GenericArguments and substituted into GenericParam targets.
func BindGeneric(k *Kernel, def *Generic, p Provider, opts ...BindingOption) (*Binding, error) {
	return BindService(k, def.Open(), p, opts...)
}
