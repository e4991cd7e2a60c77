package awl

// Rebind replaces every binding of S with a single new one. Readers see
// either the old set or the new one, never a mix.
func Rebind[S any](k *Kernel, p Provider, opts ...BindingOption) (*Binding, error) {
	return RebindService(k, TypeOf[S](), p, opts...)
}

func RebindService(k *Kernel, service Service, p Provider, opts ...BindingOption) (*Binding, error) {
	if k.closed.Load() {
		return nil, errKernelClosed()
	}

	b := NewBinding(service, p, opts...)
	if err := b.validate(); err != nil {
		return nil, err
	}
	b.frozen.Store(true)

	removed := k.registry.replace(service, []*Binding{b})
	k.logger.Debug("binding replaced", "service", service.String(), "binding", b.id, "removed", len(removed))
	return b, nil
}

func RebindConstant[S any](k *Kernel, value S, opts ...BindingOption) (*Binding, error) {
	return Rebind[S](k, ToConstant(value), opts...)
}
