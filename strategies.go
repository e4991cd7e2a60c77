package awl

import (
	"fmt"
	"reflect"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

// DefaultStrategies is the fixed activation order. Deactivation runs it
// backwards, so pre-destroy hooks run before disposal.
func DefaultStrategies(lc Lifecycle) []Strategy {
	return []Strategy{
		InstantiationStrategy{},
		DisposalStrategy{Lifecycle: lc},
		MemberInjectionStrategy{},
		LifecycleStrategy{Lifecycle: lc},
	}
}

// InstantiationStrategy creates the instance from the binding's provider and
// records it as activated in the pass.
type InstantiationStrategy struct{}

func (InstantiationStrategy) Activate(c *Context, ref *Reference) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errActivation(c.Service(), fmt.Sprintf("provider panicked: %v", r), nil)
		}
	}()

	instance, err := instantiate(c)
	if err != nil {
		return asActivation(c.Service(), err)
	}
	if ireflect.IsNil(instance) {
		return errActivation(c.Service(), "provider returned nil", nil)
	}
	if t := c.Service().Type(); t != nil && !ireflect.Assignable(instance, t) {
		return errActivation(
			c.Service(),
			fmt.Sprintf("provider returned %T, not assignable to %s", instance, ireflect.Name(t)),
			nil,
		)
	}

	ref.Instance = instance
	ref.skip = !c.pass.cache.AddActivated(instance)
	return nil
}

func (InstantiationStrategy) Deactivate(*Context, *Reference) error {
	return nil
}

func instantiate(c *Context) (any, error) {
	p := c.binding.provider
	switch p.Kind {
	case ProviderType:
		return construct(c)
	case ProviderFactory:
		return p.Factory(c)
	case ProviderConstant:
		return p.Constant, nil
	case ProviderExternal:
		return p.External.Create(c)
	default:
		return nil, fmt.Errorf("unknown provider kind %d", p.Kind)
	}
}

func construct(c *Context) (any, error) {
	plan, err := c.Plan()
	if err != nil {
		return nil, err
	}

	targets := plan.ConstructorTargets()
	args := make([]reflect.Value, len(targets))
	for i, t := range targets {
		v, ok, err := c.resolveTarget(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			args[i] = reflect.Zero(t.Type)
			continue
		}
		if !ireflect.Assignable(v, t.Type) {
			return nil, errActivation(
				c.Service(),
				fmt.Sprintf("value %T for %s is not assignable to %s", v, t, ireflect.Name(t.Type)),
				nil,
			)
		}
		args[i] = ireflect.ValueFor(v, t.Type)
	}

	return plan.Constructor.fn.Call(args)
}

// DisposalStrategy disposes instances on deactivation.
type DisposalStrategy struct {
	Lifecycle Lifecycle
}

func (DisposalStrategy) Activate(*Context, *Reference) error {
	return nil
}

func (s DisposalStrategy) Deactivate(c *Context, ref *Reference) error {
	return s.Lifecycle.Dispose(c.Context(), ref.Instance)
}

// MemberInjectionStrategy assigns the member targets of the plan. Only
// pointer instances can receive members.
type MemberInjectionStrategy struct{}

func (MemberInjectionStrategy) Activate(c *Context, ref *Reference) error {
	if c.binding.provider.Kind != ProviderType {
		return nil
	}

	plan, err := c.Plan()
	if err != nil {
		return err
	}
	members := plan.MemberTargets()
	if len(members) == 0 {
		return nil
	}

	rv := reflect.ValueOf(ref.Instance)
	if rv.Kind() != reflect.Ptr {
		return nil
	}

	for _, t := range members {
		v, ok, err := c.resolveTarget(t)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := inject(rv, t, v); err != nil {
			return errActivation(c.Service(), "cannot inject "+t.String(), err)
		}
	}
	return nil
}

func (MemberInjectionStrategy) Deactivate(*Context, *Reference) error {
	return nil
}

func inject(rv reflect.Value, t *Target, v any) error {
	if !ireflect.Assignable(v, t.Type) {
		return fmt.Errorf("value %T is not assignable to %s", v, ireflect.Name(t.Type))
	}
	arg := ireflect.ValueFor(v, t.Type)

	switch t.Kind {
	case TargetField:
		var field reflect.Value
		if t.index != nil {
			field = rv.Elem().FieldByIndex(t.index)
		} else {
			field = rv.Elem().FieldByName(t.Name)
		}
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("field %s cannot be set", t.Name)
		}
		field.Set(arg)
		return nil
	case TargetMethod:
		m := rv.MethodByName(t.Name)
		if !m.IsValid() {
			return fmt.Errorf("method %s not found", t.Name)
		}
		out := m.Call([]reflect.Value{arg})
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	default:
		return fmt.Errorf("unsupported member target %s", t.Kind)
	}
}

// LifecycleStrategy runs post-construction hooks on activation and
// pre-destroy hooks on deactivation.
type LifecycleStrategy struct {
	Lifecycle Lifecycle
}

func (s LifecycleStrategy) Activate(c *Context, ref *Reference) error {
	return s.Lifecycle.Activate(c, ref.Instance)
}

func (s LifecycleStrategy) Deactivate(c *Context, ref *Reference) error {
	return s.Lifecycle.Deactivate(c, ref.Instance)
}
