package awl

import (
	"fmt"
	"reflect"
	"strings"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

type TargetKind int

const (
	TargetParameter TargetKind = iota
	TargetField
	TargetMethod
)

func (k TargetKind) String() string {
	switch k {
	case TargetParameter:
		return "parameter"
	case TargetField:
		return "field"
	case TargetMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Target is one injection point of a plan.
type Target struct {
	Kind       TargetKind
	Name       string
	Type       reflect.Type
	Service    Service
	Named      string
	Optional   bool
	Default    any
	HasDefault bool
	index      []int
}

func (t *Target) String() string {
	return t.Kind.String() + " " + t.Name + " (" + t.Service.String() + ")"
}

// Plan is how a context produces its instance: the chosen constructor, if
// any, and the targets to satisfy. Constructor parameters come first.
type Plan struct {
	Type        reflect.Type
	Constructor *Constructor
	Targets     []*Target
	members     int
}

func (p *Plan) ConstructorTargets() []*Target {
	return p.Targets[:len(p.Targets)-p.members]
}

func (p *Plan) MemberTargets() []*Target {
	return p.Targets[len(p.Targets)-p.members:]
}

type planner struct {
	conventions Conventions
}

func (pl *planner) plan(c *Context) (*Plan, error) {
	provider := c.binding.provider
	if provider.Kind != ProviderType {
		return &Plan{Type: provider.Type}, nil
	}

	t := provider.Type
	ctor, targets, err := pl.selectConstructor(c, t)
	if err != nil {
		return nil, err
	}

	members, err := pl.conventions.Members(t)
	if err != nil {
		return nil, errActivation(c.Service(), "cannot plan members of "+ireflect.Name(t), err)
	}

	p := &Plan{Type: t, Constructor: ctor, Targets: targets}
	for _, m := range members {
		kind := TargetField
		if m.Kind == MemberMethod {
			kind = TargetMethod
		}
		service := m.Service
		if service.IsZero() {
			service = ServiceOf(m.Type)
		}
		p.Targets = append(
			p.Targets, &Target{
				Kind:     kind,
				Name:     m.Name,
				Type:     m.Type,
				Service:  service.Substitute(c.genericArgs),
				Named:    m.Named,
				Optional: m.Optional,
				index:    m.index,
			},
		)
		p.members++
	}
	return p, nil
}

func (pl *planner) constructors(t reflect.Type, provider Provider) []*Constructor {
	if len(provider.Constructors) > 0 {
		return provider.Constructors
	}
	if ctors := pl.conventions.Constructors(t); len(ctors) > 0 {
		return ctors
	}
	if ireflect.IsSelfBindable(t) {
		return []*Constructor{zeroConstructor(t)}
	}
	return nil
}

// selectConstructor picks the satisfiable constructor with the most
// parameters. Ties go to the one declared first.
func (pl *planner) selectConstructor(c *Context, t reflect.Type) (*Constructor, []*Target, error) {
	ctors := pl.constructors(t, c.binding.provider)
	if len(ctors) == 0 {
		return nil, nil, errActivation(c.Service(), "no constructor available for "+ireflect.Name(t), nil)
	}

	var (
		best        *Constructor
		bestTargets []*Target
		unsatisfied []string
	)
	for _, ctor := range ctors {
		targets := constructorTargets(ctor, c.genericArgs)
		missing := pl.unsatisfied(c, targets)
		if len(missing) > 0 {
			unsatisfied = append(unsatisfied, missing...)
			continue
		}
		if best == nil || len(targets) > len(bestTargets) {
			best, bestTargets = ctor, targets
		}
	}

	if best == nil {
		return nil, nil, errActivation(
			c.Service(),
			fmt.Sprintf(
				"no satisfiable constructor for %s: cannot resolve %s",
				ireflect.Name(t), strings.Join(unsatisfied, ", "),
			),
			nil,
		)
	}
	return best, bestTargets, nil
}

func constructorTargets(ctor *Constructor, genericArgs []Service) []*Target {
	targets := make([]*Target, len(ctor.params))
	for i, p := range ctor.params {
		targets[i] = &Target{
			Kind:       TargetParameter,
			Name:       p.Name,
			Type:       ctor.fn.Params[i],
			Service:    p.Service.Substitute(genericArgs),
			Named:      p.Named,
			Optional:   p.Optional,
			Default:    p.Default,
			HasDefault: p.HasDefault,
		}
	}
	return targets
}

func (pl *planner) unsatisfied(c *Context, targets []*Target) []string {
	var missing []string
	for _, t := range targets {
		if !c.satisfiable(t) {
			missing = append(missing, t.Name+" ("+t.Service.String()+")")
		}
	}
	return missing
}

// satisfiable reports whether t can be supplied: by an override, a binding,
// a default, or by being optional.
func (c *Context) satisfiable(t *Target) bool {
	if t.Optional || t.HasDefault {
		return true
	}
	if _, ok := c.override(t); ok {
		return true
	}
	req := c.request.child(t.Service, c, t)
	return c.kernel.CanResolve(c.ctx, req)
}

func (c *Context) override(t *Target) (Parameter, bool) {
	for _, p := range c.params {
		if p.AppliesTo(t) {
			return p, true
		}
	}
	return Parameter{}, false
}

// resolveTarget produces the value for t. ok is false when an optional
// target has nothing to inject.
func (c *Context) resolveTarget(t *Target) (any, bool, error) {
	if p, ok := c.override(t); ok {
		v, err := p.Value(c, t)
		if err != nil {
			return nil, false, errActivation(c.Service(), "parameter "+p.Name+" failed", err)
		}
		return v, true, nil
	}

	req := c.request.child(t.Service, c, t)
	it := c.kernel.Resolve(c.ctx, req)
	defer it.Close()

	if it.Next() {
		v := it.Value()
		if it.Next() || it.Err() != nil {
			return nil, false, errActivation(c.Service(), "cannot resolve "+t.String(), it.Err())
		}
		return v, true, nil
	}
	if err := it.Err(); err != nil {
		return nil, false, errActivation(c.Service(), "cannot resolve "+t.String(), err)
	}
	if t.HasDefault {
		return t.Default, true, nil
	}
	return nil, false, nil
}
