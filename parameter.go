package awl

import (
	"reflect"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

type ParameterKind int

const (
	ConstructorArgument ParameterKind = iota
	PropertyValue
	FactoryValue
)

func (k ParameterKind) String() string {
	switch k {
	case ConstructorArgument:
		return "argument"
	case PropertyValue:
		return "property"
	case FactoryValue:
		return "value"
	default:
		return "unknown"
	}
}

// ValueFunc computes a parameter value for a target at activation time.
type ValueFunc func(c *Context, t *Target) (any, error)

// Parameter overrides how a target is satisfied. Constructor arguments and
// properties match targets by name, typed arguments by Go type. Factory values
// are read by factories through Context.Parameter.
type Parameter struct {
	Kind    ParameterKind
	Name    string
	Type    reflect.Type
	Inherit bool
	value   ValueFunc
}

func Arg(name string, value any) Parameter {
	return ArgFunc(name, constant(value))
}

func ArgFunc(name string, fn ValueFunc) Parameter {
	return Parameter{Kind: ConstructorArgument, Name: name, value: fn}
}

// TypedArg matches the first constructor argument assignable from t.
func TypedArg(t reflect.Type, value any) Parameter {
	return Parameter{Kind: ConstructorArgument, Type: t, value: constant(value)}
}

func ArgOf[T any](value T) Parameter {
	return TypedArg(ireflect.TypeOf[T](), value)
}

func Property(name string, value any) Parameter {
	return PropertyFunc(name, constant(value))
}

func PropertyFunc(name string, fn ValueFunc) Parameter {
	return Parameter{Kind: PropertyValue, Name: name, value: fn}
}

func Value(name string, value any) Parameter {
	return Parameter{Kind: FactoryValue, Name: name, value: constant(value)}
}

// Inherited marks p to flow into the contexts of nested requests.
func Inherited(p Parameter) Parameter {
	p.Inherit = true
	return p
}

// Key identifies the parameter for merging: a later parameter with the same
// key is shadowed by an earlier one.
func (p Parameter) Key() string {
	if p.Type != nil {
		return p.Kind.String() + ":type:" + ireflect.Key(p.Type)
	}
	return p.Kind.String() + ":" + p.Name
}

// AppliesTo reports whether p overrides t.
func (p Parameter) AppliesTo(t *Target) bool {
	switch p.Kind {
	case ConstructorArgument:
		if t.Kind != TargetParameter {
			return false
		}
		if p.Type != nil {
			return t.Type != nil && p.Type.AssignableTo(t.Type)
		}
		return p.Name == t.Name
	case PropertyValue:
		return t.Kind != TargetParameter && p.Name == t.Name
	default:
		return false
	}
}

func (p Parameter) Value(c *Context, t *Target) (any, error) {
	if p.value == nil {
		return nil, nil
	}
	return p.value(c, t)
}

func constant(v any) ValueFunc {
	return func(*Context, *Target) (any, error) {
		return v, nil
	}
}

// mergeParameters keeps the first parameter for every key, so earlier groups
// take precedence.
func mergeParameters(groups ...[]Parameter) []Parameter {
	var merged []Parameter
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, p := range group {
			key := p.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

func inheritedOnly(params []Parameter) []Parameter {
	var out []Parameter
	for _, p := range params {
		if p.Inherit {
			out = append(out, p)
		}
	}
	return out
}
