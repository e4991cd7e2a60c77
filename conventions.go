package awl

import (
	"reflect"
	"sync"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

const (
	TagKey       = "awl"
	InjectPrefix = "Inject"
)

type MemberKind int

const (
	MemberField MemberKind = iota
	MemberMethod
)

// Member is an injectable field or setter method of an implementation type.
type Member struct {
	Kind     MemberKind
	Name     string
	Type     reflect.Type
	Service  Service
	Named    string
	Optional bool
	index    []int
}

// Conventions decide which constructors and members of an implementation
// type take part in injection.
type Conventions interface {
	Constructors(t reflect.Type) []*Constructor
	Members(t reflect.Type) ([]Member, error)
}

// TagConventions selects fields tagged `awl:"[name][,optional]"` and exported
// methods named Inject* taking one argument. Constructors are registered per
// type up front.
type TagConventions struct {
	tag     string
	prefix  string
	ctors   map[reflect.Type][]*Constructor
	members sync.Map
}

type TagOption func(*TagConventions)

func WithTag(tag string) TagOption {
	return func(tc *TagConventions) {
		tc.tag = tag
	}
}

func WithMethodPrefix(prefix string) TagOption {
	return func(tc *TagConventions) {
		tc.prefix = prefix
	}
}

// WithTypeConstructors declares the constructors of t for bindings that do
// not list their own.
func WithTypeConstructors(t reflect.Type, ctors ...*Constructor) TagOption {
	return func(tc *TagConventions) {
		tc.ctors[t] = append(tc.ctors[t], ctors...)
	}
}

func NewTagConventions(opts ...TagOption) *TagConventions {
	tc := &TagConventions{
		tag:    TagKey,
		prefix: InjectPrefix,
		ctors:  make(map[reflect.Type][]*Constructor),
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

func (tc *TagConventions) Constructors(t reflect.Type) []*Constructor {
	return tc.ctors[t]
}

type memberScan struct {
	members []Member
	err     error
}

func (tc *TagConventions) Members(t reflect.Type) ([]Member, error) {
	if cached, ok := tc.members.Load(t); ok {
		scan := cached.(memberScan)
		return scan.members, scan.err
	}

	members, err := tc.scan(t)
	tc.members.Store(t, memberScan{members: members, err: err})
	return members, err
}

func (tc *TagConventions) scan(t reflect.Type) ([]Member, error) {
	fields, err := ireflect.StructFields(t, tc.tag)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(fields))
	for _, f := range fields {
		members = append(
			members, Member{
				Kind:     MemberField,
				Name:     f.Name,
				Type:     f.Type,
				Service:  ServiceOf(f.Type),
				Named:    f.Named,
				Optional: f.Optional,
				index:    f.Index,
			},
		)
	}

	for _, m := range ireflect.SetterMethods(t, tc.prefix) {
		members = append(
			members, Member{
				Kind:    MemberMethod,
				Name:    m.Name,
				Type:    m.Type,
				Service: ServiceOf(m.Type),
			},
		)
	}
	return members, nil
}
