package awl

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

// Service identifies what is being asked for: a Go type, a closed or open
// instance of a Generic definition, or a generic parameter placeholder.
// Compare services with Key, never with ==.
type Service struct {
	typ   reflect.Type
	def   *Generic
	args  []Service
	param int
	key   string
}

// TypeOf returns the service for T. Interface types are supported.
func TypeOf[T any]() Service {
	return ServiceOf(ireflect.TypeOf[T]())
}

func ServiceOf(t reflect.Type) Service {
	return Service{typ: t, key: ireflect.Key(t)}
}

// GenericParam is the placeholder for the i-th argument of the enclosing
// generic definition. Placeholders are replaced by Substitute.
func GenericParam(i int) Service {
	return Service{param: i + 1, key: "$" + strconv.Itoa(i)}
}

var genericSeq atomic.Uint64

// Generic is an open generic definition such as Repository[T]. Go erases
// type parameters at run time, so definitions are explicit values and their
// instances are built with Of.
type Generic struct {
	name  string
	arity int
	id    string
}

func NewGeneric(name string, arity int) *Generic {
	if arity < 1 {
		arity = 1
	}
	return &Generic{
		name:  name,
		arity: arity,
		id:    name + "`" + strconv.FormatUint(genericSeq.Add(1), 10),
	}
}

func (g *Generic) Name() string { return g.name }
func (g *Generic) Arity() int   { return g.arity }

// Of closes the definition over args. Missing trailing arguments stay open.
func (g *Generic) Of(args ...Service) Service {
	full := make([]Service, g.arity)
	for i := range full {
		if i < len(args) && !args[i].IsZero() {
			full[i] = args[i]
		} else {
			full[i] = GenericParam(i)
		}
	}
	return newGenericService(g, full)
}

// Open is the definition with every argument unresolved.
func (g *Generic) Open() Service {
	return g.Of()
}

func newGenericService(def *Generic, args []Service) Service {
	var b strings.Builder
	b.WriteString(def.id)
	b.WriteByte('[')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	b.WriteByte(']')
	return Service{def: def, args: args, key: b.String()}
}

func (s Service) IsZero() bool { return s.key == "" }

// Type is the Go type of a plain service, nil for generic instances and
// placeholders.
func (s Service) Type() reflect.Type { return s.typ }

func (s Service) Key() string { return s.key }

func (s Service) IsGeneric() bool { return s.def != nil }

func (s Service) Definition() *Generic { return s.def }

func (s Service) Arguments() []Service {
	return append([]Service(nil), s.args...)
}

// IsParam reports whether s is a placeholder and returns its index.
func (s Service) IsParam() (int, bool) {
	return s.param - 1, s.param > 0
}

// IsOpen reports whether s still contains placeholders.
func (s Service) IsOpen() bool {
	if s.param > 0 {
		return true
	}
	for _, a := range s.args {
		if a.IsOpen() {
			return true
		}
	}
	return false
}

// Element returns the element service of a slice service.
func (s Service) Element() (Service, bool) {
	elem, ok := ireflect.IsCollection(s.typ)
	if !ok {
		return Service{}, false
	}
	return ServiceOf(elem), true
}

// Substitute replaces placeholders with args by position. Placeholders
// beyond len(args) are kept.
func (s Service) Substitute(args []Service) Service {
	if i, ok := s.IsParam(); ok {
		if i < len(args) && !args[i].IsZero() {
			return args[i]
		}
		return s
	}
	if s.def == nil || !s.IsOpen() {
		return s
	}
	closed := make([]Service, len(s.args))
	for i, a := range s.args {
		closed[i] = a.Substitute(args)
	}
	return newGenericService(s.def, closed)
}

func (s Service) String() string {
	switch {
	case s.key == "":
		return "<none>"
	case s.param > 0:
		return "T" + strconv.Itoa(s.param-1)
	case s.def != nil:
		var b strings.Builder
		b.WriteString(s.def.name)
		b.WriteByte('[')
		for i, a := range s.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
		return b.String()
	default:
		return ireflect.Name(s.typ)
	}
}
