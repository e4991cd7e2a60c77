package awl

import (
	"reflect"
	"slices"
	"sync"

	ireflect "github.com/danpasecinic/awl/internal/reflect"
)

// registry holds bindings by service key and open generic bindings by
// definition. Readers get copies and never observe a half-applied change.
type registry struct {
	mu       sync.RWMutex
	bindings map[string][]*Binding
	generics map[*Generic][]*Binding
	order    []*Binding

	selfBinding bool
	implicitMu  sync.Mutex
	implicit    map[string]*Binding
}

func newRegistry(selfBinding bool) *registry {
	return &registry{
		bindings:    make(map[string][]*Binding),
		generics:    make(map[*Generic][]*Binding),
		implicit:    make(map[string]*Binding),
		selfBinding: selfBinding,
	}
}

func (r *registry) add(bs ...*Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range bs {
		r.insert(b)
	}
}

func (r *registry) insert(b *Binding) {
	if b.service.IsGeneric() && b.service.IsOpen() {
		def := b.service.Definition()
		r.generics[def] = append(r.generics[def], b)
	} else {
		key := b.service.Key()
		r.bindings[key] = append(r.bindings[key], b)
	}
	r.order = append(r.order, b)
}

// remove drops every binding registered for service and returns them.
func (r *registry) remove(service Service) []*Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(service)
}

func (r *registry) removeLocked(service Service) []*Binding {
	var removed []*Binding
	if service.IsGeneric() && service.IsOpen() {
		def := service.Definition()
		removed = r.generics[def]
		delete(r.generics, def)
	} else {
		key := service.Key()
		removed = r.bindings[key]
		delete(r.bindings, key)
	}
	if len(removed) > 0 {
		r.order = slices.DeleteFunc(r.order, func(b *Binding) bool { return slices.Contains(removed, b) })
	}
	return removed
}

func (r *registry) removeBinding(b *Binding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !slices.Contains(r.order, b) {
		return false
	}
	r.order = slices.DeleteFunc(r.order, func(x *Binding) bool { return x == b })
	if b.service.IsGeneric() && b.service.IsOpen() {
		def := b.service.Definition()
		r.generics[def] = slices.DeleteFunc(r.generics[def], func(x *Binding) bool { return x == b })
	} else {
		key := b.service.Key()
		r.bindings[key] = slices.DeleteFunc(r.bindings[key], func(x *Binding) bool { return x == b })
		if len(r.bindings[key]) == 0 {
			delete(r.bindings, key)
		}
	}
	return true
}

// replace swaps the bindings of service for bs in one step.
func (r *registry) replace(service Service, bs []*Binding) []*Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.removeLocked(service)
	for _, b := range bs {
		r.insert(b)
	}
	return removed
}

func (r *registry) all() []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// explicit returns the bindings registered for the exact service.
func (r *registry) explicit(service Service) []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.bindings[service.Key()])
}

// open returns the open generic bindings whose definition and fixed
// arguments match the closed service.
func (r *registry) open(service Service) []*Binding {
	if !service.IsGeneric() || service.IsOpen() {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Binding
	args := service.Arguments()
	for _, b := range r.generics[service.Definition()] {
		if genericArgsMatch(b.service.Arguments(), args) {
			matched = append(matched, b)
		}
	}
	return matched
}

func genericArgsMatch(pattern, args []Service) bool {
	if len(pattern) != len(args) {
		return false
	}
	for i, p := range pattern {
		if _, ok := p.IsParam(); ok {
			continue
		}
		if p.Key() != args[i].Key() {
			return false
		}
	}
	return true
}

func (r *registry) has(service Service) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.bindings[service.Key()]) > 0 {
		return true
	}
	return service.IsGeneric() && len(r.generics[service.Definition()]) > 0
}

// implicitFor returns the collection binding for slice services and the
// self-binding for struct types. Implicit bindings are created once per
// service so scope caches keyed by binding stay stable.
func (r *registry) implicitFor(service Service) []*Binding {
	t := service.Type()
	if t == nil {
		return nil
	}

	r.implicitMu.Lock()
	defer r.implicitMu.Unlock()

	if b, ok := r.implicit[service.Key()]; ok {
		return []*Binding{b}
	}

	var b *Binding
	if elem, ok := service.Element(); ok {
		b = NewBinding(service, ToFactory(collectionFactory(t, elem)))
	} else if r.selfBinding && ireflect.IsSelfBindable(t) {
		b = NewBinding(service, ToType(t))
	} else {
		return nil
	}
	b.implicit = true
	b.frozen.Store(true)
	r.implicit[service.Key()] = b
	return []*Binding{b}
}

// collectionFactory gathers every instance of elem into a slice of type t.
func collectionFactory(t reflect.Type, elem Service) Factory {
	return func(c *Context) (any, error) {
		out := reflect.MakeSlice(t, 0, 0)
		it := c.Resolve(c.Context(), &Request{Service: elem, Multiplicity: Any})
		defer it.Close()

		for it.Next() {
			out = reflect.Append(out, ireflect.ValueFor(it.Value(), t.Elem()))
		}
		if err := it.Err(); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}
}

// candidates selects the bindings that answer req, in registration order.
func (r *registry) candidates(req *Request) []*Binding {
	service := req.Service

	matched := filterBindings(req, r.explicit(service))
	if len(matched) == 0 {
		matched = filterBindings(req, r.open(service))
	}
	if len(matched) == 0 && !r.has(service) {
		matched = filterBindings(req, r.implicitFor(service))
	}
	return matched
}

// filterBindings applies the request's constraint and binding conditions.
// Unique requests prefer conditional bindings whose condition holds.
func filterBindings(req *Request, bs []*Binding) []*Binding {
	var matched, conditional []*Binding
	for _, b := range bs {
		if !req.satisfies(b) {
			continue
		}
		matched = append(matched, b)
		if b.IsConditional() {
			conditional = append(conditional, b)
		}
	}
	if req.Multiplicity.IsUnique() && len(conditional) > 0 {
		return conditional
	}
	return matched
}
