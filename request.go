package awl

// Multiplicity is how many instances a request accepts.
type Multiplicity int

const (
	// ExactlyOne fails on zero matches and on more than one.
	ExactlyOne Multiplicity = iota
	// AtMostOne yields nothing on zero matches and fails on more than one.
	AtMostOne
	// Any yields every match, possibly none.
	Any
	// AtLeastOne yields every match and fails on zero.
	AtLeastOne
)

func (m Multiplicity) IsOptional() bool {
	return m == AtMostOne || m == Any
}

func (m Multiplicity) IsUnique() bool {
	return m == ExactlyOne || m == AtMostOne
}

func (m Multiplicity) String() string {
	switch m {
	case ExactlyOne:
		return "exactly-one"
	case AtMostOne:
		return "at-most-one"
	case Any:
		return "any"
	case AtLeastOne:
		return "at-least-one"
	default:
		return "unknown"
	}
}

// Request is a single resolution ask. A request must not be changed once its
// iterator has started.
type Request struct {
	Service      Service
	Constraint   func(BindingMetadata) bool
	Parameters   []Parameter
	Multiplicity Multiplicity

	// Target and ParentContext are set for requests made while activating
	// another instance.
	Target        *Target
	ParentContext *Context
	ParentRequest *Request
	Depth         int
}

func NewRequest(service Service, m Multiplicity, params ...Parameter) *Request {
	return &Request{
		Service:      service,
		Multiplicity: m,
		Parameters:   params,
	}
}

// NamedConstraint matches bindings registered under name.
func NamedConstraint(name string) func(BindingMetadata) bool {
	return func(m BindingMetadata) bool {
		return m.Name == name
	}
}

func (r *Request) child(service Service, parent *Context, target *Target) *Request {
	m := ExactlyOne
	if target != nil && (target.Optional || target.HasDefault) {
		m = AtMostOne
	}

	req := &Request{
		Service:       service,
		Multiplicity:  m,
		Target:        target,
		ParentContext: parent,
		ParentRequest: r,
		Depth:         r.Depth + 1,
	}
	if target != nil && target.Named != "" {
		req.Constraint = NamedConstraint(target.Named)
	}
	return req
}

func (r *Request) satisfies(b *Binding) bool {
	if r.Constraint != nil && !r.Constraint(b.metadataView()) {
		return false
	}
	return b.Matches(r)
}

// path lists the services from the outermost request down to r.
func (r *Request) path() []string {
	var path []string
	for cur := r; cur != nil; cur = cur.ParentRequest {
		path = append(path, cur.Service.String())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
