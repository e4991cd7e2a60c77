package scope

type Kind int

const (
	Transient Kind = iota
	Singleton
	Request
	Custom
)

func (k Kind) String() string {
	switch k {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Request:
		return "request"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}
