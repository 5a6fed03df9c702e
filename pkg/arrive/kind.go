package arrive

// Kind distinguishes arrive registrations from leave registrations.
type Kind uint8

const (
	KindArrive Kind = iota // Element added, or started matching via an attribute change
	KindLeave              // Element removed
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindArrive:
		return "arrive"
	case KindLeave:
		return "leave"
	default:
		return "unknown"
	}
}
