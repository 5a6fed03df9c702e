package arrive

type filterKind uint8

const (
	filterAll filterKind = iota
	filterSelector
	filterHandler
	filterSelectorAndHandler
)

// Filter selects which registrations of a target an unbind removes.
type Filter struct {
	kind     filterKind
	selector string
	handler  *Handler
}

// All matches every registration on the target.
func All() Filter { return Filter{kind: filterAll} }

// BySelector matches registrations bound with selector.
func BySelector(selector string) Filter {
	return Filter{kind: filterSelector, selector: selector}
}

// ByHandler matches registrations bound with h.
func ByHandler(h *Handler) Filter {
	return Filter{kind: filterHandler, handler: h}
}

// BySelectorAndHandler matches registrations bound with both selector
// and h.
func BySelectorAndHandler(selector string, h *Handler) Filter {
	return Filter{kind: filterSelectorAndHandler, selector: selector, handler: h}
}

// String returns a short description of the filter.
func (f Filter) String() string {
	switch f.kind {
	case filterSelector:
		return "selector=" + f.selector
	case filterHandler:
		return "handler"
	case filterSelectorAndHandler:
		return "selector=" + f.selector + "+handler"
	default:
		return "all"
	}
}

func (f Filter) matches(r *registration) bool {
	switch f.kind {
	case filterSelector:
		return r.selector == f.selector
	case filterHandler:
		return r.handler == f.handler
	case filterSelectorAndHandler:
		return r.selector == f.selector && r.handler == f.handler
	default:
		return true
	}
}
