package arrive

import "golang.org/x/net/html"

// Handler wraps a callback. Its pointer identity is what ByHandler and
// BySelectorAndHandler unbind by, so keep the *Handler to unbind later.
type Handler struct {
	fn func(*html.Node)
}

// NewHandler wraps fn. fn receives the matched element, or nil when a
// timeout elapsed first.
func NewHandler(fn func(n *html.Node)) *Handler {
	return &Handler{fn: fn}
}

func (h *Handler) call(n *html.Node) {
	if h == nil || h.fn == nil {
		return
	}
	h.fn(n)
}
