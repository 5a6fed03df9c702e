package arrive

import (
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled selector.
type Selector interface {
	Match(n *html.Node) bool
}

// Matcher compiles selector strings. Compile errors are returned to the
// caller of the bind unchanged.
type Matcher interface {
	Compile(selector string) (Selector, error)
}

// maxCachedSelectors bounds the compiled selector cache.
const maxCachedSelectors = 512

// CascadiaMatcher returns a Matcher backed by cascadia, caching compiled
// selectors.
func CascadiaMatcher() Matcher {
	return &cascadiaMatcher{cache: make(map[string]cascadia.Selector)}
}

type cascadiaMatcher struct {
	mu    sync.Mutex
	cache map[string]cascadia.Selector
}

func (m *cascadiaMatcher) Compile(selector string) (Selector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel, ok := m.cache[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	if len(m.cache) >= maxCachedSelectors {
		clear(m.cache)
	}
	m.cache[selector] = sel
	return sel, nil
}

// matches tests n against sel; only element nodes can match.
func matches(sel Selector, n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && sel.Match(n)
}
