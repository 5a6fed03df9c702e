package arrive

import (
	"slices"
	"time"

	"github.com/vango-dev/arrive/internal/errors"
)

// Options is the resolved configuration of a registration.
type Options struct {
	// FireOnAttributesModification also tests an element when one of its
	// attributes changes. Arrive only.
	FireOnAttributesModification bool

	// AttributeFilter restricts attribute observation to these names.
	// Empty means every attribute. Arrive only.
	AttributeFilter []string

	// OnceOnly removes the registration after its first firing.
	OnceOnly bool

	// Existing fires for matching elements already present at bind time.
	// Arrive only.
	Existing bool

	// Timeout fires the handler with a nil node when no match happens
	// within the duration. Zero disables it.
	Timeout time.Duration
}

// Option modifies Options at bind time.
type Option func(*Options)

// OnceOnly makes the registration fire at most once.
func OnceOnly() Option {
	return func(o *Options) {
		o.OnceOnly = true
	}
}

// Existing makes an arrive registration fire for elements present at bind
// time.
func Existing() Option {
	return func(o *Options) {
		o.Existing = true
	}
}

// FireOnAttributesModification makes an arrive registration test elements
// whose attributes change.
func FireOnAttributesModification() Option {
	return func(o *Options) {
		o.FireOnAttributesModification = true
	}
}

// AttributeFilter limits attribute observation to names. It implies
// FireOnAttributesModification.
func AttributeFilter(names ...string) Option {
	return func(o *Options) {
		o.FireOnAttributesModification = true
		o.AttributeFilter = append(o.AttributeFilter[:0:0], names...)
	}
}

// Timeout fires the handler with nil if no element matches within d.
func Timeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// With replaces every option with o.
func With(o Options) Option {
	return func(dst *Options) {
		*dst = o
		dst.AttributeFilter = slices.Clone(o.AttributeFilter)
	}
}

// Defaults holds the starting options for each kind before per-call
// options are applied.
type Defaults struct {
	Arrive Options
	Leave  Options
}

// DefaultDefaults returns the built-in defaults: everything off, no
// timeout.
func DefaultDefaults() Defaults {
	return Defaults{}
}

func (d Defaults) forKind(k Kind) Options {
	if k == KindLeave {
		return d.Leave
	}
	return d.Arrive
}

// resolve merges opts over the kind's defaults. Arrive-only options are
// cleared for leave.
func resolve(k Kind, d Defaults, opts []Option) (Options, error) {
	o := d.forKind(k)
	o.AttributeFilter = slices.Clone(o.AttributeFilter)
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Timeout < 0 {
		return Options{}, errors.New("A003").WithDetail(o.Timeout.String())
	}
	if len(o.AttributeFilter) > 0 {
		o.FireOnAttributesModification = true
	}
	if k == KindLeave {
		o.FireOnAttributesModification = false
		o.AttributeFilter = nil
		o.Existing = false
	}
	return o, nil
}
