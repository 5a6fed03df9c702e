package scenario

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/arrive/internal/errors"
	"github.com/vango-dev/arrive/pkg/arrive"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name          string         `yaml:"name,omitempty"`
	Document      string         `yaml:"document"`
	Registrations []Registration `yaml:"registrations"`
	Steps         []Step         `yaml:"steps"`
}

// Registration binds one handler before the steps run.
type Registration struct {
	Name string `yaml:"name"`

	// Kind is "arrive" or "leave".
	Kind string `yaml:"kind"`

	// Target selects the node to bind on. Empty binds on the document.
	Target   string  `yaml:"target,omitempty"`
	Selector string  `yaml:"selector"`
	Options  Options `yaml:"options,omitempty"`

	Line int `yaml:"-"`
}

// Options is the YAML form of arrive.Options.
type Options struct {
	OnceOnly                     bool     `yaml:"onceOnly,omitempty"`
	Existing                     bool     `yaml:"existing,omitempty"`
	FireOnAttributesModification bool     `yaml:"fireOnAttributesModification,omitempty"`
	AttributeFilter              []string `yaml:"attributeFilter,omitempty"`
	Timeout                      Duration `yaml:"timeout,omitempty"`
}

// BindOptions converts o into bind options layered over engine defaults.
// Unset fields keep the defaults.
func (o Options) BindOptions() []arrive.Option {
	var opts []arrive.Option
	if o.OnceOnly {
		opts = append(opts, arrive.OnceOnly())
	}
	if o.Existing {
		opts = append(opts, arrive.Existing())
	}
	if o.FireOnAttributesModification {
		opts = append(opts, arrive.FireOnAttributesModification())
	}
	if len(o.AttributeFilter) > 0 {
		opts = append(opts, arrive.AttributeFilter(o.AttributeFilter...))
	}
	if o.Timeout != 0 {
		opts = append(opts, arrive.Timeout(time.Duration(o.Timeout)))
	}
	return opts
}

func (r *Registration) UnmarshalYAML(value *yaml.Node) error {
	type plain Registration
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	r.Line = value.Line
	return nil
}

func (r Registration) kind() (arrive.Kind, bool) {
	switch r.Kind {
	case "arrive", "":
		return arrive.KindArrive, true
	case "leave":
		return arrive.KindLeave, true
	default:
		return 0, false
	}
}

// Parse decodes a scenario and validates it.
func Parse(data []byte) (*Scenario, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a scenario from r and validates it.
func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		var ae *errors.ArriveError
		if stderrors.As(err, &ae) {
			return nil, ae
		}
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New("A200").WithDetail("empty scenario")
		}
		return nil, errors.New("A200").Wrap(err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks registrations and steps for consistency.
func (sc *Scenario) Validate() error {
	names := make(map[string]bool, len(sc.Registrations))
	for i, r := range sc.Registrations {
		if r.Name == "" {
			return errors.New("A200").
				WithDetail(fmt.Sprintf("registration %d has no name", i+1)).
				WithLocation("", r.Line, 0)
		}
		if names[r.Name] {
			return errors.New("A200").
				WithDetail("duplicate registration " + r.Name).
				WithLocation("", r.Line, 0)
		}
		names[r.Name] = true

		if _, ok := r.kind(); !ok {
			return errors.New("A203").
				WithDetail(fmt.Sprintf("%s: %q", r.Name, r.Kind)).
				WithLocation("", r.Line, 0).
				WithSuggestion("Use arrive or leave")
		}
		if r.Selector == "" {
			return errors.New("A200").
				WithDetail(r.Name + " has no selector").
				WithLocation("", r.Line, 0)
		}
		if r.Options.Timeout < 0 {
			return errors.New("A003").
				WithDetail(r.Name).
				WithLocation("", r.Line, 0)
		}
	}

	for _, s := range sc.Steps {
		if s.Unbind != "" && !names[s.Unbind] {
			return errors.New("A200").
				WithDetail("unbind of unknown registration " + s.Unbind).
				WithLocation("", s.Line, 0)
		}
		if s.Advance < 0 {
			return errors.New("A200").
				WithDetail("advance must not be negative").
				WithLocation("", s.Line, 0)
		}
	}
	return nil
}
