package scenario

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/arrive/internal/errors"
)

// Step ops.
const (
	OpAppend     = "append"
	OpRemove     = "remove"
	OpSetAttr    = "setAttr"
	OpRemoveAttr = "removeAttr"
	OpAdvance    = "advance"
	OpUnbind     = "unbind"
)

// Step is one action of a scenario. Exactly one field besides Line is set.
type Step struct {
	Append     *AppendStep
	Remove     string
	SetAttr    *AttrStep
	RemoveAttr *AttrStep
	Advance    Duration
	Unbind     string

	// Line is the step's line in the scenario file.
	Line int
}

// AppendStep parses HTML and appends it to the node Parent selects.
type AppendStep struct {
	Parent string `yaml:"parent"`
	HTML   string `yaml:"html"`
}

// AttrStep sets or removes an attribute on the node Target selects.
type AttrStep struct {
	Target string `yaml:"target"`
	Name   string `yaml:"name"`
	Value  string `yaml:"value,omitempty"`
}

// Op returns the step's operation name.
func (s Step) Op() string {
	switch {
	case s.Append != nil:
		return OpAppend
	case s.Remove != "":
		return OpRemove
	case s.SetAttr != nil:
		return OpSetAttr
	case s.RemoveAttr != nil:
		return OpRemoveAttr
	case s.Unbind != "":
		return OpUnbind
	default:
		return OpAdvance
	}
}

// UnmarshalYAML decodes a single-key mapping such as `remove: "#a"`.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	s.Line = value.Line
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("A201").
			WithDetail("a step is a mapping with exactly one key").
			WithLocation("", value.Line, value.Column)
	}

	key, body := value.Content[0], value.Content[1]
	var err error
	switch key.Value {
	case OpAppend:
		s.Append = &AppendStep{}
		err = body.Decode(s.Append)
	case OpRemove:
		err = body.Decode(&s.Remove)
		if err == nil && s.Remove == "" {
			err = fmt.Errorf("remove needs a selector")
		}
	case OpSetAttr:
		s.SetAttr = &AttrStep{}
		err = body.Decode(s.SetAttr)
	case OpRemoveAttr:
		s.RemoveAttr = &AttrStep{}
		err = body.Decode(s.RemoveAttr)
	case OpAdvance:
		err = body.Decode(&s.Advance)
	case OpUnbind:
		err = body.Decode(&s.Unbind)
		if err == nil && s.Unbind == "" {
			err = fmt.Errorf("unbind needs a registration name")
		}
	default:
		return errors.New("A201").
			WithDetail(fmt.Sprintf("%q", key.Value)).
			WithLocation("", key.Line, key.Column).
			WithSuggestion("Use append, remove, setAttr, removeAttr, advance or unbind")
	}
	if err != nil {
		return errors.New("A200").
			WithDetail(key.Value + " step").
			WithLocation("", key.Line, key.Column).
			Wrap(err)
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
