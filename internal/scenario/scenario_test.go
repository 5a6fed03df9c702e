package scenario

import (
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/arrive/internal/errors"
)

const listScenario = `
name: list
document: |
  <ul id="list"><li class="item" id="a">first</li></ul>
registrations:
  - name: items
    kind: arrive
    target: "#list"
    selector: li.item
    options: {existing: true, timeout: 300ms}
  - name: gone
    kind: leave
    selector: li.item
steps:
  - append: {parent: "#list", html: '<li class="item" id="b">second</li>'}
  - advance: 100ms
  - remove: "#a"
  - advance: 300ms
  - unbind: items
  - append: {parent: "#list", html: '<li class="item" id="c"></li>'}
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(listScenario))
	if err != nil {
		t.Fatal(err)
	}

	if sc.Name != "list" || len(sc.Registrations) != 2 || len(sc.Steps) != 6 {
		t.Fatalf("parsed %+v", sc)
	}
	items := sc.Registrations[0]
	if !items.Options.Existing || time.Duration(items.Options.Timeout) != 300*time.Millisecond {
		t.Errorf("items options = %+v", items.Options)
	}
	if items.Line != 6 {
		t.Errorf("items.Line = %d, want 6", items.Line)
	}

	wantOps := []string{OpAppend, OpAdvance, OpRemove, OpAdvance, OpUnbind, OpAppend}
	for i, s := range sc.Steps {
		if s.Op() != wantOps[i] {
			t.Errorf("step %d op = %s, want %s", i, s.Op(), wantOps[i])
		}
	}
	if sc.Steps[0].Append.Parent != "#list" || !strings.Contains(sc.Steps[0].Append.HTML, `id="b"`) {
		t.Errorf("append step = %+v", sc.Steps[0].Append)
	}
	if sc.Steps[2].Line != 17 {
		t.Errorf("remove step line = %d, want 17", sc.Steps[2].Line)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		line int
	}{
		{
			name: "empty",
			src:  ``,
			code: "A200",
		},
		{
			name: "unknown field",
			src:  "document: x\nwhatever: 1\n",
			code: "A200",
		},
		{
			name: "unknown step",
			src:  "document: x\nsteps:\n  - explode: \"#a\"\n",
			code: "A201",
			line: 3,
		},
		{
			name: "step with two keys",
			src:  "document: x\nsteps:\n  - remove: \"#a\"\n    advance: 1s\n",
			code: "A201",
			line: 3,
		},
		{
			name: "bad duration",
			src:  "document: x\nsteps:\n  - advance: soon\n",
			code: "A200",
			line: 3,
		},
		{
			name: "unknown kind",
			src:  "document: x\nregistrations:\n  - name: r\n    kind: hover\n    selector: p\n",
			code: "A203",
			line: 3,
		},
		{
			name: "duplicate registration",
			src:  "document: x\nregistrations:\n  - {name: r, selector: p}\n  - {name: r, selector: li}\n",
			code: "A200",
			line: 4,
		},
		{
			name: "unbind unknown",
			src:  "document: x\nsteps:\n  - unbind: nobody\n",
			code: "A200",
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("Parse() error = %v, want %s", err, tt.code)
			}
			if tt.line == 0 {
				return
			}
			ae := errors.FromError(err, "")
			if ae.Location == nil || ae.Location.Line != tt.line {
				t.Errorf("Location = %v, want line %d", ae.Location, tt.line)
			}
		})
	}
}

func TestDefaultKindIsArrive(t *testing.T) {
	sc, err := Parse([]byte("document: x\nregistrations:\n  - {name: r, selector: p}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if k, ok := sc.Registrations[0].kind(); !ok || k.String() != "arrive" {
		t.Errorf("kind() = %v, %v", k, ok)
	}
}
