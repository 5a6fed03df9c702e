package dom

import (
	"fmt"
	"slices"

	"golang.org/x/net/html"
)

// RecordType identifies the kind of change a MutationRecord describes.
type RecordType uint8

const (
	ChildList  RecordType = iota + 1 // Children added or removed
	Attributes                       // An attribute changed
)

// String returns the string representation of the RecordType.
func (t RecordType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// MutationRecord describes one change to the tree.
type MutationRecord struct {
	Type            RecordType
	Target          *html.Node   // Parent for ChildList, element for Attributes
	AddedNodes      []*html.Node // ChildList only
	RemovedNodes    []*html.Node // ChildList only
	PreviousSibling *html.Node
	NextSibling     *html.Node
	AttributeName   string // Attributes only
	OldValue        string // Set only when AttributeOldValue was requested
}

// ObserveOptions selects which changes an observer receives.
type ObserveOptions struct {
	ChildList         bool     // Observe children being added or removed
	Attributes        bool     // Observe attribute changes
	Subtree           bool     // Observe descendants of the target too
	AttributeOldValue bool     // Record previous attribute values
	AttributeFilter   []string // Only observe these attributes
}

// MutationCallback receives a batch of records.
type MutationCallback func(records []MutationRecord, observer *MutationObserver)

// MutationObserver collects records for the nodes it observes and delivers
// them as one batch per loop task.
type MutationObserver struct {
	doc       *Document
	callback  MutationCallback
	targets   map[*html.Node]ObserveOptions
	pending   []MutationRecord
	scheduled bool
}

// NewObserver creates an observer that reports to cb. It observes nothing
// until Observe is called.
func (d *Document) NewObserver(cb MutationCallback) *MutationObserver {
	return &MutationObserver{
		doc:      d,
		callback: cb,
		targets:  make(map[*html.Node]ObserveOptions),
	}
}

// Observe starts observing target. Observing the same target again
// replaces its options.
func (o *MutationObserver) Observe(target *html.Node, opts ObserveOptions) error {
	if target == nil {
		return fmt.Errorf("observe: target is nil")
	}
	if len(opts.AttributeFilter) > 0 || opts.AttributeOldValue {
		opts.Attributes = true
	}
	if !opts.ChildList && !opts.Attributes {
		return fmt.Errorf("observe: at least one of ChildList or Attributes must be set")
	}

	if len(o.targets) == 0 {
		o.doc.register(o)
	}
	o.targets[target] = opts
	return nil
}

// Disconnect stops all observation and drops records not yet delivered.
// A delivery task already posted to the loop finds nothing to deliver.
func (o *MutationObserver) Disconnect() {
	if len(o.targets) > 0 {
		o.doc.unregister(o)
	}
	clear(o.targets)
	o.pending = nil
}

// TakeRecords returns and clears the pending records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	records := o.pending
	o.pending = nil
	return records
}

// options returns the options that apply to changes on target, checking
// ancestors for subtree observation.
func (o *MutationObserver) options(target *html.Node) (ObserveOptions, bool) {
	if opts, ok := o.targets[target]; ok {
		return opts, true
	}
	for n := target.Parent; n != nil; n = n.Parent {
		if opts, ok := o.targets[n]; ok && opts.Subtree {
			return opts, true
		}
	}
	return ObserveOptions{}, false
}

func (o *MutationObserver) wants(r MutationRecord) (MutationRecord, bool) {
	opts, ok := o.options(r.Target)
	if !ok {
		return r, false
	}
	switch r.Type {
	case ChildList:
		return r, opts.ChildList
	case Attributes:
		if !opts.Attributes {
			return r, false
		}
		if len(opts.AttributeFilter) > 0 && !slices.Contains(opts.AttributeFilter, r.AttributeName) {
			return r, false
		}
		if !opts.AttributeOldValue {
			r.OldValue = ""
		}
		return r, true
	}
	return r, false
}

func (o *MutationObserver) queue(r MutationRecord) {
	o.pending = append(o.pending, r)
	if o.scheduled {
		return
	}
	o.scheduled = true
	o.doc.loop.Post(o.deliver)
}

func (o *MutationObserver) deliver() {
	o.scheduled = false
	records := o.TakeRecords()
	if len(records) == 0 {
		return
	}
	o.callback(records, o)
}

func (d *Document) register(o *MutationObserver) {
	d.observers = append(d.observers, o)
}

func (d *Document) unregister(o *MutationObserver) {
	for i, other := range d.observers {
		if other == o {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

// notify queues r on every observer interested in it. Observers are
// visited in registration order.
func (d *Document) notify(r MutationRecord) {
	for _, o := range slices.Clone(d.observers) {
		if rec, ok := o.wants(r); ok {
			o.queue(rec)
		}
	}
}

// Observers returns the number of observers with at least one target.
func (d *Document) Observers() int {
	return len(d.observers)
}
