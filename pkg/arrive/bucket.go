package arrive

// bucket is the ordered store of live registrations of one kind.
type bucket struct {
	kind Kind
	regs []*registration

	// beforeAdding must attach the registration's observer. An error
	// aborts the add.
	beforeAdding func(*registration) error

	// beforeRemoving releases the registration's observer and timer.
	beforeRemoving func(*registration)
}

func newBucket(k Kind) *bucket {
	return &bucket{kind: k}
}

func (b *bucket) add(r *registration) error {
	if b.beforeAdding != nil {
		if err := b.beforeAdding(r); err != nil {
			return err
		}
	}
	r.live = true
	b.regs = append(b.regs, r)
	return nil
}

// removeWhere removes every registration for which match returns true and
// returns them in store order. The store slice is rebuilt rather than
// spliced in place, so callers iterating an older snapshot are unaffected.
func (b *bucket) removeWhere(match func(*registration) bool) []*registration {
	var removed []*registration
	kept := make([]*registration, 0, len(b.regs))
	for _, r := range b.regs {
		if !match(r) {
			kept = append(kept, r)
			continue
		}
		if b.beforeRemoving != nil {
			b.beforeRemoving(r)
		}
		r.live = false
		removed = append(removed, r)
	}
	if len(removed) > 0 {
		b.regs = kept
	}
	return removed
}

func (b *bucket) contains(r *registration) bool {
	return r.live && r.kind == b.kind
}

func (b *bucket) len() int {
	return len(b.regs)
}
