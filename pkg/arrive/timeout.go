package arrive

// armTimer starts r's countdown if it has a timeout.
func (e *Engine) armTimer(r *registration) {
	if r.opts.Timeout <= 0 {
		return
	}
	r.timer = e.host.AfterFunc(r.opts.Timeout, func() {
		e.onTimeout(r)
	})
}

// restartTimer resets r's countdown to the full timeout after a match,
// re-arming it if it already elapsed.
func (e *Engine) restartTimer(r *registration) {
	if r.timer != nil {
		r.timer.Reset(r.opts.Timeout)
	}
}

// onTimeout fires r's handler with nil. A onceOnly registration is unbound
// first; any other registration stays bound and is only re-armed by its
// next match.
func (e *Engine) onTimeout(r *registration) {
	if r.done || !e.bucket(r.kind).contains(r) {
		return
	}

	final := false
	if r.opts.OnceOnly {
		r.done = true
		final = true
		e.unbindBinding(r)
	}
	e.logger.Debug("timeout", "kind", r.kind, "selector", r.selector, "after", r.opts.Timeout)
	e.dispatch([]pending{{reg: r, final: final, cause: causeTimeout}})
}
