// Package errors provides structured, actionable error values for arrive.
//
// Every error carries a short code (e.g. "A001") that maps to a registered
// message and category. Errors can be enriched with a detail line, a hint,
// and the position in a scenario file where the problem was found:
//
//	err := errors.New("A201").
//	    WithLocation("scenarios/list.yaml", 12, 5).
//	    WithSuggestion("Use one of: append, remove, setAttr, removeAttr, advance")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR A201: Unknown scenario step
//	//
//	//   scenarios/list.yaml:12:5
//	//
//	//   Hint: Use one of: append, remove, setAttr, removeAttr, advance
//
// # Categories
//
//   - runtime: misuse of the engine API (nil target, negative timeout)
//   - config: arrive.json problems
//   - scenario: scenario file parsing and replay problems
//   - cli: command line usage problems
package errors
