// Package loop provides the single-threaded task loop that arrive runs on.
//
// Mutation deliveries, timer expirations and caller work are all posted to a
// Loop as tasks and executed one at a time in FIFO order. Nothing that runs
// on the loop blocks; waiting is expressed by returning and being re-entered
// by a later task.
//
// # Driving the loop
//
// A Loop can be served by a dedicated goroutine with Run, or drained in the
// calling goroutine with Drain. The latter is what tests and scenario replay
// use together with a ManualClock:
//
//	clock := loop.NewManualClock(time.Time{})
//	l := loop.New(loop.WithClock(clock))
//	l.AfterFunc(300*time.Millisecond, func() { fmt.Println("expired") })
//	clock.Advance(300 * time.Millisecond)
//	l.Drain() // prints "expired"
package loop
