package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/arrive/internal/errors"
)

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("A011")

// Loop is a FIFO task queue executed by a single goroutine at a time.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	stopped chan struct{}
	stop    sync.Once

	// runMu serializes Drain and Run so tasks never overlap.
	runMu sync.Mutex

	clock  Clock
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used by AfterFunc.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger sets the logger used to report task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates an idle Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
		clock:   SystemClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the loop's clock.
func (l *Loop) Clock() Clock {
	return l.clock
}

// Post appends fn to the task queue. It is safe to call from any goroutine,
// including from a running task.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Drain runs queued tasks in the calling goroutine until the queue is
// empty, including tasks posted while draining. It returns the number of
// tasks run. Drain must not be called from inside a task.
func (l *Loop) Drain() int {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	n := 0
	for {
		fn := l.next()
		if fn == nil {
			return n
		}
		l.runTask(fn)
		n++
	}
}

// Run serves the loop until ctx is done. After Run returns, Do fails with
// ErrStopped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop.Do(func() { close(l.stopped) })

	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Do runs fn on the loop and waits for it to finish. It must be called from
// outside the loop while Run is serving it.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}

	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc schedules fn to be posted to the loop after d. A stopped or
// reset timer whose expiry was already posted does not run fn.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{loop: l, fn: fn}
	t.mu.Lock()
	t.inner = l.clock.AfterFunc(d, t.expire(t.gen))
	t.mu.Unlock()
	return t
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// loopTimer tags each arming with a generation so that an expiry posted
// before Stop or Reset is discarded when it reaches the front of the queue.
type loopTimer struct {
	loop  *Loop
	fn    func()
	mu    sync.Mutex
	gen   uint64
	inner Timer
}

func (t *loopTimer) expire(gen uint64) func() {
	return func() {
		t.loop.Post(func() {
			t.mu.Lock()
			current := t.gen == gen
			if current {
				t.gen++
			}
			t.mu.Unlock()
			if current {
				t.fn()
			}
		})
	}
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	return t.inner.Stop()
}

func (t *loopTimer) Reset(d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	was := t.inner.Stop()
	t.inner = t.loop.clock.AfterFunc(d, t.expire(t.gen))
	return was
}
