package awaitio

import (
	"context"

	"github.com/jonboulle/clockwork"
)

const (
	// ScheduleTimerConcurrencyLimit defines how many fired batches a
	// loop buffers before dispatcher goroutines block on delivery.
	ScheduleTimerConcurrencyLimit = 128
)

// Scheduler manages the scheduling of tasks and their timers. It
// holds the clock and the dispatcher that arms timers. One Scheduler
// may drive several loops at once; each Resume gets its own fired
// channel.
type Scheduler struct {
	clock    clockwork.Clock
	dispatch Dispatcher
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for timers and elapsed time. Tests
// pass a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithDispatcher replaces the default ClockDispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Scheduler) {
		s.dispatch = d
	}
}

// New creates a Scheduler on the real clock with a ClockDispatcher
// unless options say otherwise.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    clockwork.NewRealClock(),
		dispatch: new(ClockDispatcher),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Clock returns the scheduler clock.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Resumable represents a root function that can be resumed with a
// Scheduler.
type Resumable struct {
	fn    func(context.Context, *Task)
	sched *Scheduler
}

// Run creates a Resumable from a function that takes a context and a
// Task. The function will be executed when the Resumable is resumed.
func (s *Scheduler) Run(fn func(context.Context, *Task)) *Resumable {
	return &Resumable{fn: fn, sched: s}
}

// Go creates a Resumable from a function that only takes a context.
func (s *Scheduler) Go(fn func(context.Context)) *Resumable {
	return s.Run(Fn(fn))
}

// Resume runs the loop until the root function and every task it
// spawned have finished.
func (r *Resumable) Resume(ctx context.Context) {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loop(rctx, r.fn, r.sched)
}

// Fn adapts a context-only function to the Task-based signature. The
// task is still reachable through TaskFromContext.
func Fn(fn func(context.Context)) func(context.Context, *Task) {
	return func(ctx context.Context, _ *Task) { fn(ctx) }
}
