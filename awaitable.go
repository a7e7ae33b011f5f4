package awaitio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNegativeDuration is returned by the sleeping awaitables when
// asked to sleep for less than zero.
var ErrNegativeDuration = errors.New("awaitio: negative duration")

// Awaitable is anything a task can suspend on. Await runs on the
// awaiting task and returns once the awaited work has completed.
type Awaitable interface {
	Await(ctx context.Context, t *Task) error
}

// AwaitableFunc adapts an ordinary function to Awaitable.
type AwaitableFunc func(ctx context.Context, t *Task) error

func (f AwaitableFunc) Await(ctx context.Context, t *Task) error {
	return f(ctx, t)
}

// Main runs aw as the root task of a fresh loop on s and returns its
// error once every task spawned along the way has finished.
func Main(ctx context.Context, s *Scheduler, aw Awaitable) error {
	var err error
	s.Run(func(ctx context.Context, t *Task) {
		err = aw.Await(ctx, t)
	}).Resume(ctx)
	return err
}

// Measure awaits aw on t and reports how long that took on the
// scheduler clock.
func Measure(ctx context.Context, t *Task, aw Awaitable) (time.Duration, error) {
	start := t.Clock().Now()
	err := aw.Await(ctx, t)
	return t.Clock().Since(start), err
}

// Handle is an awaitable view of a spawned task. Any number of tasks
// may await it; each observes the same error.
type Handle struct {
	wg   WaitGroup
	err  error
	done bool
}

// Spawn schedules aw on its own child task of t and returns at the
// child's first suspension point.
func Spawn(t *Task, aw Awaitable) *Handle {
	h := new(Handle)
	h.wg.Add(1)
	t.Spawn(func(ctx context.Context, t *Task) {
		defer h.wg.Done()
		h.err = aw.Await(ctx, t)
		h.done = true
	})
	return h
}

// Done reports whether the spawned task has returned.
func (h *Handle) Done() bool {
	return h.done
}

func (h *Handle) Await(_ context.Context, t *Task) error {
	h.wg.Wait(t)
	return h.err
}

type sequence []Awaitable

// Sequence awaits each awaitable in turn on the awaiting task. The
// total wall time is at least the sum of the parts. It stops at the
// first error.
func Sequence(aws ...Awaitable) Awaitable {
	return sequence(aws)
}

func (s sequence) Await(ctx context.Context, t *Task) error {
	for i, aw := range s {
		if err := aw.Await(ctx, t); err != nil {
			return fmt.Errorf("sequence step %d: %w", i, err)
		}
	}
	return nil
}

type gather []Awaitable

// Gather awaits every awaitable on its own child task, so their
// suspension points interleave. The total wall time is at least the
// longest part and less than the sum. The first error wins.
func Gather(aws ...Awaitable) Awaitable {
	return gather(aws)
}

func (g gather) Await(_ context.Context, t *Task) error {
	group := t.Group()
	for _, aw := range g {
		group.Spawn(aw)
	}
	return group.Wait(t)
}

type shared struct {
	key any
	aw  Awaitable
}

// Shared lets concurrent awaiters using the same key share a single
// execution of aw. Once that execution has returned, the next awaiter
// starts a new one.
func Shared(key any, aw Awaitable) Awaitable {
	return &shared{key: key, aw: aw}
}

func (s *shared) Await(ctx context.Context, t *Task) error {
	_, err, _ := t.Do(s.key, func() (any, error) {
		return nil, s.aw.Await(ctx, t)
	})
	return err
}
