package awaitio

import (
	"context"
	"fmt"
	"time"

	"github.com/webriots/awaitio/internal/logger"
)

func checkDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDuration, d)
	}
	return nil
}

// SleepAwaitable suspends the awaiting task on a single timer.
type SleepAwaitable struct {
	Duration time.Duration
}

// Sleep returns an awaitable that suspends on a timer of duration d.
func Sleep(d time.Duration) *SleepAwaitable {
	return &SleepAwaitable{Duration: d}
}

func (s *SleepAwaitable) Await(ctx context.Context, t *Task) error {
	if err := checkDuration(s.Duration); err != nil {
		return err
	}

	l := logger.StdlibLogger(ctx).With("awaitable", "Sleep")
	start := t.Clock().Now()
	l.InfoContext(ctx, "start sleeping", "at", seconds(t.Elapsed()))

	t.Sleep(s.Duration)

	l.InfoContext(ctx, "slept", "for", seconds(t.Clock().Since(start)))
	return nil
}

// PollSleepAwaitable never arms a timer. It yields to the scheduler
// over and over and checks the clock each time it is resumed.
type PollSleepAwaitable struct {
	Duration time.Duration
}

// PollSleep returns an awaitable that yields until d has elapsed.
func PollSleep(d time.Duration) *PollSleepAwaitable {
	return &PollSleepAwaitable{Duration: d}
}

func (s *PollSleepAwaitable) Await(ctx context.Context, t *Task) error {
	if err := checkDuration(s.Duration); err != nil {
		return err
	}

	l := logger.StdlibLogger(ctx).With("awaitable", "PollSleep")
	start := t.Clock().Now()
	l.InfoContext(ctx, "start", "at", seconds(t.Elapsed()))

	yields := 0
	for t.Clock().Since(start) < s.Duration {
		t.Yield()
		yields++
	}

	l.InfoContext(ctx, "slept", "for", seconds(t.Clock().Since(start)), "yields", yields)
	return nil
}

// TaskSleepAwaitable hands the sleeping to an independently scheduled
// task and suspends until that task completes.
type TaskSleepAwaitable struct {
	Duration time.Duration
}

// TaskSleep returns an awaitable that waits on a spawned Sleep(d).
func TaskSleep(d time.Duration) *TaskSleepAwaitable {
	return &TaskSleepAwaitable{Duration: d}
}

func (s *TaskSleepAwaitable) Await(ctx context.Context, t *Task) error {
	if err := checkDuration(s.Duration); err != nil {
		return err
	}

	l := logger.StdlibLogger(ctx).With("awaitable", "TaskSleep")
	start := t.Clock().Now()
	l.InfoContext(ctx, "start", "at", seconds(t.Elapsed()))

	h := Spawn(t, AwaitableFunc(func(_ context.Context, t *Task) error {
		t.Sleep(s.Duration)
		return nil
	}))
	if err := h.Await(ctx, t); err != nil {
		return err
	}

	l.InfoContext(ctx, "slept", "for", seconds(t.Clock().Since(start)))
	return nil
}

// seconds renders d the way the demo prints timestamps.
func seconds(d time.Duration) float64 {
	return d.Seconds()
}
