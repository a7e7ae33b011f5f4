// Package demo walks through the awaiting protocol: introspection of
// an awaitable, a native sleep, polling sleeps run one after another
// and then gathered, and a sleep delegated to a spawned task.
package demo

import (
	"context"
	"time"

	"github.com/webriots/awaitio"
	"github.com/webriots/awaitio/internal/logger"
)

// Timings records the wall time of each phase.
type Timings struct {
	Native     time.Duration
	Sequential time.Duration
	Concurrent time.Duration
	Delegated  time.Duration
}

// Run executes the whole walkthrough on s, logging to the logger in
// ctx.
func Run(ctx context.Context, s *awaitio.Scheduler, first, second time.Duration) (Timings, error) {
	var tm Timings
	l := logger.StdlibLogger(ctx)

	sleep := awaitio.Sleep(first)
	report(ctx, l, awaitio.Inspect("Sleep", awaitio.Sleep))
	report(ctx, l, awaitio.Inspect("sleep", sleep))
	report(ctx, l, awaitio.Inspect("AwaitableFunc(sleep.Await)", awaitio.AwaitableFunc(sleep.Await)))

	err := awaitio.Main(ctx, s, awaitio.AwaitableFunc(func(ctx context.Context, t *awaitio.Task) error {
		var err error

		if tm.Native, err = awaitio.Measure(ctx, t, sleep); err != nil {
			return err
		}

		l.InfoContext(ctx, "sequential sleep")
		tm.Sequential, err = awaitio.Measure(ctx, t, awaitio.Sequence(
			awaitio.PollSleep(first),
			awaitio.PollSleep(second),
		))
		if err != nil {
			return err
		}
		l.InfoContext(ctx, "sequential done", "took", tm.Sequential.Seconds())

		l.InfoContext(ctx, "concurrent sleep")
		tm.Concurrent, err = awaitio.Measure(ctx, t, awaitio.Gather(
			awaitio.PollSleep(first),
			awaitio.PollSleep(second),
		))
		if err != nil {
			return err
		}
		l.InfoContext(ctx, "concurrent done", "took", tm.Concurrent.Seconds())
		l.InfoContext(ctx, "finished", "at", t.Elapsed().Seconds())

		tm.Delegated, err = awaitio.Measure(ctx, t, awaitio.TaskSleep(first))
		return err
	}))

	return tm, err
}

func report(ctx context.Context, l logger.Logger, checks []awaitio.Check) {
	for _, c := range checks {
		l.InfoContext(ctx, c.String())
	}
}
