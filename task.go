package awaitio

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/webriots/coro"
)

const (
	taskTraceTaskType   = "awaitio-task"
	taskTraceRegionType = "awaitio-region"
	taskTraceCategory   = "awaitio"
)

// Task is one coroutine driven by the scheduler loop. Only one task
// runs at a time. A task gives up control at Sleep, Yield, Wait or
// while blocked on a WaitGroup, and is resumed by the loop or by the
// task that released it.
type Task struct {
	ctx     context.Context
	suspend func() time.Time
	resume  func(time.Time) (struct{}, bool)
	cancel  func()
	timers  *timerQueue
	single  *singleFlight
	sched   *Scheduler
	parent  *Task
	epoch   time.Time
	childn  int
	waiting bool
	done    bool
}

// loop drives one root task and everything it spawns. Fired batches
// come back on a channel owned by this loop alone, so loops sharing a
// Scheduler never run each other's tasks.
func loop(
	ctx context.Context,
	fn func(context.Context, *Task),
	sched *Scheduler,
) {
	var tracer *trace.Task

	ctx, tracer = trace.NewTask(ctx, taskTraceTaskType)
	defer tracer.End()

	fired := make(chan *Batch, ScheduleTimerConcurrencyLimit)

	t := newTask(ctx, fn, nil)
	t.sched = sched
	t.epoch = sched.Clock().Now()
	defer t.cancel()

	trace.Logf(ctx, taskTraceCategory, "LOOP")

	t.resumez()

	for pending := 0; t.timers.len() > 0 || pending > 0; {
		trace.Logf(ctx, taskTraceCategory, "LOOP TIMERS %v PENDING %v", t.timers.len(), pending)

		if t.timers.len() > 0 {
			sched.dispatch.Dispatch(
				t.ctx,
				sched.Clock(),
				t.timers.requests,
				fired,
			)
		}

		pending += t.timers.len()
		trace.Log(ctx, taskTraceCategory, "TIMER WAIT")
		batch := <-fired
		t.timers.reset()

	again:
		batch.validate()
		pending -= batch.len()

		for _, f := range batch.firings {
			task := f.req.task
			task.Log("TIMER FIRED")
			task.run(f.at)
		}
		select {
		case batch = <-fired:
			goto again
		default:
		}
	}

	// Nothing is queued or in flight, so no timer will ever resume a
	// task that is still suspended.
	if !t.done {
		panic("awaitio: all tasks are asleep")
	}

	if t.childn > 0 {
		panic("awaitio: task.childn > 0")
	}

	trace.Log(ctx, taskTraceCategory, "LOOP DONE")
}

// newTask wraps fn in a coroutine. A task always waits for its own
// children before it finishes, so no child outlives its parent.
func newTask(
	ctx context.Context,
	fn func(context.Context, *Task),
	parent *Task,
) *Task {
	task := &Task{
		parent: parent,
	}

	if task.parent == nil {
		task.timers = newTimerQueue()
		task.single = newSingleFlight()
	} else {
		task.timers = task.parent.timers
		task.single = task.parent.single
		task.sched = task.parent.sched
		task.epoch = task.parent.epoch
		task.parent.childn++
	}

	task.ctx = withTaskContext(ctx, task)

	resume, cancel := coro.New(
		func(_ func(struct{}) time.Time, suspend func() time.Time) (z struct{}) {
			region := trace.StartRegion(task.ctx, taskTraceRegionType)

			defer func() {
				task.done = true
				if task.parent != nil {
					task.parent.childn--
				}
				region.End()
			}()

			task.suspend = suspend

			fn(task.ctx, task)
			task.Wait()

			return
		},
	)

	task.resume = resume
	task.cancel = cancel
	return task
}

// Do runs fn once for all concurrent callers that pass the same key.
// The third result reports whether the result was shared.
func (t *Task) Do(key any, fn func() (any, error)) (any, error, bool) {
	t.Logf("DO %v", key)
	return t.single.do(t, key, fn)
}

func (t *Task) spawnctx(ctx context.Context, fn func(context.Context, *Task)) {
	task := newTask(ctx, fn, t)
	task.Log("SPAWN")
	task.resumez()
}

// Spawn starts a child task. The child runs until its first
// suspension point before Spawn returns.
func (t *Task) Spawn(fn func(context.Context, *Task)) {
	t.spawnctx(t.ctx, fn)
}

// Go is Spawn for functions that only need the context.
func (t *Task) Go(fn func(context.Context)) {
	t.Spawn(Fn(fn))
}

// Sleep suspends the task until a timer of duration d fires and
// returns the fire time. A non-positive d resumes on the next loop
// turn.
func (t *Task) Sleep(d time.Duration) time.Time {
	t.Logf("SLEEP %v", d)

	if d < 0 {
		d = 0
	}

	t.timers.add(&Timer{task: t, d: d})

	return t.suspend()
}

// Yield suspends the task for one loop turn, letting every other
// runnable task make progress.
func (t *Task) Yield() {
	t.Sleep(0)
}

// Group returns a first-error group whose tasks are children of t.
func (t *Task) Group() ErrGroup {
	return newErrGroup(t)
}

// Wait suspends the task until all of its children have finished.
func (t *Task) Wait() {
	t.Log("WAIT")

	if t.childn > 0 {
		t.waiting = true
		t.suspend()
	}
}

// Clock returns the scheduler clock.
func (t *Task) Clock() clockwork.Clock {
	return t.sched.Clock()
}

// Elapsed is the time since the loop running t was started.
func (t *Task) Elapsed() time.Duration {
	return t.sched.Clock().Since(t.epoch)
}

func (t *Task) run(at time.Time) {
	t.Log("RUN")

	if _, ok := t.resume(at); ok {
		return
	}

	if p := t.parent; p != nil && p.waiting && p.childn == 0 {
		p.waiting = false
		p.runz()
	}
}

func (t *Task) context() context.Context {
	return t.ctx
}

func (t *Task) resumez() bool {
	var z time.Time
	_, ok := t.resume(z)
	return ok
}

func (t *Task) runz() {
	var z time.Time
	t.run(z)
}

func (t *Task) suspendz() {
	t.suspend()
}

func (t *Task) Log(msg string) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskpath(&sb, t)
		sb.WriteRune(' ')
		sb.WriteString(msg)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

func (t *Task) Logf(format string, args ...any) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskpath(&sb, t)
		sb.WriteRune(' ')
		fmt.Fprintf(&sb, format, args...)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

func taskpath(sb *strings.Builder, t *Task) {
	if t == nil {
		return
	}
	taskpath(sb, t.parent)
	fmt.Fprintf(sb, "%p|", t)
}
