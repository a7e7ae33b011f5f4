package awaitio

import "context"

// ErrGroup runs members on child tasks of the task that created it
// and keeps the first error any member returns. That error cancels
// the context shared by the members.
type ErrGroup interface {
	// Go starts f on a new child task with the group's context.
	Go(f func(context.Context) error)
	// GoWithContext starts f with ctx, which must belong to the task
	// that created the group.
	GoWithContext(ctx context.Context, f func(context.Context) error)
	// Spawn awaits aw on a new child task with the group's context.
	Spawn(aw Awaitable)
	// Wait suspends t until every member has returned and reports the
	// first error, or nil.
	Wait(t *Task) error
}

type errGroup struct {
	owner   *Task
	ctx     context.Context
	cancel  context.CancelCauseFunc
	running WaitGroup
	members int
	err     error
}

func newErrGroup(owner *Task) *errGroup {
	ctx, cancel := context.WithCancelCause(owner.context())
	return &errGroup{owner: owner, ctx: ctx, cancel: cancel}
}

func (g *errGroup) Go(f func(context.Context) error) {
	g.start(g.ctx, func(ctx context.Context, _ *Task) error { return f(ctx) })
}

func (g *errGroup) GoWithContext(ctx context.Context, f func(context.Context) error) {
	if MustTaskFromContext(ctx) != g.owner {
		panic("awaitio: ctx task does not match errgroup task")
	}
	g.start(ctx, func(ctx context.Context, _ *Task) error { return f(ctx) })
}

func (g *errGroup) Spawn(aw Awaitable) {
	g.start(g.ctx, aw.Await)
}

// start runs member on its own child task. The child receives itself
// as the task to suspend, so members never look it up in ctx.
func (g *errGroup) start(ctx context.Context, member AwaitableFunc) {
	g.members++
	g.running.Add(1)
	g.owner.spawnctx(ctx, func(ctx context.Context, child *Task) {
		defer g.running.Done()
		g.fail(member(ctx, child))
	})
}

func (g *errGroup) fail(err error) {
	if err == nil || g.err != nil {
		return
	}
	g.err = err
	g.cancel(err)
}

func (g *errGroup) Wait(t *Task) error {
	t.Logf("GROUP WAIT %d", g.members)
	g.running.Wait(t)
	g.cancel(g.err)
	return g.err
}
