// Package awaitio is a single-threaded cooperative scheduler that
// shows how awaiting works under the hood: a task runs until it
// reaches a suspension point, hands control back to the scheduler
// loop, and is resumed once whatever it waits on has completed.
//
// Key components:
//
//   - Task: a coroutine-like unit of work. Tasks sleep on timers,
//     yield for one loop turn, spawn child tasks and wait for them.
//
//   - Scheduler: owns the clock and the Dispatcher that arms timers.
//     Scheduler.Run binds a root function, Resumable.Resume drives
//     the loop until every task has finished.
//
//   - Dispatcher: arms queued timer requests and reports them back
//     in batches once they fire. ClockDispatcher is the default.
//
//   - Awaitable: anything a task can suspend on. Sleep suspends on a
//     timer, PollSleep yields until enough time has passed, TaskSleep
//     waits on an independently scheduled sleeping task.
//
//   - Composition: Sequence awaits one after another, Gather runs
//     each awaitable in its own task, Shared lets concurrent awaiters
//     share a single execution.
//
//   - Synchronization primitives: WaitGroup, ErrGroup and a
//     single-flight group, all resumed by the scheduler loop.
package awaitio
