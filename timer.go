package awaitio

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Dispatcher arms the timers queued by suspended tasks. Every request
// handed to Dispatch must eventually come back on fired inside a
// Batch in which it has fired; the loop keeps running until it has
// seen all of them.
type Dispatcher interface {
	Dispatch(
		ctx context.Context,
		clock clockwork.Clock,
		timers []*Timer,
		fired chan<- *Batch,
	)
}

// Timer is the request a task leaves behind when it suspends on a
// timer.
type Timer struct {
	task *Task
	d    time.Duration
}

// Duration is how long the owning task asked to be suspended.
func (tm *Timer) Duration() time.Duration {
	return tm.d
}

// Firing records when a Timer fired.
type Firing struct {
	req *Timer
	at  time.Time
}

// Batch is a set of timer requests and their firings, delivered to
// the loop as one unit. firings[i] stays nil until requests[i] has
// fired.
type Batch struct {
	requests []*Timer
	firings  []*Firing
}

// NewBatch creates a batch for the given requests.
func NewBatch(requests ...*Timer) *Batch {
	return &Batch{
		requests: requests,
		firings:  make([]*Firing, len(requests)),
	}
}

func (b *Batch) Requests() []*Timer {
	return b.requests
}

func (b *Batch) Len() int {
	return len(b.requests)
}

// Fire marks the i-th request as fired at the given time. A request
// fires once; later calls for the same index are ignored.
func (b *Batch) Fire(i int, at time.Time) {
	if b.firings[i] != nil {
		return
	}
	b.firings[i] = &Firing{req: b.requests[i], at: at}
}

// FireAll marks every request that has not fired yet as fired at the
// given time.
func (b *Batch) FireAll(at time.Time) *Batch {
	for i := range b.requests {
		b.Fire(i, at)
	}
	return b
}

func (b *Batch) len() int {
	return len(b.requests)
}

func (b *Batch) validate() {
	if len(b.firings) != len(b.requests) {
		panic("awaitio: invalid timer batch")
	}
	for _, f := range b.firings {
		if f == nil {
			panic("awaitio: invalid timer batch")
		}
	}
}

// ClockDispatcher arms timers on the scheduler clock. Requests of zero
// duration are fired together in one immediate batch, so a yielding
// task is resumed on the next loop turn. Each delayed request gets its
// own clock.After. Cancelling ctx fires everything outstanding.
type ClockDispatcher struct{}

func (*ClockDispatcher) Dispatch(
	ctx context.Context,
	clock clockwork.Clock,
	timers []*Timer,
	fired chan<- *Batch,
) {
	var immediate []*Timer

	for _, req := range timers {
		if req.d <= 0 {
			immediate = append(immediate, req)
			continue
		}

		after := clock.After(req.d)
		go func() {
			select {
			case <-after:
			case <-ctx.Done():
			}
			fired <- NewBatch(req).FireAll(clock.Now())
		}()
	}

	if len(immediate) > 0 {
		now := NewBatch(immediate...).FireAll(clock.Now())
		go func() { fired <- now }()
	}
}

type timerQueue struct {
	requests []*Timer
}

func newTimerQueue() *timerQueue {
	return new(timerQueue)
}

func (q *timerQueue) add(reqs ...*Timer) {
	q.requests = append(q.requests, reqs...)
}

func (q *timerQueue) reset() {
	q.requests = make([]*Timer, 0)
}

func (q *timerQueue) len() int {
	return len(q.requests)
}
