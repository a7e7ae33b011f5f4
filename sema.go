package awaitio

import "github.com/gammazero/deque"

// sema is a counting semaphore for tasks. A release with waiters
// hands the unit straight to the oldest waiter and resumes it.
type sema struct {
	noCopy noCopy             // Prevents copying of the semaphore
	v      uint32             // Units available to acquire without waiting
	w      deque.Deque[*Task] // Waiting tasks queue
}

// acquire takes a unit for the given task. If none is available the
// task is queued and suspended until a release hands it one.
func (s *sema) acquire(t *Task) {
	if s.v > 0 {
		s.v--
		return
	}

	s.w.PushBack(t)
	t.suspendz()
}

// release returns a unit. The oldest waiting task, if any, receives
// it and runs until its next suspension point before release returns.
func (s *sema) release() {
	if s.w.Len() == 0 {
		s.v++
		return
	}

	task := s.w.PopFront()
	task.runz()
}

// waiters is the number of queued tasks.
func (s *sema) waiters() int {
	return s.w.Len()
}
