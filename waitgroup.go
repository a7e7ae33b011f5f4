package awaitio

// WaitGroup waits for a collection of tasks to finish. Tasks call
// Add(1) when they start and Done() when they finish; other tasks
// call Wait to suspend until the counter drops to zero.
type WaitGroup struct {
	noCopy noCopy // Prevents copying of the WaitGroup
	v      int32  // Counter for the number of tasks
	w      uint32 // Number of tasks waiting
	sema   sema   // Semaphore for queuing waiting tasks
}

// Add adds delta to the WaitGroup counter. When the counter reaches
// zero every waiting task is resumed, in the order it started
// waiting. A negative counter panics.
func (wg *WaitGroup) Add(delta int) {
	wg.v += int32(delta)

	if wg.v < 0 {
		panic("awaitio: negative WaitGroup counter")
	}

	if wg.w != 0 && delta > 0 && wg.v == int32(delta) {
		panic("awaitio: WaitGroup misuse: Add called concurrently with Wait")
	}

	if wg.v > 0 || wg.w == 0 {
		return
	}

	for wg.w != 0 {
		wg.w--
		wg.sema.release()
	}
}

// Done decrements the WaitGroup counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait suspends task until the counter is zero. It returns at once
// when the counter already is zero.
func (wg *WaitGroup) Wait(task *Task) {
	if wg.v == 0 {
		return
	}

	wg.w++
	wg.sema.acquire(task)
}

// Waiters returns the number of tasks suspended in Wait.
func (wg *WaitGroup) Waiters() int {
	return wg.sema.waiters()
}
