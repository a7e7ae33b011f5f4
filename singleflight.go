package awaitio

// flight is one execution of a keyed call. Tasks that ask for the same
// key while it runs join it and suspend on landed.
type flight struct {
	landed  WaitGroup
	val     any
	err     error
	joiners int
}

// singleFlight deduplicates calls with the same key across all tasks
// of one loop. A key is only tracked while its call is in flight.
type singleFlight struct {
	inflight map[any]*flight
}

func newSingleFlight() *singleFlight {
	return &singleFlight{inflight: make(map[any]*flight)}
}

// do joins the flight for key when one is running and otherwise leads
// a new one. shared reports whether more than one task saw the result.
func (g *singleFlight) do(t *Task, key any, fn func() (any, error)) (v any, err error, shared bool) {
	if f, ok := g.inflight[key]; ok {
		return g.join(t, f)
	}
	return g.lead(key, fn)
}

func (g *singleFlight) join(t *Task, f *flight) (any, error, bool) {
	f.joiners++
	f.landed.Wait(t)
	return f.val, f.err, true
}

func (g *singleFlight) lead(key any, fn func() (any, error)) (any, error, bool) {
	f := new(flight)
	f.landed.Add(1)
	g.inflight[key] = f

	// The key is released before joiners resume, so a joiner that asks
	// again starts a fresh flight.
	defer f.landed.Done()
	defer delete(g.inflight, key)

	f.val, f.err = fn()
	return f.val, f.err, f.joiners > 0
}
