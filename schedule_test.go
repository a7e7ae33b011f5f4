package awaitio

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTask(t *testing.T) {
	r := require.New(t)

	n := 0
	crud := func(_ context.Context, task *Task) {
		for i := 0; i < 10; i++ {
			for j := 0; j < 10; j++ {
				task.Spawn(func(_ context.Context, task *Task) {
					task.Yield()
					task.Sleep(time.Microsecond)
					task.Yield()
					task.Sleep(time.Microsecond)
					n++
				})
			}
		}
	}

	New().Run(crud).Resume(context.Background())

	r.Equal(100, n)
}

func TestTaskSingleThreaded(t *testing.T) {
	r := require.New(t)

	running, maxRunning := 0, 0
	body := func(_ context.Context, task *Task) {
		for i := 0; i < 20; i++ {
			task.Spawn(func(_ context.Context, task *Task) {
				for j := 0; j < 5; j++ {
					running++
					maxRunning = max(maxRunning, running)
					running--
					task.Yield()
				}
			})
		}
	}

	New().Run(body).Resume(context.Background())

	r.Equal(1, maxRunning)
	r.Equal(0, running)
}

func TestChildrenFinishBeforeParent(t *testing.T) {
	r := require.New(t)

	var order []string
	body := func(_ context.Context, task *Task) {
		task.Spawn(func(_ context.Context, task *Task) {
			task.Spawn(func(_ context.Context, task *Task) {
				task.Sleep(2 * time.Millisecond)
				order = append(order, "grandchild")
			})
			order = append(order, "child body")
		})
		task.Wait()
		order = append(order, "root")
	}

	New().Run(body).Resume(context.Background())

	r.Equal([]string{"child body", "grandchild", "root"}, order)
}

func TestGo(t *testing.T) {
	r := require.New(t)

	n := 0
	New().Go(func(ctx context.Context) {
		task, ok := TaskFromContext(ctx)
		r.True(ok)
		task.Go(func(ctx context.Context) {
			MustTaskFromContext(ctx).Yield()
			n++
		})
		n++
	}).Resume(context.Background())

	r.Equal(2, n)

	_, ok := TaskFromContext(context.Background())
	r.False(ok)
	r.Panics(func() { MustTaskFromContext(context.Background()) })
}

func TestGroup(t *testing.T) {
	r := require.New(t)

	x := 0
	y := 0
	z := 0
	body := func(ctx context.Context, task *Task) {
		x++
		concurrent := 0
		for i := 0; i < 10; i++ {
			concurrent++
			r.Equal(1, concurrent)
			group := task.Group()
			for j := 0; j < 10; j++ {
				y++
				group.Go(func(ctx context.Context) error {
					task, ok := TaskFromContext(ctx)
					r.True(ok)

					task.Yield()
					task.Sleep(time.Microsecond)

					groupN := task.Group()
					r.NoError(groupN.Wait(task))

					for k := 0; k < 10; k++ {
						groupN = task.Group()
						groupN.Go(func(ctx context.Context) error {
							z++
							MustTaskFromContext(ctx).Yield()
							return nil
						})
						r.NoError(groupN.Wait(task))
					}

					return nil
				})
			}

			group.Go(func(_ context.Context) error {
				concurrent--
				return nil
			})

			r.NoError(group.Wait(task))
		}
	}

	New().Run(body).Resume(context.Background())

	r.Equal(1, x)
	r.Equal(100, y)
	r.Equal(1000, z)
}

func TestGroupFirstError(t *testing.T) {
	r := require.New(t)

	var err error
	var cause error
	New().Run(func(ctx context.Context, task *Task) {
		group := task.Group()
		group.Go(func(ctx context.Context) error {
			MustTaskFromContext(ctx).Sleep(time.Millisecond)
			cause = context.Cause(ctx)
			return fmt.Errorf("late")
		})
		group.Go(func(ctx context.Context) error {
			return fmt.Errorf("early")
		})
		group.GoWithContext(ctx, func(context.Context) error {
			return nil
		})
		err = group.Wait(task)
	}).Resume(context.Background())

	r.EqualError(err, "early")
	r.EqualError(cause, "early")
}

func TestGroupSpawn(t *testing.T) {
	r := require.New(t)

	var ran []int
	err := Main(quietContext(), New(), AwaitableFunc(func(_ context.Context, task *Task) error {
		group := task.Group()
		for i := 0; i < 3; i++ {
			group.Spawn(AwaitableFunc(func(ctx context.Context, child *Task) error {
				r.NotSame(task, child)
				r.Same(child, MustTaskFromContext(ctx))
				child.Sleep(time.Duration(3-i) * 5 * time.Millisecond)
				ran = append(ran, i)
				return nil
			}))
		}
		return group.Wait(task)
	}))

	r.NoError(err)
	r.Equal([]int{2, 1, 0}, ran)
}

func TestGroupWithForeignContext(t *testing.T) {
	r := require.New(t)

	New().Run(func(ctx context.Context, task *Task) {
		group := task.Group()
		task.Spawn(func(ctx context.Context, _ *Task) {
			r.Panics(func() {
				group.GoWithContext(ctx, func(context.Context) error { return nil })
			})
		})
	}).Resume(context.Background())
}

func TestWaitGroup(t *testing.T) {
	r := require.New(t)

	expect, n := 100, 0
	body := func(_ context.Context, task *Task) {
		var wg WaitGroup

		for i := 0; i < expect-1; i++ {
			wg.Add(1)
			task.Spawn(func(_ context.Context, task *Task) {
				defer wg.Done()
				task.Sleep(time.Duration(i%5) * time.Microsecond)
				n++
			})
		}

		wg.Wait(task)
		r.Equal(expect-1, n)
		n++
	}

	New().Run(body).Resume(context.Background())

	r.Equal(expect, n)
}

func TestWaitGroupManyWaiters(t *testing.T) {
	r := require.New(t)

	var order []int
	New().Run(func(_ context.Context, task *Task) {
		var wg WaitGroup
		wg.Add(1)

		for i := 0; i < 3; i++ {
			task.Spawn(func(_ context.Context, task *Task) {
				wg.Wait(task)
				order = append(order, i)
			})
		}
		r.Equal(3, wg.Waiters())

		task.Sleep(time.Millisecond)
		wg.Done()
		r.Equal(0, wg.Waiters())
	}).Resume(context.Background())

	r.Equal([]int{0, 1, 2}, order)
}

func TestWaitGroupNegative(t *testing.T) {
	var wg WaitGroup
	require.Panics(t, func() { wg.Done() })
}

func TestSingleFlight(t *testing.T) {
	r := require.New(t)

	n := 0
	single := func(_ context.Context, task *Task) {
		for i := 0; i < 100; i++ {
			task.Spawn(func(_ context.Context, task *Task) {
				v, err, shared := task.Do("test-key", func() (any, error) {
					defer func() { n++ }()
					task.Sleep(time.Millisecond)
					return strconv.Itoa(i), nil
				})
				r.Equal("0", v)
				r.NoError(err)
				r.True(shared)
			})
		}
		n++
	}

	New().Run(single).Resume(context.Background())

	r.Equal(2, n)
}

func TestDeadlockPanics(t *testing.T) {
	r := require.New(t)

	passed := false
	r.Panics(func() {
		New().Run(func(_ context.Context, task *Task) {
			var wg WaitGroup
			wg.Add(1)
			wg.Wait(task)
			passed = true
		}).Resume(context.Background())
	})
	r.False(passed)

	r.Panics(func() {
		New().Run(func(_ context.Context, task *Task) {
			var wg WaitGroup
			wg.Add(1)
			task.Spawn(func(_ context.Context, task *Task) {
				wg.Wait(task)
			})
		}).Resume(context.Background())
	})
}

func TestSchedulerSharedByLoops(t *testing.T) {
	r := require.New(t)

	s := New()
	errs := make([]error, 8)

	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Main(quietContext(), s, Gather(
				Sleep(time.Millisecond),
				Sleep(3*time.Millisecond),
				Sleep(2*time.Millisecond),
			))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		r.NoError(err)
	}
}

func TestPanic(t *testing.T) {
	r := require.New(t)

	err := fmt.Errorf("UH OH")

	fn := func(_ context.Context, task *Task) {
		task.Spawn(func(_ context.Context, task *Task) {
			task.Spawn(func(_ context.Context, task *Task) {
				task.Spawn(func(_ context.Context, task *Task) {
					panic(err)
				})
			})
		})
	}

	defer func() {
		if p := recover(); p != nil {
			if ds, ok := p.(interface{ DebugString() string }); ok {
				r.Contains(ds.DebugString(), err.Error())
			} else {
				r.Fail("panic err does not have DebugString()")
			}
		}
	}()

	New().Run(fn).Resume(context.Background())
}
