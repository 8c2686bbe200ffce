package async

import "sync"

// SyncWait synchronously drives a to resolution and returns its value (or
// error), blocking the calling goroutine. It is a convenience for top-level,
// non-suspendable callers — main functions, tests, goroutines bridging into
// an [Executor] — grounded on the same `sync.WaitGroup` handoff the package's
// own tests use to join a background [Executor.Run] loop with plain
// goroutines (see the timer-driven [Signal] example).
//
// SyncWait must not be used to await something whose resolution depends on
// SyncWait's own caller doing further work on a specific goroutine: it spawns
// a driver coroutine on e and then calls [Executor.Run] itself in case
// nothing else is pumping e, so it assumes e's queue can be drained
// synchronously from here.
func SyncWait[T any](e *Executor, a *Awt[T]) (T, error) {
	if a.Ready() {
		return a.Value()
	}

	var wg sync.WaitGroup
	wg.Add(1)

	var (
		value T
		err   error
	)

	e.Spawn(Func(func(co *Coroutine) Result {
		v, pollErr, ready := a.Poll(co)
		if !ready {
			return co.Yield()
		}
		value, err = v, pollErr
		wg.Done()
		return co.End()
	}))

	e.Run()
	wg.Wait()

	return value, err
}
