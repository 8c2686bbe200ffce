package async

// A WaitAll joins a fixed set of [Awt] values: [WaitAll.Await] returns a
// [Task] that suspends until every one of them has resolved.
//
// Built directly on [WaitGroup], exactly the way its bias-counter is
// described in spec.md §4.7: the counter starts at the number of awaiters,
// ready or not, and each one's completion is a Done call; the outer await
// is the WaitGroup's own Await.
//
// A WaitAll must not be shared by more than one [Executor].
type WaitAll[T any] struct {
	WaitGroup
	results []T
	errs    []error
	tasks   []*Task[T]
}

// NewWaitAll creates a WaitAll over awts. Each awaiter is driven by its own
// [Task], whose [TaskContext.Return]/[TaskContext.Fail] carries the
// awaiter's resolved value or error into a second, outer [Coroutine] that
// records it and counts down the [WaitGroup] — reusing [Task] instead of
// hand-spawning a polling coroutine gets cancellation for free, should a
// caller ever want to abandon an individual awaiter early via [Task.Cancel].
func NewWaitAll[T any](e *Executor, awts ...*Awt[T]) *WaitAll[T] {
	wa := &WaitAll[T]{
		results: make([]T, len(awts)),
		errs:    make([]error, len(awts)),
		tasks:   make([]*Task[T], len(awts)),
	}
	wa.Add(len(awts))
	for i, a := range awts {
		i, a := i, a
		t := NewTask(e, func(ctx *TaskContext[T]) Result {
			v, err, ready := a.Poll(ctx.Coroutine)
			if !ready {
				return ctx.Yield()
			}
			if err != nil {
				return ctx.Fail(err)
			}
			return ctx.Return(v)
		})
		wa.tasks[i] = t
		result := NewPendingAwt[T](t)
		e.Spawn(func(co *Coroutine) Result {
			v, err, ready := result.Poll(co)
			if !ready {
				return co.Yield()
			}
			wa.results[i], wa.errs[i] = v, err
			wa.Done()
			return co.End()
		})
	}
	return wa
}

// Cancel requests cancellation of awaiter i's driving [Task]. Per
// [Task.Cancel], an awaiter whose Task already runs keeps waiting for its
// Awt and then records Canceled; the overall [WaitAll.Await] still waits
// for its slot to count down.
func (wa *WaitAll[T]) Cancel(i int) {
	wa.tasks[i].Cancel()
}

// Results returns every awaiter's resolved value and error, indexed in the
// same order the awaiters were passed to [NewWaitAll]. Calling it before
// [WaitAll.Await] has resolved returns partially-filled slices.
func (wa *WaitAll[T]) Results() ([]T, []error) {
	return wa.results, wa.errs
}
