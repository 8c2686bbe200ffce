package async

// A WaitEach joins a fixed set of [Awt] values like [WaitAll], but instead
// of resolving once as a batch, it hands back each awaiter's index as soon
// as that awaiter resolves, in completion order — spec.md §4.7's
// select-like iteration, and §8 scenario 3.
//
// Internally this is a [Queue] of `int`: each driving [Coroutine] pushes its
// own index as soon as its awaiter resolves, and [WaitEach.Next] is exactly
// the queue's Pop. The queue is closed once every awaiter has reported,
// so calls to Next past that point resolve to Empty instead of blocking
// forever.
//
// A WaitEach must not be shared by more than one [Executor].
type WaitEach[T any] struct {
	results   []T
	errs      []error
	queue     *Queue[int]
	remaining int
	tasks     []*Task[T]
}

// NewWaitEach creates a WaitEach over awts. Each awaiter is driven by its own
// [Task] (see [NewWaitAll]'s doc comment for why), and a second, outer
// [Coroutine] per awaiter records the Task's result and pushes its index
// into the completion queue.
func NewWaitEach[T any](e *Executor, awts ...*Awt[T]) *WaitEach[T] {
	we := &WaitEach[T]{
		results:   make([]T, len(awts)),
		errs:      make([]error, len(awts)),
		queue:     NewQueue[int](0),
		remaining: len(awts),
		tasks:     make([]*Task[T], len(awts)),
	}
	if we.remaining == 0 {
		we.queue.Close()
		return we
	}
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
		we.tasks[i] = t
		result := NewPendingAwt[T](t)
		e.Spawn(func(co *Coroutine) Result {
			v, err, ready := result.Poll(co)
			if !ready {
				return co.Yield()
			}
			we.results[i], we.errs[i] = v, err
			we.remaining--
			_ = we.queue.Push(i)
			if we.remaining == 0 {
				we.queue.Close()
			}
			return co.End()
		})
	}
	return we
}

// Cancel requests cancellation of awaiter i's driving [Task]. Per
// [Task.Cancel], an awaiter whose Task already runs keeps waiting for its
// Awt and is then reported with Canceled.
func (we *WaitEach[T]) Cancel(i int) {
	we.tasks[i].Cancel()
}

// Next returns an [Awt] resolving to the index of the next awaiter to
// complete, in completion order. Once every awaiter has been reported,
// further Next calls resolve to Empty.
func (we *WaitEach[T]) Next() *Awt[int] {
	return we.queue.Pop()
}

// Result returns awaiter i's resolved value and error. Calling it before
// index i has been reported by [WaitEach.Next] returns the zero value.
func (we *WaitEach[T]) Result(i int) (T, error) {
	return we.results[i], we.errs[i]
}

// Drain synchronously joins every awaiter that has not yet been consumed via
// [WaitEach.Next], discarding their indices. It is the explicit stand-in for
// the teacher's C++ original's destructor, which "drains pending sources
// synchronously" — Go has no destructors, so callers that stop consuming
// Next early must call Drain themselves to avoid leaving driving coroutines
// permanently suspended.
func (we *WaitEach[T]) Drain(e *Executor) {
	for {
		_, err := we.Next().Wait(e)
		if err != nil {
			return
		}
	}
}
