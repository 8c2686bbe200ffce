package async

// A Producer is the body of a [Task]: a function that runs inside a
// dedicated [Coroutine] and completes by calling [TaskContext.Return] or
// [TaskContext.Fail].
type Producer[T any] func(ctx *TaskContext[T]) Result

// A TaskContext is the handle a [Producer] receives: the running
// [Coroutine], plus the two ways to complete the [Task] it belongs to.
type TaskContext[T any] struct {
	*Coroutine
	task *Task[T]
}

// Return completes the owning Task with v.
func (ctx *TaskContext[T]) Return(v T) Result {
	ctx.task.value, ctx.task.err = v, nil
	return ctx.End()
}

// Fail completes the owning Task with err.
func (ctx *TaskContext[T]) Fail(err error) Result {
	var zero T
	ctx.task.value, ctx.task.err = zero, err
	return ctx.End()
}

// Detached reports whether nobody is awaiting the [Awt] this Task is
// producing for: spec.md §4.3's "detached execution" query, used by
// producers that want to skip expensive work nobody will observe.
func (ctx *TaskContext[T]) Detached() bool {
	return ctx.task.slot == nil
}

// A Task is a suspendable producer of a T, run by an [Executor]. It
// implements [PendingProducer], so `NewPendingAwt(NewTask(e, body))`
// is the usual way to expose one as an [Awt].
//
// Unlike the C++ original this is modeled on, a Task here carries no
// allocator type parameter and [NewTask] takes no allocator either;
// [FrameAllocator] implementations are standalone utilities.
type Task[T any] struct {
	executor *Executor
	produce  Producer[T]
	value    T
	err      error
	started  bool
	canceled bool
	slot     *Awt[T]
	co       *Coroutine
}

// NewTask returns a Task that, once started, runs body on e.
func NewTask[T any](e *Executor, body Producer[T]) *Task[T] {
	return &Task[T]{executor: e, produce: body}
}

// Start implements [PendingProducer]. It spawns body onto the Task's
// executor; body's eventual completion resolves w. If the Task was
// canceled before Start was ever called, the producer never runs at all —
// Start resolves w to Empty immediately instead of spawning anything.
func (t *Task[T]) Start(w Resolver[T]) PreparedCont {
	if t.started {
		panic("async: task already started")
	}
	t.started = true
	t.slot = w.slot

	if t.canceled {
		return w.SetEmpty()
	}

	body := Func(func(co *Coroutine) Result {
		t.co = co
		co.Defer(Do(func() {
			if t.err != nil && t.slot == nil {
				// Nobody is awaiting this Task's Awt: report the failure
				// through the hook instead of letting it vanish into a
				// discarded Resolver (spec.md §6, §7).
				reportUnhandled(t.err)
				return
			}
			var cont PreparedCont
			switch {
			case t.canceled:
				cont = w.SetEmpty()
			case t.err != nil:
				cont = w.SetException(t.err)
			default:
				cont = w.SetValue(t.value)
			}
			cont.Resume()
		}))
		if t.canceled {
			// Canceled after Start spawned the body but before this
			// coroutine got its first turn: destroy the initial suspension
			// without ever running the producer (spec.md:115, 175).
			return co.End()
		}
		return co.Transition(func(co *Coroutine) Result {
			return t.produce(&TaskContext[T]{Coroutine: co, task: t})
		})
	})

	t.executor.Spawn(body)
	return Ready()
}

// Cancel requests cancellation of the task. If the producer never started
// running — Cancel called before [Task.Start], or after Start but before the
// spawned coroutine gets its first turn — the producer never runs at all and
// the Task's Awt resolves to Empty, matching spec.md:115, 175's "cancel() on
// a task destroys the initial suspension without running it". Otherwise
// Cancel marks the producer's coroutine as exiting but neither resumes nor
// interrupts it: the producer keeps waiting and running as before, and its
// yield points are not turned into exit points. Cancel does not itself
// resolve the Task's Awt; once the producer completes, the Awt resolves to
// Empty instead of to the produced value or error.
func (t *Task[T]) Cancel() {
	t.canceled = true
	if t.co != nil && !t.co.Ended() {
		t.co.Exit()
	}
}

// NewEagerTask runs body to completion right away, outside of any
// coroutine, and returns an already-resolved [Awt]. Useful for producers
// that never suspend, matching spec.md §8's "eager Fibonacci" scenario.
func NewEagerTask[T any](body func() (T, error)) *Awt[T] {
	v, err := body()
	if err != nil {
		return NewFailedAwt[T](err)
	}
	return NewAwt(v)
}
