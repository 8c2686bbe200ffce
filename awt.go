package async

// An awtState is the variant tag of an [Awt].
type awtState uint8

const (
	awtPending awtState = iota
	awtEmpty
	awtValue
	awtException
)

// A PendingProducer is whatever an [Awt]'s pending variant knows how to run
// exactly once, the first time the slot is awaited (or, if it is never
// awaited, at the point the slot is explicitly [Awt.Close]d).
//
// [Task] implements PendingProducer directly. A plain completion callback
// can be adapted into one with [ClosureProducer].
type PendingProducer[T any] interface {
	Start(w Resolver[T]) PreparedCont
}

// ClosureProducer adapts a plain callback into a [PendingProducer].
//
// spec.md §4.1 distinguishes an "inline closure" (stored inside the slot,
// up to some reserved size) from a "heap closure" (too large to inline).
// Go closures are uniformly heap-allocated regardless of what they
// capture, so there is no inline-vs-heap distinction to preserve here:
// ClosureProducer always behaves like the spec's heap-closure variant.
// [ReservedSpace] exists only so callers porting C++ code have somewhere
// to put a size hint; it has no effect.
type ClosureProducer[T any] func(w Resolver[T]) PreparedCont

// Start implements [PendingProducer].
func (f ClosureProducer[T]) Start(w Resolver[T]) PreparedCont { return f(w) }

// ReservedSpace is a no-op capacity hint. See [ClosureProducer].
func ReservedSpace[T any](words int) int { return 0 }

// An Awt is the unit of asynchronous hand-off between a producer and a
// consumer: a tagged union of "resolved without a value", "resolved with
// a value", "resolved with an exception", and "pending", the last one
// carrying whatever [PendingProducer] will eventually resolve it.
//
// An Awt also implements [Event]: a [Coroutine] can [Coroutine.Watch] one
// directly, which is how every combinator in this package (Queue,
// Distributor, Mutex, WaitAll, WaitEach, Aggregator) is built.
//
// The zero Awt is a valid, unbound, pending slot with no producer; it
// resolves only when something calls one of [Resolver]'s Set methods on
// a [Resolver] vended by [Awt.Bind].
type Awt[T any] struct {
	state    awtState
	value    T
	err      error
	producer PendingProducer[T]
	started  bool
	owner    *Coroutine
}

// NewAwt returns an already-resolved Awt holding v.
func NewAwt[T any](v T) *Awt[T] {
	return &Awt[T]{state: awtValue, value: v}
}

// NewFailedAwt returns an already-resolved Awt holding err.
func NewFailedAwt[T any](err error) *Awt[T] {
	if err == nil {
		panic("async: NewFailedAwt called with a nil error")
	}
	return &Awt[T]{state: awtException, err: err}
}

// NewEmptyAwt returns an already-resolved, valueless Awt. Awaiting it
// fails with [Canceled].
func NewEmptyAwt[T any]() *Awt[T] {
	return &Awt[T]{state: awtEmpty}
}

// NewPendingAwt returns a pending Awt bound to p, which runs the first
// time the Awt is awaited (or is run with its writes discarded if the
// Awt is [Awt.Close]d without ever being awaited).
func NewPendingAwt[T any](p PendingProducer[T]) *Awt[T] {
	return &Awt[T]{producer: p}
}

// Ready reports whether a is resolved: Empty, Value or Exception.
func (a *Awt[T]) Ready() bool {
	return a.state != awtPending
}

// addListener implements [Event]. Binding a second consumer to an already
// bound Awt panics with [ErrInvalidState] wrapped in, matching spec.md
// §4.1's "binding a second consumer fails with InvalidState".
func (a *Awt[T]) addListener(co *Coroutine) {
	if a.owner != nil && a.owner != co {
		panic(&invalidStateError{"Awt already bound to a consumer"})
	}
	a.owner = co
}

// removeListener implements [Event].
func (a *Awt[T]) removeListener(co *Coroutine) {
	if a.owner == co {
		a.owner = nil
	}
}

type invalidStateError struct{ msg string }

func (e *invalidStateError) Error() string { return "async: " + e.msg }
func (e *invalidStateError) Unwrap() error  { return ErrInvalidState }

// Bind returns a [Resolver], the unique write permit for a, and runs a's
// pending producer if this is the first time a has ever been bound.
// Bind panics if a is not pending, or is already bound.
func (a *Awt[T]) Bind(co *Coroutine) Resolver[T] {
	if a.Ready() {
		panic(&invalidStateError{"Bind called on an already resolved Awt"})
	}
	co.Watch(a) // registers co as listener via addListener
	w := Resolver[T]{slot: a}
	if !a.started && a.producer != nil {
		a.started = true
		cont := a.producer.Start(w)
		cont.Resume()
	}
	return w
}

// Poll is the usual way to await a from inside a [Task] or plain
// [Coroutine] body: it returns the resolved value immediately if a is
// already Ready, or binds co as the consumer and reports not-ready so the
// caller can yield (`return co.Await(a).End()`-equivalent: `return
// co.Yield()`, since Poll has already called [Coroutine.Watch]).
func (a *Awt[T]) Poll(co *Coroutine) (value T, err error, ready bool) {
	if a.Ready() {
		v, e := a.unwrap()
		return v, e, true
	}
	a.Bind(co)
	if a.Ready() {
		v, e := a.unwrap()
		return v, e, true
	}
	var zero T
	return zero, nil, false
}

// Value returns the resolved value of a, or an error: [Canceled] if a
// resolved to Empty, or the captured exception if a resolved to
// Exception. Value panics if a is still pending; check [Awt.Ready] (or
// use [Awt.Poll] inside a coroutine) first.
func (a *Awt[T]) Value() (T, error) {
	if !a.Ready() {
		panic(&invalidStateError{"Value called on a pending Awt"})
	}
	return a.unwrap()
}

func (a *Awt[T]) unwrap() (T, error) {
	switch a.state {
	case awtValue:
		return a.value, nil
	case awtException:
		var zero T
		return zero, a.err
	default:
		var zero T
		return zero, Canceled
	}
}

// ReadyProxy reports whether a resolved to a value, without ever
// rethrowing a captured exception: it lets a caller peek at success
// before deciding whether to call [Awt.Value].
func (a *Awt[T]) ReadyProxy() (hasValue, ready bool) {
	return a.state == awtValue, a.Ready()
}

// SetCallback arranges for cb to be invoked with a once a resolves. If a
// is already resolved, cb runs synchronously, right now. Otherwise a
// minimal driving [Task] is spawned on e to await a and invoke cb.
func (a *Awt[T]) SetCallback(e *Executor, cb func(*Awt[T])) {
	if a.Ready() {
		cb(a)
		return
	}
	e.Spawn(Func(func(co *Coroutine) Result {
		_, _, ready := a.Poll(co)
		if !ready {
			return co.Yield()
		}
		cb(a)
		return co.End()
	}))
}

// Forward moves a's state into dst, leaving a Empty. Pending producers
// are relocated rather than re-run; resolved values and exceptions are
// moved. Forward panics if either slot is already bound to a consumer,
// since a bound coroutine's watch list still keys off the original Awt
// pointer and Forward has no way to repoint it.
func (a *Awt[T]) Forward(dst *Awt[T]) {
	if dst.Ready() || dst.owner != nil || a.owner != nil {
		panic(&invalidStateError{"Forward called on a bound slot"})
	}
	*dst = *a
	var zero Awt[T]
	*a = zero
	a.state = awtEmpty
}

// CopyValue returns a new, already-resolved Awt cloning a's resolved
// state. CopyValue returns an unresolved (pending) Awt if a is itself
// still pending or, per spec.md §4.1, "fails" — here, simply does not
// clone a producer, since producers run at most once and sharing one
// between two slots would violate that.
func (a *Awt[T]) CopyValue() *Awt[T] {
	if !a.Ready() {
		return &Awt[T]{}
	}
	return &Awt[T]{state: a.state, value: a.value, err: a.err}
}

// Close discards a without ever awaiting it. If a holds a pending
// producer that has not yet run, the producer is run now, into a
// detached [Resolver] whose writes are discarded — this is the "dropping
// an Awt runs its task detached" semantics of spec.md §5.
//
// Go has no destructors, so unlike the C++ original this is modeled on,
// Close must be called explicitly; an Awt that is merely garbage
// collected without a call to Close or [Awt.Bind] never runs its
// producer at all.
//
// Close panics with an error wrapping [ErrInvalidState] if a consumer is
// still bound to a.
func (a *Awt[T]) Close() {
	if a.owner != nil {
		panic(&invalidStateError{"Close called on a bound Awt"})
	}
	if a.Ready() || a.started {
		return
	}
	a.started = true
	if a.producer != nil {
		cont := a.producer.Start(Resolver[T]{slot: nil})
		cont.Discard()
	}
}

// Wait synchronously drives a to resolution from a plain, non-suspendable
// context and returns its value, exactly like [SyncWait].
func (a *Awt[T]) Wait(e *Executor) (T, error) {
	return SyncWait(e, a)
}

// A Resolver is the producer's write-end of an [Awt]: the unique permit to
// resolve the slot a [Awt.Bind] call returned. Setting a value, an
// exception, or Empty on a Resolver whose slot is nil (the detached case,
// see [Awt.Close]) is accepted and simply discarded.
type Resolver[T any] struct {
	slot *Awt[T]
}

// SetValue resolves the bound Awt with v.
func (w Resolver[T]) SetValue(v T) PreparedCont {
	if w.slot == nil {
		return Ready()
	}
	return w.slot.resolve(awtValue, v, nil)
}

// SetException resolves the bound Awt with err.
func (w Resolver[T]) SetException(err error) PreparedCont {
	if err == nil {
		panic("async: SetException called with a nil error")
	}
	if w.slot == nil {
		return Ready()
	}
	var zero T
	return w.slot.resolve(awtException, zero, err)
}

// SetEmpty resolves the bound Awt to Empty: its consumer observes
// [Canceled].
func (w Resolver[T]) SetEmpty() PreparedCont {
	if w.slot == nil {
		return Ready()
	}
	var zero T
	return w.slot.resolve(awtEmpty, zero, nil)
}

func (a *Awt[T]) resolve(state awtState, v T, err error) PreparedCont {
	if a.Ready() {
		panic(&invalidStateError{"slot resolved twice"})
	}
	a.state, a.value, a.err = state, v, err
	owner := a.owner
	a.owner = nil
	if owner == nil {
		return Ready()
	}
	return FromFrame(NewFrame(func() { owner.Resume() }, func() {}))
}
