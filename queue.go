package async

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// QueueLock is the pluggable critical section a [Queue] takes around its
// waiter-list and ring mutations. The zero value used by [NewQueue] is a
// no-op, matching the package's single-threaded default; [NewThreadSafeQueue]
// installs a real mutex instead.
type QueueLock interface {
	Lock()
	Unlock()
}

type noopLock struct{}

func (noopLock) Lock()   {}
func (noopLock) Unlock() {}

type mutexLock struct{ sync.Mutex }

// PushTag is the payload-less value a successful [Queue.Push] resolves with.
type PushTag struct{}

// A Queue is an intrusive FIFO with two waiter chains: consumers blocked on
// empty, producers blocked on full. A capacity of 0 selects unbounded
// storage; any positive capacity bounds the ring to that many items.
//
// A Queue built by [NewQueue] must not be shared by more than one [Executor].
// [NewThreadSafeQueue] builds one safe for concurrent [Queue.Push]/[Queue.Pop]
// calls from multiple goroutines, at the cost of a real mutex around every
// waiter-list and ring mutation.
type Queue[T any] struct {
	lock        QueueLock
	capacity    int
	items       []T
	closed      bool
	popWaiters  []*popWaiter[T]
	pushWaiters []*pushWaiter[T]
	gate        *semaphore.Weighted
	gateHeld    int
}

// NewQueue returns a single-threaded Queue with the given capacity (0 for
// unbounded).
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{lock: noopLock{}, capacity: capacity}
}

// NewThreadSafeQueue returns a Queue safe for concurrent use from multiple
// goroutines. If capacity is positive, it is additionally backed by a
// [semaphore.Weighted] sized to capacity, acquired by [Queue.PushSync] so a
// goroutine that is not driving the owning [Executor] itself can block for
// room instead of piling up pending pushes.
func NewThreadSafeQueue[T any](capacity int) *Queue[T] {
	q := &Queue[T]{lock: new(mutexLock), capacity: capacity}
	if capacity > 0 {
		q.gate = semaphore.NewWeighted(int64(capacity))
	}
	return q
}

// Push enqueues v. If a pop-waiter exists, v is handed directly to it and
// the ring is untouched. Otherwise, if the ring is non-full (or unbounded),
// v is appended and the returned [Awt] is already resolved. If the ring is
// full, Push allocates a waiter slot carrying v; the returned Awt resolves
// once a subsequent [Queue.Pop] admits this waiter.
func (q *Queue[T]) Push(v T) *Awt[PushTag] {
	q.lock.Lock()
	if len(q.popWaiters) > 0 {
		w := q.popWaiters[0]
		q.popWaiters = q.popWaiters[1:]
		cont := w.resolveValue(v)
		q.lock.Unlock()
		cont.Resume()
		return NewAwt(PushTag{})
	}
	if q.capacity == 0 || len(q.items) < q.capacity {
		q.items = append(q.items, v)
		q.lock.Unlock()
		return NewAwt(PushTag{})
	}
	w := &pushWaiter[T]{value: v}
	q.pushWaiters = append(q.pushWaiters, w)
	q.lock.Unlock()
	return NewPendingAwt[PushTag](w)
}

// PushSync is the entry point for a plain goroutine that is not driving e:
// it acquires the capacity gate (if bounded), synchronously drives the
// resulting [Awt] to resolution on e, and returns any error. ctx governs the
// gate acquisition only; once acquired, the push itself cannot block since
// room was reserved.
//
// Only pushes admitted through PushSync ever acquire the gate — plain [Push]
// calls never do, since they run on the Executor's own thread and must not
// block. gateHeld tracks how many of those acquisitions are still
// outstanding, so [Queue.Pop] releases the gate only for items that actually
// came in gated, instead of releasing on every Pop regardless of how the
// item arrived.
func (q *Queue[T]) PushSync(ctx context.Context, e *Executor, v T) error {
	if q.gate != nil {
		if err := q.gate.Acquire(ctx, 1); err != nil {
			return err
		}
		q.lock.Lock()
		q.gateHeld++
		q.lock.Unlock()
	}
	_, err := q.Push(v).Wait(e)
	return err
}

// Pop dequeues the front item. If the ring is non-empty, the item is taken
// immediately (admitting the oldest push-waiter, if any, into the freed
// slot) and the returned [Awt] is already resolved. If the queue is closed
// and empty, Pop resolves synchronously to Empty. Otherwise it allocates a
// pop-waiter, resolved by a later [Queue.Push] or [Queue.Close].
func (q *Queue[T]) Pop() *Awt[T] {
	q.lock.Lock()
	if len(q.items) > 0 {
		v := q.items[0]
		q.items = q.items[1:]
		cont := Ready()
		if len(q.pushWaiters) > 0 {
			w := q.pushWaiters[0]
			q.pushWaiters = q.pushWaiters[1:]
			q.items = append(q.items, w.value)
			cont = w.resolve()
		}
		releaseGate := false
		if q.gate != nil && q.gateHeld > 0 {
			q.gateHeld--
			releaseGate = true
		}
		q.lock.Unlock()
		cont.Resume()
		if releaseGate {
			q.gate.Release(1)
		}
		return NewAwt(v)
	}
	if q.closed {
		q.lock.Unlock()
		return NewEmptyAwt[T]()
	}
	w := &popWaiter[T]{}
	q.popWaiters = append(q.popWaiters, w)
	q.lock.Unlock()
	return NewPendingAwt[T](w)
}

// Close marks q closed and resolves every outstanding pop-waiter to Empty.
// A subsequent Pop on an empty, closed queue resolves to Empty synchronously.
// Pushes after Close are still accepted.
func (q *Queue[T]) Close() {
	q.lock.Lock()
	q.closed = true
	waiters := q.popWaiters
	q.popWaiters = nil
	q.lock.Unlock()
	for _, w := range waiters {
		cont := w.resolveEmpty()
		cont.Resume()
	}
}

// Clear discards every item currently in the ring, without affecting waiters
// or the closed flag.
func (q *Queue[T]) Clear() {
	q.lock.Lock()
	q.items = q.items[:0]
	q.lock.Unlock()
}

// Len reports the number of items currently in the ring.
func (q *Queue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// pushWaiter is the pending producer a full [Queue.Push] returns: either it
// resolves before ever being awaited (admitted by a later Pop, in which case
// Start sees resolved already set), or it is awaited first and stores the
// [Resolver] for a later Pop to use.
type pushWaiter[T any] struct {
	value        T
	resolved     bool
	resolver     Resolver[PushTag]
	haveResolver bool
}

func (w *pushWaiter[T]) Start(r Resolver[PushTag]) PreparedCont {
	if w.resolved {
		return r.SetValue(PushTag{})
	}
	w.resolver, w.haveResolver = r, true
	return Ready()
}

func (w *pushWaiter[T]) resolve() PreparedCont {
	w.resolved = true
	if w.haveResolver {
		return w.resolver.SetValue(PushTag{})
	}
	return Ready()
}

// popWaiter is the symmetric pending producer for an empty [Queue.Pop].
type popWaiter[T any] struct {
	resolved     bool
	empty        bool
	value        T
	resolver     Resolver[T]
	haveResolver bool
}

func (w *popWaiter[T]) Start(r Resolver[T]) PreparedCont {
	if w.resolved {
		if w.empty {
			return r.SetEmpty()
		}
		return r.SetValue(w.value)
	}
	w.resolver, w.haveResolver = r, true
	return Ready()
}

func (w *popWaiter[T]) resolveValue(v T) PreparedCont {
	w.resolved, w.value = true, v
	if w.haveResolver {
		return w.resolver.SetValue(v)
	}
	return Ready()
}

func (w *popWaiter[T]) resolveEmpty() PreparedCont {
	w.resolved, w.empty = true, true
	if w.haveResolver {
		return w.resolver.SetEmpty()
	}
	return Ready()
}
