package async

import (
	"cmp"
	"slices"
	"sync/atomic"
)

var nextMutexID atomic.Uint64

// An Ownership is the move-only token a [Mutex.Lock] resolves with. Release
// must be called exactly once to hand the mutex to its next waiter; a zero
// Ownership is inert.
type Ownership struct {
	m        *Mutex
	released bool
}

// Release releases the [Mutex] o was acquired from, waking its next waiter
// if any. Calling Release more than once is a no-op.
func (o *Ownership) Release() {
	if o == nil || o.released {
		return
	}
	o.released = true
	o.m.sem.Release(1)
}

// A Mutex is an asynchronous ownership token issued via an [Awt]: [Lock]
// suspends until no other [Ownership] is outstanding, then resolves with one.
//
// Built directly on [Semaphore] with a weight of 1, since mutual exclusion is
// exactly a semaphore of size 1 — [Semaphore]'s FIFO waiter list is what
// gives Mutex its "release wakes the next waiter" guarantee.
//
// A Mutex must not be shared by more than one [Executor].
type Mutex struct {
	id  uint64
	e   *Executor
	sem *Semaphore
}

// NewMutex creates a new Mutex whose [Lock] tasks run on e.
func NewMutex(e *Executor) *Mutex {
	return &Mutex{id: nextMutexID.Add(1), e: e, sem: NewSemaphore(1)}
}

// Lock returns an [Awt] that resolves with an [Ownership] once acquired.
func (m *Mutex) Lock() *Awt[*Ownership] {
	return NewPendingAwt[*Ownership](m)
}

// Start implements [PendingProducer].
func (m *Mutex) Start(w Resolver[*Ownership]) PreparedCont {
	m.e.Spawn(m.sem.Acquire(1).Then(Do(func() {
		cont := w.SetValue(&Ownership{m: m})
		cont.Resume()
	})))
	return Ready()
}

// A MultiLock acquires several [Mutex] values as a unit, in a fixed order
// independent of the order they were passed in, to preclude the classic
// lock-ordering deadlock between two callers wanting an overlapping set of
// mutexes.
type MultiLock struct {
	e     *Executor
	locks []*Mutex
}

// NewMultiLock creates a MultiLock over locks, whose [MultiLock.Lock] tasks
// run on e. The given mutexes are internally reordered by a stable id
// assigned at [NewMutex] time, so any two MultiLocks sharing a subset of
// mutexes always acquire the shared ones in the same relative order.
func NewMultiLock(e *Executor, locks ...*Mutex) *MultiLock {
	ordered := slices.Clone(locks)
	slices.SortFunc(ordered, func(a, b *Mutex) int { return cmp.Compare(a.id, b.id) })
	return &MultiLock{e: e, locks: ordered}
}

// Lock returns an [Awt] that resolves with every sub-lock's [Ownership],
// in the MultiLock's fixed order, once all are acquired.
func (ml *MultiLock) Lock() *Awt[[]*Ownership] {
	return NewPendingAwt[[]*Ownership](ml)
}

// Start implements [PendingProducer].
func (ml *MultiLock) Start(w Resolver[[]*Ownership]) PreparedCont {
	ml.e.Spawn(func(co *Coroutine) Result {
		owned := make([]*Ownership, 0, len(ml.locks))
		return ml.step(0, owned, w)(co)
	})
	return Ready()
}

func (ml *MultiLock) step(i int, owned []*Ownership, w Resolver[[]*Ownership]) Task {
	if i == len(ml.locks) {
		return Do(func() {
			cont := w.SetValue(owned)
			cont.Resume()
		})
	}
	m := ml.locks[i]
	return m.sem.Acquire(1).Then(func(co *Coroutine) Result {
		owned = append(owned, &Ownership{m: m})
		return ml.step(i+1, owned, w)(co)
	})
}
