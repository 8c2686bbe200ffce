package async

import "slices"

// A Distributor is a list of subscriber slots: [Broadcast] resolves every
// currently-subscribed waiter with the same value and clears the list;
// [KickOut] removes one waiter by id and resolves it independently.
//
// A Distributor must not be shared by more than one [Executor].
type Distributor[T any] struct {
	waiters []*distWaiter[T]
}

// NewDistributor creates an empty Distributor.
func NewDistributor[T any]() *Distributor[T] {
	return &Distributor[T]{}
}

// Subscribe registers a new waiter under id (which may be nil) and returns
// its [Awt]. If id is an [*AlertFlag] that is already armed, Subscribe
// refuses to register and returns an already-Empty Awt instead — the flag
// having been armed means some [Alert] already ran, or is in the process of
// running, against this identity.
func (d *Distributor[T]) Subscribe(id any) *Awt[T] {
	if flag, ok := id.(*AlertFlag); ok && flag.Armed() {
		return NewEmptyAwt[T]()
	}
	w := &distWaiter[T]{id: id}
	d.waiters = append(d.waiters, w)
	return NewPendingAwt[T](w)
}

// Broadcast resolves every currently-subscribed waiter with v and clears the
// subscriber list.
func (d *Distributor[T]) Broadcast(v T) {
	waiters := d.waiters
	d.waiters = nil
	for _, w := range waiters {
		cont := w.resolveWith(func(r Resolver[T]) PreparedCont { return r.SetValue(v) })
		cont.Resume()
	}
}

// KickOut removes the first waiter subscribed under id and resolves it with
// resolve (e.g. `func(r Resolver[T]) PreparedCont { return r.SetEmpty() }`).
// It reports whether a waiter was found.
func (d *Distributor[T]) KickOut(id any, resolve func(Resolver[T]) PreparedCont) bool {
	i := slices.IndexFunc(d.waiters, func(w *distWaiter[T]) bool { return w.id == id })
	if i == -1 {
		return false
	}
	w := d.waiters[i]
	d.waiters = slices.Delete(d.waiters, i, i+1)
	cont := w.resolveWith(resolve)
	cont.Resume()
	return true
}

// Alert atomically arms flag (so a racing Subscribe under the same flag
// never registers) and then kicks out any waiter already subscribed under
// it, resolving it to Empty. It reports whether a waiter was found.
func (d *Distributor[T]) Alert(flag *AlertFlag) bool {
	if !flag.Set() {
		return false
	}
	return d.KickOut(flag, func(r Resolver[T]) PreparedCont { return r.SetEmpty() })
}

// distWaiter is the pending producer behind every [Distributor.Subscribe]
// call: it may resolve before ever being awaited (via [Broadcast] or
// [KickOut]), in which case Start replays the stored resolution, or it may be
// awaited first, in which case it stores the [Resolver] for later use —
// the same lazy-binding idiom [Queue]'s waiters use.
type distWaiter[T any] struct {
	id           any
	resolved     bool
	pending      func(Resolver[T]) PreparedCont
	resolver     Resolver[T]
	haveResolver bool
}

func (w *distWaiter[T]) Start(r Resolver[T]) PreparedCont {
	if w.resolved {
		return w.pending(r)
	}
	w.resolver, w.haveResolver = r, true
	return Ready()
}

func (w *distWaiter[T]) resolveWith(f func(Resolver[T]) PreparedCont) PreparedCont {
	w.resolved = true
	w.pending = f
	if w.haveResolver {
		return f(w.resolver)
	}
	return Ready()
}
