package async

import "sync/atomic"

// An AlertFlag is an atomic boolean used as both a registration gate and a
// waiter identity: passing one to [Distributor.Subscribe] as the id lets a
// later [Distributor.Alert] on the same flag remove that waiter, while
// atomically preventing any further Subscribe under the same flag from
// registering. This closes the race spec between "broadcaster alerts a
// waiter" and "a concurrent subscribe under the same identity arrives just
// after" that a plain comparable id cannot close on its own.
type AlertFlag struct {
	armed atomic.Bool
}

// Armed reports whether the flag has already been set by [Distributor.Alert]
// (or a direct call to [AlertFlag.Set]).
func (f *AlertFlag) Armed() bool {
	return f.armed.Load()
}

// Set atomically arms the flag. It reports whether this call was the one
// that armed it (false if already armed).
func (f *AlertFlag) Set() bool {
	return f.armed.CompareAndSwap(false, true)
}

// Reset disarms the flag, so it may be reused as a fresh waiter identity.
func (f *AlertFlag) Reset() {
	f.armed.Store(false)
}
