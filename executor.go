package async

import "sync"

// An Executor is a [Coroutine] spawner and runner.
//
// When a Coroutine is spawned or resumed, it is added into an internal
// queue. The Run method then pops and runs each of them from the queue
// until the queue is emptied. It is done in a single-threaded manner.
// If one Coroutine blocks, no other Coroutines can run.
// The best practice is not to block.
//
// The internal queue is a priority queue. Coroutines are popped in order
// of [Coroutine.Weight] (heaviest first), then in order of spawn depth
// (shallowest first), and ties are broken by arrival order (FIFO).
//
// Manually calling the Run method is usually not desired. One would
// instead use the Autorun method to set up an autorun function to calling
// the Run method automatically whenever a Coroutine is spawned or
// resumed. The Executor never calls the autorun function twice at the
// same time.
//
// An Executor is the scheduler substrate that every other type in this
// package (Awt, Task, Generator, Queue, Mutex, Distributor, and the
// combinators) is built on top of: it is what spec.md calls the
// "symmetric-transfer scheduler".
type Executor struct {
	mu       sync.Mutex
	pq       priorityqueue[*Coroutine]
	running  bool
	autorun  func()
	coroPool sync.Pool
	ps       panicstack
}

// Autorun sets up an autorun function to calling the Run method
// automatically whenever a [Coroutine] is spawned or resumed.
//
// One must pass a function that calls the Run method.
//
// If f blocks, the Spawn method may block too. The best practice is not
// to block.
func (e *Executor) Autorun(f func()) {
	e.autorun = f
}

// Run pops and runs every [Coroutine] in the queue until the queue is
// emptied.
//
// Run must not be called twice at the same time. If a root coroutine
// panics without recovering, Run re-panics after every other ready
// coroutine has had a chance to run.
func (e *Executor) Run() {
	e.mu.Lock()
	e.running = true

	for !e.pq.Empty() {
		co := e.pq.Pop()
		e.runCoroutine(co)
	}

	e.running = false

	ps := e.ps
	e.ps = nil
	e.mu.Unlock()

	ps.Repanic()
}

// Spawn creates a root [Coroutine] to work on t.
//
// The Coroutine is added to the queue. To run it, either call the Run
// method, or call the Autorun method to set up an autorun function
// beforehand.
//
// Spawn is safe for concurrent use.
func (e *Executor) Spawn(t Task) {
	co := e.newCoroutine().init(e, t).recyclable()
	e.resumeCoroutine(co, true)
}

func (e *Executor) coroutinePool() *sync.Pool {
	return &e.coroPool
}
