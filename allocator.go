package async

import "sync"

// A FrameAllocator is the extensibility point spec.md §4.8 describes for a
// task's frame storage: "a type is a valid frame allocator iff it supplies
// alloc(size, ctx...) and dealloc(ptr, size)". Go has no per-task allocation
// hook a compiler could wire a [Task] closure's storage through, since Go
// closures are always heap-allocated and garbage-collected regardless of
// what allocator a caller has in scope, and [Queue], [Distributor] and
// [Aggregator] store typed Go values rather than raw frame bytes, so none of
// them take a FrameAllocator either. FrameAllocator is instead a standalone
// byte-buffer allocator: a caller managing its own scratch buffers across a
// hot create-and-destroy loop (spec.md §8 scenario 8) can use one directly,
// the way it would use any other pooled-allocation utility.
type FrameAllocator interface {
	Alloc(size int) []byte
	Dealloc(buf []byte)
}

// A ReusableAllocator keeps one buffer, growing it on demand and never
// shrinking it; Dealloc is a no-op. Intended for hot loops that
// create-and-destroy one frame at a time, per spec.md §4.8's "reusable
// single-slot" variant — this is exactly the same one-[sync.Pool]-slot idea
// the package's own [Executor] uses for its [Coroutine] pool, generalized to
// raw bytes.
type ReusableAllocator struct {
	buf []byte
}

// Alloc returns a slice of size bytes backed by the allocator's single
// buffer, growing it first if necessary. The returned slice is only valid
// until the next call to Alloc.
func (a *ReusableAllocator) Alloc(size int) []byte {
	if cap(a.buf) < size {
		a.buf = make([]byte, size)
	}
	return a.buf[:size]
}

// Dealloc is a no-op: the single buffer is reused by the next Alloc call
// regardless.
func (a *ReusableAllocator) Dealloc(buf []byte) {}

// A FlatStackAllocator is a monotonic bump-pointer arena backed by one
// preallocated block, per spec.md §4.8's "flat-stack arena": "LIFO-optimal
// but tolerates out-of-order frees (space is reclaimed lazily when the head
// becomes free)". The offset and size of each allocation are kept in
// slices beside the block, not in the block itself; Dealloc marks the
// allocation's entry free without moving anything,
// and the arena's top only retracts over a contiguous run of freed tails —
// exactly the lazy reclamation the spec describes.
type FlatStackAllocator struct {
	mu      sync.Mutex
	block   []byte
	offsets []int  // start offset of each live-or-freed allocation, in order
	sizes   []int  // size of each allocation, parallel to offsets
	freed   []bool // whether each allocation has been Dealloc'd, parallel to offsets
	top     int    // next free byte in block
}

// NewFlatStackAllocator creates a FlatStackAllocator backed by a block of
// blockSize bytes.
func NewFlatStackAllocator(blockSize int) *FlatStackAllocator {
	return &FlatStackAllocator{block: make([]byte, blockSize)}
}

// Alloc returns a slice of size bytes from the arena, rounding the current
// top up to an 8-byte boundary first. Alloc panics if the arena is
// exhausted: a FlatStackAllocator never grows, by design — growing would
// invalidate every previously returned slice's relationship to the block.
func (a *FlatStackAllocator) Alloc(size int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	const align = 8
	start := (a.top + align - 1) &^ (align - 1)
	if start+size > len(a.block) {
		panic("async: FlatStackAllocator exhausted")
	}

	a.offsets = append(a.offsets, start)
	a.sizes = append(a.sizes, size)
	a.freed = append(a.freed, false)
	a.top = start + size

	return a.block[start : start+size]
}

// Dealloc marks buf's allocation free. If buf is (or becomes, once earlier
// allocations still pending free are themselves freed) a contiguous run at
// the top of the arena, that space is reclaimed immediately; otherwise it
// stays marked free and is reclaimed only once the allocations above it are
// also freed.
func (a *FlatStackAllocator) Dealloc(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(buf) == 0 {
		return
	}
	start := &buf[0] // identify by address within a.block

	i := -1
	for j, off := range a.offsets {
		if &a.block[off] == start {
			i = j
			break
		}
	}
	if i == -1 {
		return
	}
	a.freed[i] = true

	n := len(a.offsets)
	for n > 0 && a.freed[n-1] {
		n--
	}
	if n < len(a.offsets) {
		if n == 0 {
			a.top = 0
		} else {
			a.top = a.offsets[n-1] + a.sizes[n-1]
		}
		a.offsets = a.offsets[:n]
		a.sizes = a.sizes[:n]
		a.freed = a.freed[:n]
	}
}
