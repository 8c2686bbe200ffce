package async_test

import (
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestReusableAllocatorGrowsAndReuses(t *testing.T) {
	var a async.ReusableAllocator

	buf1 := a.Alloc(8)
	require.Len(t, buf1, 8)

	buf2 := a.Alloc(4)
	require.Len(t, buf2, 4)

	buf3 := a.Alloc(16)
	require.Len(t, buf3, 16)

	a.Dealloc(buf3) // no-op
}

func TestFlatStackAllocatorReclaimsContiguousTail(t *testing.T) {
	a := async.NewFlatStackAllocator(64)

	b1 := a.Alloc(8)
	b2 := a.Alloc(8)
	b3 := a.Alloc(8)

	// Freeing the top-most allocation first reclaims its space immediately.
	a.Dealloc(b3)
	b4 := a.Alloc(8)
	require.Same(t, &b3[0], &b4[0])

	// Freeing b1 (not the top) does not reclaim anything on its own: b2 is
	// still live above it.
	a.Dealloc(b1)
	b5 := a.Alloc(8)
	require.NotSame(t, &b1[0], &b5[0])

	// Freeing b2, b4 and b5 (all now above the freed b1) lets the top
	// retract all the way back down to b1's offset.
	a.Dealloc(b2)
	a.Dealloc(b4)
	a.Dealloc(b5)
	b6 := a.Alloc(8)
	require.Same(t, &b1[0], &b6[0])
}

func TestFlatStackAllocatorPanicsWhenExhausted(t *testing.T) {
	a := async.NewFlatStackAllocator(8)
	a.Alloc(8)
	require.Panics(t, func() { a.Alloc(1) })
}
