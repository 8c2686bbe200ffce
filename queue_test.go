package async_test

import (
	"context"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestQueueUnbounded(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewQueue[int](0)

	_ = q.Push(1)
	_ = q.Push(2)
	require.Equal(t, 2, q.Len())

	v, err := q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestQueuePopBeforePush(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewQueue[string](0)

	// Pop registers its waiter immediately, before any value exists.
	popped := q.Pop()
	require.False(t, popped.Ready())

	_ = q.Push("hello")

	v, err := popped.Wait(&myExecutor)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestQueueBoundedBlocksPush(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewQueue[int](1)

	_ = q.Push(1)
	blocked := q.Push(2) // ring is full; this push waits for room
	require.False(t, blocked.Ready())

	v, err := q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	// Popping the front admits the waiting push into the freed slot.
	_, err = blocked.Wait(&myExecutor)
	require.NoError(t, err)

	v, err = q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestQueueCloseResolvesWaitingPopsToEmpty(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewQueue[int](0)

	popped := q.Pop()
	require.False(t, popped.Ready())

	q.Close()

	_, err := popped.Wait(&myExecutor)
	require.ErrorIs(t, err, async.Canceled)

	_, err = q.Pop().Value()
	require.ErrorIs(t, err, async.Canceled)
}

// Plain Push never touches a NewThreadSafeQueue's capacity gate — only
// PushSync does. Pop must not release a gate permit for an item that was
// never gated in the first place, or it panics with "semaphore: released
// more than held".
func TestThreadSafeQueueMixesPushAndPop(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewThreadSafeQueue[int](2)

	_ = q.Push(1)
	_ = q.Push(2)

	v, err := q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestThreadSafeQueuePushSyncCyclesGate(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	q := async.NewThreadSafeQueue[int](1)

	require.NoError(t, q.PushSync(context.Background(), &myExecutor, 1))

	v, err := q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	// The permit Pop freed must be available again: a second PushSync call
	// against a capacity-1 queue must neither block forever nor panic on
	// over-release.
	require.NoError(t, q.PushSync(context.Background(), &myExecutor, 2))

	v, err = q.Pop().Value()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestQueueClear(t *testing.T) {
	q := async.NewQueue[int](0)
	_ = q.Push(1)
	_ = q.Push(2)
	q.Clear()
	require.Equal(t, 0, q.Len())
}
