package async_test

import (
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestMutexExcludesConcurrentOwners(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	m := async.NewMutex(&myExecutor)

	owner1, err := m.Lock().Wait(&myExecutor)
	require.NoError(t, err)
	require.NotNil(t, owner1)

	second := m.Lock()
	require.False(t, second.Ready())

	owner1.Release()

	owner2, err := second.Wait(&myExecutor)
	require.NoError(t, err)
	require.NotNil(t, owner2)
}

func TestMultiLockAcquiresInStableOrder(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	a := async.NewMutex(&myExecutor)
	b := async.NewMutex(&myExecutor)

	// Two MultiLocks built from the same pair, in opposite argument order,
	// must still acquire in the same relative order and therefore never
	// deadlock each other.
	ml1 := async.NewMultiLock(&myExecutor, a, b)
	ml2 := async.NewMultiLock(&myExecutor, b, a)

	owned1, err := ml1.Lock().Wait(&myExecutor)
	require.NoError(t, err)
	require.Len(t, owned1, 2)

	lock2 := ml2.Lock()
	require.False(t, lock2.Ready())

	for _, o := range owned1 {
		o.Release()
	}

	owned2, err := lock2.Wait(&myExecutor)
	require.NoError(t, err)
	require.Len(t, owned2, 2)
}
