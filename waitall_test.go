package async_test

import (
	"errors"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestWaitAllJoinsEveryAwaiter(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	boom := errors.New("boom")

	a1 := async.NewAwt(1)
	a2 := async.NewFailedAwt[int](boom)
	a3 := async.NewAwt(3)

	wa := async.NewWaitAll(&myExecutor, a1, a2, a3)

	var joined bool
	myExecutor.Spawn(wa.Await().Then(async.Do(func() { joined = true })))
	require.True(t, joined)

	values, errs := wa.Results()
	require.Equal(t, []int{1, 0, 3}, values)
	require.NoError(t, errs[0])
	require.ErrorIs(t, errs[1], boom)
	require.NoError(t, errs[2])
}
