package async_test

import (
	"errors"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestAwtResolvedVariants(t *testing.T) {
	v, err := async.NewAwt(5).Value()
	require.NoError(t, err)
	require.Equal(t, 5, v)

	boom := errors.New("boom")
	_, err = async.NewFailedAwt[int](boom).Value()
	require.ErrorIs(t, err, boom)

	_, err = async.NewEmptyAwt[int]().Value()
	require.ErrorIs(t, err, async.Canceled)
}

func TestAwtValuePanicsWhilePending(t *testing.T) {
	a := new(async.Awt[int])
	require.Panics(t, func() { a.Value() })
}

func TestAwtCloseRunsProducerDetached(t *testing.T) {
	var ran bool
	producer := async.ClosureProducer[int](func(w async.Resolver[int]) async.PreparedCont {
		ran = true
		return w.SetValue(1)
	})

	a := async.NewPendingAwt[int](producer)
	a.Close()

	require.True(t, ran)
}

func TestAwtForwardMovesState(t *testing.T) {
	var src, dst async.Awt[int]

	producer := async.ClosureProducer[int](func(w async.Resolver[int]) async.PreparedCont {
		return async.Ready()
	})
	src = *async.NewPendingAwt[int](producer)

	src.Forward(&dst)

	require.False(t, dst.Ready())
	require.True(t, src.Ready())
	_, err := src.Value()
	require.ErrorIs(t, err, async.Canceled)
}

func TestAwtCopyValue(t *testing.T) {
	a := async.NewAwt("hi")
	b := a.CopyValue()

	v, err := b.Value()
	require.NoError(t, err)
	require.Equal(t, "hi", v)

	pending := new(async.Awt[string])
	clone := pending.CopyValue()
	require.False(t, clone.Ready())
}

func TestAwtSetCallbackRunsOnceResolved(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	var calledWith int
	async.NewAwt(9).SetCallback(&myExecutor, func(a *async.Awt[int]) {
		v, _ := a.Value()
		calledWith = v
	})

	require.Equal(t, 9, calledWith)
}
