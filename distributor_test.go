package async_test

import (
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestDistributorBroadcast(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	d := async.NewDistributor[int]()

	sub1 := d.Subscribe("a")
	sub2 := d.Subscribe("b")

	d.Broadcast(42)

	v1, err := sub1.Wait(&myExecutor)
	require.NoError(t, err)
	require.Equal(t, 42, v1)

	v2, err := sub2.Wait(&myExecutor)
	require.NoError(t, err)
	require.Equal(t, 42, v2)
}

func TestDistributorKickOut(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	d := async.NewDistributor[int]()

	sub := d.Subscribe("only")
	require.True(t, d.KickOut("only", func(r async.Resolver[int]) async.PreparedCont {
		return r.SetEmpty()
	}))
	require.False(t, d.KickOut("only", func(r async.Resolver[int]) async.PreparedCont {
		return r.SetEmpty()
	}))

	_, err := sub.Wait(&myExecutor)
	require.ErrorIs(t, err, async.Canceled)
}

func TestDistributorAlertClosesRaceWithSubscribe(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	d := async.NewDistributor[int]()

	var flag async.AlertFlag

	// Nobody has subscribed under flag yet, so Alert only arms it.
	require.False(t, d.Alert(&flag))

	// A Subscribe arriving under an already-armed flag must refuse to
	// register and resolve immediately to Empty, not sit forever.
	sub := d.Subscribe(&flag)
	_, err := sub.Wait(&myExecutor)
	require.ErrorIs(t, err, async.Canceled)
}
