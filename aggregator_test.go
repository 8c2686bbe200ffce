package async_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

// counter returns a Generator that yields offset, offset+1, ..., offset+n-1
// and then ends naturally.
func counter(n, offset int) *async.Generator[int, struct{}] {
	i := 0
	return async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		if i >= n {
			return ctx.Coroutine.End()
		}
		v := offset + i
		i++
		return ctx.Yield(v)
	})
}

func TestAggregatorMergesEverySource(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	src0 := counter(3, 0)   // 0, 1, 2
	src1 := counter(2, 100) // 100, 101

	ag := async.NewAggregator(&myExecutor, src0, src1)

	bySource := map[int][]int{}
	for {
		item, err := ag.Next(struct{}{}).Wait(&myExecutor)
		if err != nil {
			require.ErrorIs(t, err, async.Canceled)
			break
		}
		bySource[item.Index] = append(bySource[item.Index], item.Value)
	}

	require.Equal(t, []int{0, 1, 2}, bySource[0])
	require.Equal(t, []int{100, 101}, bySource[1])
}

func TestAggregatorReportsOneFailingSourceWithoutLosingOthers(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	good := counter(3, 0)

	boom := errors.New("boom")
	failed := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		return ctx.YieldError(boom)
	})

	ag := async.NewAggregator(&myExecutor, good, failed)

	var fromGood []int
	var genErrs int
	for {
		item, err := ag.Next(struct{}{}).Wait(&myExecutor)
		if err == nil {
			fromGood = append(fromGood, item.Value)
			continue
		}
		if errors.Is(err, async.Canceled) {
			break
		}
		var gerr *async.GeneratorError
		require.ErrorAs(t, err, &gerr)
		require.Equal(t, 1, gerr.Index)
		require.ErrorIs(t, gerr.Err, boom)
		genErrs++
	}

	require.Equal(t, []int{0, 1, 2}, fromGood)
	require.Equal(t, 1, genErrs)
}

// blockedSource returns a Generator whose first Next call suspends for real
// (awaiting nothing, so nothing resolves it on its own) and a release
// function that resumes it directly, causing it to yield v on its next turn.
// Used to give a source genuine in-flight state at the moment Close runs,
// rather than one that merely looks pending but is already resolved by the
// time test code can observe it.
func blockedSource(v int) (src *async.Generator[int, struct{}], release func()) {
	var co *async.Coroutine
	var once sync.Once
	src = async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		if co == nil {
			co = ctx.Coroutine
			return ctx.Coroutine.Yield()
		}
		return ctx.Yield(v)
	})
	release = func() { once.Do(func() { co.Resume() }) }
	return src, release
}

// Close used to drain every still-pending source concurrently, one goroutine
// per source via errgroup, each calling Wait on the shared Executor — two
// goroutines could end up running two different Coroutines of the same
// Executor at once, racing on the Aggregator's own fields. Close now drains
// sequentially, one Wait per source, so only ever one Coroutine of myExecutor
// runs at a time.
//
// release0 and release1 run on the test goroutine, not their own goroutines:
// Wait's own Run call is unconditional (it does not check whether myExecutor
// is already running elsewhere), so driving it from a second goroutine that
// might itself be autorun-pumping the same Executor concurrently would
// reintroduce the very hazard this test exists to rule out. Running Close on
// its own goroutine and releasing sequentially from the test goroutine keeps
// exactly one goroutine calling Run at a time, while still giving Close two
// sources that are genuinely still pending when it starts draining them.
func TestAggregatorCloseDrainsStillPendingSources(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	src0, release0 := blockedSource(0)
	src1, release1 := blockedSource(1)

	ag := async.NewAggregator(&myExecutor, src0, src1)

	item := ag.Next(struct{}{})
	require.False(t, item.Ready(), "both sources must still be pending before Close runs")

	closeErr := make(chan error, 1)
	go func() { closeErr <- ag.Close() }()

	release0()
	release1()

	require.NoError(t, <-closeErr)
}
