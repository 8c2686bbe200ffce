package async_test

import (
	"errors"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestTaskRunsProducerAndResolvesWithItsValue(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	task := async.NewTask(&myExecutor, func(ctx *async.TaskContext[int]) async.Result {
		return ctx.Return(7)
	})

	v, err := async.NewPendingAwt[int](task).Wait(&myExecutor)
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

// Calling Start directly with a detached (zero) Resolver exercises the same
// path [Awt.Close] uses to run a producer whose writes are discarded, without
// needing a bound Awt or a driving Coroutine to get the Task's body onto the
// executor's queue.
func TestTaskCancelBeforeStart(t *testing.T) {
	var myExecutor async.Executor

	var ran bool
	task := async.NewTask(&myExecutor, func(ctx *async.TaskContext[int]) async.Result {
		ran = true
		return ctx.Return(1)
	})

	task.Cancel()

	cont := task.Start(async.Resolver[int]{})
	cont.Discard()

	myExecutor.Run()

	require.False(t, ran, "canceling before Start must skip the producer entirely")
}

func TestTaskCancelAfterStartBeforeFirstResume(t *testing.T) {
	var myExecutor async.Executor

	var ran bool
	task := async.NewTask(&myExecutor, func(ctx *async.TaskContext[int]) async.Result {
		ran = true
		return ctx.Return(1)
	})

	cont := task.Start(async.Resolver[int]{})
	cont.Discard()
	// The task's body is now enqueued on myExecutor but has not had its
	// first turn: Cancel here must still suppress the producer.
	task.Cancel()

	myExecutor.Run()

	require.False(t, ran, "canceling before the spawned body's first turn must skip the producer")
}

func TestTaskDetachedFailureInvokesUnhandledExceptionHook(t *testing.T) {
	var myExecutor async.Executor
	myExecutor.Autorun(myExecutor.Run)

	boom := errors.New("boom")
	task := async.NewTask(&myExecutor, func(ctx *async.TaskContext[int]) async.Result {
		return ctx.Fail(boom)
	})

	orig := async.UnhandledExceptionHook
	defer func() { async.UnhandledExceptionHook = orig }()

	var caught any
	async.UnhandledExceptionHook = func(v any) { caught = v }

	cont := task.Start(async.Resolver[int]{})
	cont.Discard()

	require.ErrorIs(t, caught.(error), boom)
}
