package async_test

import (
	"errors"
	"testing"

	"github.com/coro-go/async"
	"github.com/stretchr/testify/require"
)

func TestGeneratorFibonacci(t *testing.T) {
	a, b := 0, 1
	gen := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		v := a
		a, b = b, a+b
		return ctx.Yield(v)
	})

	var got []int
	for range 6 {
		v, err := gen.Next(struct{}{}).Value()
		require.NoError(t, err)
		got = append(got, v)
	}

	require.Equal(t, []int{0, 1, 1, 2, 3, 5}, got)
}

func TestGeneratorEndsAndStaysEnded(t *testing.T) {
	i := 0
	gen := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		if i >= 2 {
			return ctx.Coroutine.End()
		}
		v := i
		i++
		return ctx.Yield(v)
	})

	v, err := gen.Next(struct{}{}).Value()
	require.NoError(t, err)
	require.Equal(t, 0, v)

	v, err = gen.Next(struct{}{}).Value()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	_, err = gen.Next(struct{}{}).Value()
	require.ErrorIs(t, err, async.Canceled)

	// Once ended, every further Next resolves to Empty without re-running
	// the body.
	_, err = gen.Next(struct{}{}).Value()
	require.ErrorIs(t, err, async.Canceled)
}

func TestGeneratorFailEndsPermanently(t *testing.T) {
	boom := errors.New("boom")
	gen := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		return ctx.Fail(boom)
	})

	_, err := gen.Next(struct{}{}).Value()
	require.ErrorIs(t, err, boom)

	_, err = gen.Next(struct{}{}).Value()
	require.ErrorIs(t, err, boom)
}

func TestGeneratorYieldErrorStaysAlive(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	gen := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		calls++
		if calls == 1 {
			return ctx.YieldError(boom)
		}
		return ctx.Yield(calls)
	})

	_, err := gen.Next(struct{}{}).Value()
	require.ErrorIs(t, err, boom)

	v, err := gen.Next(struct{}{}).Value()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestGeneratorAllDrainsEagerSequence(t *testing.T) {
	i := 0
	gen := async.NewGenerator(func(ctx *async.GeneratorContext[int, struct{}]) async.Result {
		if i >= 3 {
			return ctx.Coroutine.End()
		}
		v := i
		i++
		return ctx.Yield(v)
	})

	var got []int
	for v := range gen.All(struct{}{}) {
		got = append(got, v)
	}

	require.Equal(t, []int{0, 1, 2}, got)
}
