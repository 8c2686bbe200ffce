package async

import "iter"

// A Generator is a restartable producer of a sequence of T, optionally
// fed a Param on every resume (spec.md §3.1, §4.3: "a restartable task
// that yields a sequence of T and optionally receives a Param back on
// each resume").
//
// A Generator owns a private [Executor], configured to autorun inline:
// calling [Generator.Next] drives the body forward synchronously as far
// as it can go without blocking. A body that never suspends on anything
// but the next Next call therefore always hands back an already-
// resolved [Awt]; a body that awaits some other [Event] (a timer's
// [Signal], say) hands back a pending one that some other driver
// (another Coroutine's await, or [SyncWait]) must resolve later, exactly
// as the Signal's own notifier resumes the Generator's Executor again.
type Generator[T, Param any] struct {
	executor   *Executor
	body       func(ctx *GeneratorContext[T, Param]) Result
	started    bool
	done       bool
	err        error
	currentArg State[Param]
	yieldSlot  *Awt[T]
}

// A GeneratorContext is what a Generator's body receives: the running
// [Coroutine], plus [GeneratorContext.Yield] to hand back a value and
// suspend until the next [Generator.Next] call, and
// [GeneratorContext.Arg] to read the Param most recently passed in.
type GeneratorContext[T, Param any] struct {
	*Coroutine
	gen *Generator[T, Param]
}

// NewGenerator returns a Generator whose body runs body.
func NewGenerator[T, Param any](body func(ctx *GeneratorContext[T, Param]) Result) *Generator[T, Param] {
	e := new(Executor)
	e.Autorun(e.Run)
	return &Generator[T, Param]{executor: e, body: body}
}

// Arg returns the Param passed to the most recent call to [Generator.Next].
//
// Arg only reads the current-argument slot, like [State.Get]; it registers
// no watcher. [GeneratorContext.Yield] and [GeneratorContext.YieldError]
// watch the slot, so call Arg again after every Yield to pick up the next
// resume's argument.
func (ctx *GeneratorContext[T, Param]) Arg() Param {
	return ctx.gen.currentArg.Get()
}

// Yield resolves the [Awt] the most recent [Generator.Next] call
// returned with v, then suspends the body until the next call to Next.
func (ctx *GeneratorContext[T, Param]) Yield(v T) Result {
	g := ctx.gen
	if slot := g.yieldSlot; slot != nil {
		g.yieldSlot = nil
		cont := Resolver[T]{slot: slot}.SetValue(v)
		cont.Resume()
	}
	return ctx.Await(&g.currentArg).Reiterate()
}

// Fail ends the generator permanently with err: this and every future
// call to [Generator.Next] resolves to an Exception carrying err.
func (ctx *GeneratorContext[T, Param]) Fail(err error) Result {
	ctx.gen.err = err
	return ctx.End()
}

// YieldError resolves the [Awt] the most recent [Generator.Next] call
// returned with err, then suspends the body until the next call to Next —
// unlike [GeneratorContext.Fail], the generator is not permanently ended;
// the next Next call runs the body again as usual. [Aggregator] uses this
// to report one failing source without losing the others (spec.md §4.7:
// "an exception carrying the source index and nested cause is yielded;
// the source is retired").
func (ctx *GeneratorContext[T, Param]) YieldError(err error) Result {
	g := ctx.gen
	if slot := g.yieldSlot; slot != nil {
		g.yieldSlot = nil
		cont := Resolver[T]{slot: slot}.SetException(err)
		cont.Resume()
	}
	return ctx.Await(&g.currentArg).Reiterate()
}

func (g *Generator[T, Param]) finish() {
	g.done = true
	if slot := g.yieldSlot; slot != nil {
		g.yieldSlot = nil
		var cont PreparedCont
		if g.err != nil {
			cont = Resolver[T]{slot: slot}.SetException(g.err)
		} else {
			cont = Resolver[T]{slot: slot}.SetEmpty()
		}
		cont.Resume()
	}
}

// Next resumes the generator's body with param and returns the [Awt]
// that the body's next [GeneratorContext.Yield] (or its completion)
// resolves. Calling Next again before the previous Awt resolves
// abandons that previous Awt in its pending state; callers wanting
// every value must wait for each Awt before calling Next again.
func (g *Generator[T, Param]) Next(param Param) *Awt[T] {
	a := new(Awt[T])

	if g.done {
		if g.err != nil {
			a.state, a.err = awtException, g.err
		} else {
			a.state = awtEmpty
		}
		return a
	}

	g.yieldSlot = a

	if !g.started {
		g.started = true
		g.currentArg.value = param

		gen := g
		body := Func(func(co *Coroutine) Result {
			co.Defer(Do(gen.finish))
			return co.Transition(func(co *Coroutine) Result {
				return gen.body(&GeneratorContext[T, Param]{Coroutine: co, gen: gen})
			})
		})
		g.executor.Spawn(body)
	} else {
		g.currentArg.Set(param)
	}

	return a
}

// All returns an iterator that synchronously drains g, passing zero as
// the argument to every resume, until it ends or fails. All panics if
// the body ever genuinely suspends on something other than the next
// Next call — it is meant for eager generators, per spec.md §8's "drain
// with a range-for" scenario, not for ones awaiting external events.
func (g *Generator[T, Param]) All(zero Param) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := g.Next(zero).Value()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
