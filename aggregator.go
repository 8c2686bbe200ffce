package async

// An AggregatorItem is one value an [Aggregator] yields, tagged with the
// index of the source [Generator] it came from.
type AggregatorItem[T any] struct {
	Index int
	Value T
}

// An Aggregator merges many [Generator] values of the same shape into one,
// itself exposed as a generator-like sequence of [AggregatorItem] (spec.md
// §4.7's "N-way generator merge").
//
// One helper [Coroutine] per source polls that source's current Next call
// to resolution and pushes its index into a ready [Queue]; the aggregator's
// own body pops one ready index per outer turn, harvests the source's
// resolved value (or retires it on termination, or reports its error via
// [GeneratorContext.YieldError] without losing the other sources), and
// recharges the source with the Param most recently received before going
// back for the next ready index.
//
// An Aggregator must not be shared by more than one [Executor].
type Aggregator[T, Param any] struct {
	e       *Executor
	sources []*Generator[T, Param]
	alive   []bool
	pending []*Awt[T]
	ready   *Queue[int]
	gen     *Generator[AggregatorItem[T], Param]

	started      bool
	popAwt       *Awt[int]
	needRecharge bool
	lastIdx      int
}

// NewAggregator creates an Aggregator over sources, whose helper coroutines
// run on e.
func NewAggregator[T, Param any](e *Executor, sources ...*Generator[T, Param]) *Aggregator[T, Param] {
	ag := &Aggregator[T, Param]{
		e:       e,
		sources: sources,
		alive:   make([]bool, len(sources)),
		pending: make([]*Awt[T], len(sources)),
		ready:   NewQueue[int](0),
	}
	for i := range ag.alive {
		ag.alive[i] = true
	}
	ag.gen = NewGenerator(ag.body)
	return ag
}

// Next resumes the aggregator with param (delivered to whichever source is
// recharged as a result) and returns the [Awt] of the next [AggregatorItem],
// exactly like [Generator.Next].
func (ag *Aggregator[T, Param]) Next(param Param) *Awt[AggregatorItem[T]] {
	return ag.gen.Next(param)
}

// Close synchronously drains every source that still has a Next call in
// flight, so no helper coroutine is left dangling — the stand-in for the
// teacher's C++ original's destructor, which does the same thing inline
// since Go has no destructors. Sources are drained one at a time, matching
// spec.md §4.7's "drains pending sources synchronously": every pending
// [Awt.Wait] call resolves on the same shared [Executor], and
// [Executor.Run] is not reentrant across goroutines, so draining them
// concurrently (one goroutine per source) would race on the Executor's
// internal scheduler state instead of merely taking longer.
func (ag *Aggregator[T, Param]) Close() error {
	for i, alive := range ag.alive {
		if !alive || ag.pending[i] == nil {
			continue
		}
		_, err := ag.pending[i].Wait(ag.e)
		if err != nil && err != Canceled {
			return err
		}
	}
	return nil
}

func (ag *Aggregator[T, Param]) charge(i int, param Param) {
	awt := ag.sources[i].Next(param)
	ag.pending[i] = awt
	ag.e.Spawn(func(co *Coroutine) Result {
		_, _, ready := awt.Poll(co)
		if !ready {
			return co.Yield()
		}
		ag.ready.Push(i)
		return co.End()
	})
}

func (ag *Aggregator[T, Param]) body(ctx *GeneratorContext[AggregatorItem[T], Param]) Result {
	if !ag.started {
		ag.started = true
		var zero Param
		for i := range ag.sources {
			ag.charge(i, zero)
		}
	}

	if ag.needRecharge {
		ag.needRecharge = false
		if ag.alive[ag.lastIdx] {
			ag.charge(ag.lastIdx, ctx.Arg())
		}
	}

	for {
		if !ag.anyAlive() {
			return ctx.Coroutine.End()
		}

		if ag.popAwt == nil {
			ag.popAwt = ag.ready.Pop()
		}
		idx, _, ready := ag.popAwt.Poll(ctx.Coroutine)
		if !ready {
			return ctx.Coroutine.Yield()
		}
		ag.popAwt = nil

		val, err := ag.pending[idx].Value()
		switch {
		case err == nil:
			ag.lastIdx, ag.needRecharge = idx, true
			return ctx.Yield(AggregatorItem[T]{Index: idx, Value: val})
		case err == Canceled:
			ag.alive[idx] = false
		default:
			ag.alive[idx] = false
			return ctx.YieldError(&GeneratorError{Index: idx, Err: err})
		}
	}
}

func (ag *Aggregator[T, Param]) anyAlive() bool {
	for _, alive := range ag.alive {
		if alive {
			return true
		}
	}
	return false
}
