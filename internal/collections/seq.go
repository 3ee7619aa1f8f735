package collections

// LazySeq wraps a thunk that is invoked at most once, on first demand,
// and memoized thereafter — the general mechanism behind every lazily
// produced seq in the runtime (spec §4.6 "Seq is lazy, possibly infinite").
type LazySeq struct {
	thunk    func() Seq
	realized Seq
	done     bool
}

// NewLazySeq defers evaluation of thunk until First/Rest/Next is called.
func NewLazySeq(thunk func() Seq) *LazySeq {
	return &LazySeq{thunk: thunk}
}

func (l *LazySeq) force() Seq {
	if !l.done {
		l.realized = l.thunk()
		if l.realized == nil {
			l.realized = emptySeq{}
		}
		l.done = true
		l.thunk = nil
	}
	return l.realized
}

func (l *LazySeq) Seq() Seq           { return l.force().Seq() }
func (l *LazySeq) First() (any, bool) { return l.force().First() }
func (l *LazySeq) Rest() Seq          { return l.force().Rest() }
func (l *LazySeq) Next() (Seq, bool)  { return l.force().Next() }

// Cons prepends x to s, lazily: the resulting seq does not force s until
// its own Rest/Next is demanded.
func Cons(x any, s Seq) Seq {
	return &consSeq{head: x, tail: s}
}

type consSeq struct {
	head any
	tail Seq
}

func (c *consSeq) Seq() Seq           { return c }
func (c *consSeq) First() (any, bool) { return c.head, true }
func (c *consSeq) Rest() Seq          { return c.tail }
func (c *consSeq) Next() (Seq, bool)  { return c.tail, true }

// Count forces a lazy seq to its end to report its length (spec §4.6
// "count on a lazy seq forces it").
func Count(s Seq) int {
	n := 0
	for {
		if _, ok := s.First(); !ok {
			return n
		}
		n++
		s = s.Rest()
	}
}

// Reduce folds fn over every element of s starting from init, taking the
// chunked fast path when s exposes one (spec §4.6 Chunked seq, used to
// amortize per-element overhead — the same rationale as the range's
// vectorized materialization).
func Reduce(fn func(acc, x any) any, init any, s Seq) any {
	acc := init
	for {
		if ch, ok := s.(Chunked); ok {
			if chunk, ok := ch.ChunkedFirst(); ok {
				for _, x := range chunk {
					acc = fn(acc, x)
				}
				s = ch.ChunkedRest()
				continue
			}
		}
		x, ok := s.First()
		if !ok {
			return acc
		}
		acc = fn(acc, x)
		s = s.Rest()
	}
}

// Map returns a lazy seq of fn applied to each element of s.
func Map(fn func(any) any, s Seq) Seq {
	x, ok := s.First()
	if !ok {
		return emptySeq{}
	}
	return Cons(fn(x), NewLazySeq(func() Seq { return Map(fn, s.Rest()) }))
}

// ToSlice forces s into a []any, used by the emitter/macro-runtime
// whenever a seq must be materialized for host interop.
func ToSlice(s Seq) []any {
	var out []any
	for {
		x, ok := s.First()
		if !ok {
			return out
		}
		out = append(out, x)
		s = s.Rest()
	}
}
