package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorConjPopLaws(t *testing.T) {
	v := EmptyVector
	for i := 0; i < 40; i++ {
		v = v.Conj(i)
	}
	require.Equal(t, 40, v.Count())
	nth, ok := v.Nth(39)
	require.True(t, ok)
	require.Equal(t, 39, nth)

	popped, err := v.Pop()
	require.NoError(t, err)
	require.Equal(t, 39, popped.Count())
	last, ok := popped.Nth(38)
	require.True(t, ok)
	require.Equal(t, 38, last)
}

func TestVectorConjThenPopRoundTrips(t *testing.T) {
	v := NewVector(1, 2, 3)
	conjed := v.Conj(4)
	require.Equal(t, v.Count()+1, conjed.Count())
	popped, err := conjed.Pop()
	require.NoError(t, err)
	require.True(t, vectorsEqual(v, popped))
}

func TestVectorPopEmptyFails(t *testing.T) {
	_, err := EmptyVector.Pop()
	require.Error(t, err)
}

func TestVectorBeyondTailGrowsTrie(t *testing.T) {
	v := EmptyVector
	for i := 0; i < 1100; i++ {
		v = v.Conj(i)
	}
	for i := 0; i < 1100; i++ {
		nth, ok := v.Nth(i)
		require.True(t, ok)
		require.Equal(t, i, nth)
	}
}

func TestTransientVectorConjBang(t *testing.T) {
	tv := EmptyVector.AsTransient()
	for i := 0; i < 50; i++ {
		require.NoError(t, tv.ConjBang(i))
	}
	pv, err := tv.Persistent()
	require.NoError(t, err)
	require.Equal(t, 50, pv.Count())
	require.ErrorIs(t, tv.ConjBang(1), ErrTransientMisuse)
}

func TestMapAssocLaws(t *testing.T) {
	m, err := NewMap("a", 1, "b", 2)
	require.NoError(t, err)
	m2, err := m.AssocErr("c", 3)
	require.NoError(t, err)

	v, ok := m2.EntryAt("c")
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = m2.EntryAt("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestMapDissocRemovesSoleKey(t *testing.T) {
	m, err := NewMap("only", 1)
	require.NoError(t, err)
	m2 := m.Dissoc("only").(*PersistentMap)
	require.Equal(t, 0, m2.Count())
	_, ok := m2.EntryAt("only")
	require.False(t, ok)
}

func TestMapRejectsNilKey(t *testing.T) {
	_, err := EmptyMap.AssocErr(nil, 1)
	require.ErrorIs(t, err, ErrNilKey)
}

func TestMapOddElementCount(t *testing.T) {
	_, err := NewMap("a", 1, "b")
	require.Error(t, err)
}

func TestMapHandlesHashCollisionsWithManyEntries(t *testing.T) {
	m := EmptyMap
	var err error
	for i := 0; i < 500; i++ {
		m, err = m.AssocErr(int64(i), i*2)
		require.NoError(t, err)
	}
	require.Equal(t, 500, m.Count())
	for i := 0; i < 500; i++ {
		v, ok := m.EntryAt(int64(i))
		require.True(t, ok)
		require.Equal(t, i*2, v)
	}
}

func TestSetRejectsDuplicateLiteralElements(t *testing.T) {
	_, err := NewSetErr(1, 2, 1)
	require.Error(t, err)
}

func TestSetConjDisj(t *testing.T) {
	s := NewSet(1, 2, 3)
	require.Equal(t, 3, s.Count())
	_, ok := s.ValueAt(2)
	require.True(t, ok)
	s2 := s.Disj(2)
	_, ok = s2.ValueAt(2)
	require.False(t, ok)
}

func TestListConsAndSeq(t *testing.T) {
	l := NewList(1, 2, 3)
	require.Equal(t, 3, l.Count())
	head, ok := l.First()
	require.True(t, ok)
	require.Equal(t, 1, head)

	vals := ToSlice(l.Seq())
	require.Equal(t, []any{1, 2, 3}, vals)
}

func TestRangeSumMatchesClosedForm(t *testing.T) {
	r := NewRange(0, 1000000, 1)
	require.Equal(t, int64(499999500000), r.SumBy(OpIdentity))
}

func TestRangeVectorizedMatchesScalar(t *testing.T) {
	r := NewRange(-10, 10, 1)
	for _, op := range []RangeOp{OpIdentity, OpIncrement, OpDecrement, OpNegate, OpDouble} {
		require.Equal(t, r.ScalarMaterialize(op), r.MaterializeVectorized(op))
	}
}

func TestRangeCountConstant(t *testing.T) {
	r := NewRange(0, 100, 3)
	require.Equal(t, 34, r.Count())
}

func TestReduceUsesChunkedFastPath(t *testing.T) {
	v := EmptyVector
	for i := 1; i <= 100; i++ {
		v = v.Conj(int64(i))
	}
	sum := Reduce(func(acc, x any) any { return acc.(int64) + x.(int64) }, int64(0), v.Seq())
	require.Equal(t, int64(5050), sum)
}

func TestLazySeqThunkRunsAtMostOnce(t *testing.T) {
	calls := 0
	ls := NewLazySeq(func() Seq {
		calls++
		return NewList(1, 2).Seq()
	})
	_, _ = ls.First()
	_, _ = ls.First()
	_ = ls.Rest()
	require.Equal(t, 1, calls)
}
