package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomDerefResetSwap(t *testing.T) {
	a := NewAtom(1)
	require.Equal(t, 1, a.Deref())

	require.Equal(t, 2, a.Reset(2))
	require.Equal(t, 2, a.Deref())

	got := a.Swap(func(v any) any { return v.(int) + 10 })
	require.Equal(t, 12, got)
	require.Equal(t, 12, a.Deref())
}

func TestAtomIdentitySurvivesAcrossHolders(t *testing.T) {
	a := NewAtom("first")
	b := a
	a.Reset("second")
	require.Equal(t, "second", b.Deref())
}
