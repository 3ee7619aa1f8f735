package repl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dangercoder/cljr/internal/config"
	"github.com/dangercoder/cljr/internal/hostcompile"
)

func newTestSession(t *testing.T) (*Session, *hostcompile.Fake) {
	t.Helper()
	fake := hostcompile.NewFake()
	s := New(config.Default(), fake, nil)
	return s, fake
}

func TestEvalDefRegistersVarAndReturnsSymbol(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Eval(context.Background(), `(def x 42)`)
	require.Nil(t, res.Err)
	require.Len(t, res.Values, 1)
	require.Equal(t, "x", res.Values[0].(interface{ String() string }).String())
	require.True(t, s.Registry().EnsureNamespace("user").HasVar("x"))
}

func TestEvalStarNsReturnsCurrentNamespace(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Eval(context.Background(), `*ns*`)
	require.Nil(t, res.Err)
	require.Equal(t, "user", res.Values[0].(interface{ String() string }).String())
}

func TestEvalStarOneYieldsOneValueAfterOrdinaryEvals(t *testing.T) {
	s, fake := newTestSession(t)
	fake.Values["one"] = 1
	fake.Values["two"] = 2
	fake.Values["three"] = 3

	// The Fake keys results by exact compile-unit source, which session.go
	// wraps, so exercise history via *1/*2/*3 against whatever ordinary
	// eval produces (nil from the unkeyed Fake) rather than depending on
	// the wrapped unit's exact text.
	s.Eval(context.Background(), `(+ 1 2)`)
	s.Eval(context.Background(), `(+ 3 4)`)
	res := s.Eval(context.Background(), `*1`)
	require.Nil(t, res.Err)
	require.Len(t, res.Values, 1)
}

func TestEvalNsFormSwitchesNamespace(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Eval(context.Background(), `(ns myapp.core)`)
	require.Nil(t, res.Err)
	require.Equal(t, "myapp.core", s.Namespace())
	_, ok := s.Registry().Get("myapp.core")
	require.True(t, ok)
}

func TestEvalInNsSwitchesNamespace(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Eval(context.Background(), `(in-ns 'other.ns)`)
	require.Nil(t, res.Err)
	require.Equal(t, "other.ns", s.Namespace())
}

func TestEvalRequireMakesOtherNamespaceTypesAccessible(t *testing.T) {
	s, _ := newTestSession(t)
	s.Eval(context.Background(), `(ns lib.widgets)`)
	s.Eval(context.Background(), `(deftype Widget [name])`)
	s.Eval(context.Background(), `(ns app.main)`)

	res := s.Eval(context.Background(), `(require '[lib.widgets])`)
	require.Nil(t, res.Err)

	ns, ok := s.Registry().Get("app.main")
	require.True(t, ok)
	require.True(t, ns.CanAccessType("lib.widgets"))
}

func TestEvalTypeFormCachesBySignature(t *testing.T) {
	s, fake := newTestSession(t)
	res1 := s.Eval(context.Background(), `(deftype Point [x y])`)
	require.Nil(t, res1.Err)
	res2 := s.Eval(context.Background(), `(deftype Point [x y])`)
	require.Nil(t, res2.Err)
	require.Len(t, fake.Loaded, 1, "second identical deftype should hit the signature cache, not recompile")
}

func TestEvalReaderErrorIsSyntactic(t *testing.T) {
	s, _ := newTestSession(t)
	res := s.Eval(context.Background(), `(+ 1`)
	require.NotNil(t, res.Err)
}

func TestInterruptAbortsRemainingForms(t *testing.T) {
	s, _ := newTestSession(t)
	s.Interrupt()
	res := s.Eval(context.Background(), `(def a 1) (def b 2)`)
	require.NotNil(t, res.Err)
	require.Empty(t, res.Values)
}
