package hostcompile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeCompileTypeAssignsDistinctReferences(t *testing.T) {
	f := NewFake()
	a1, err := f.CompileType(context.Background(), "user", "Widget", "src-a")
	require.NoError(t, err)
	a2, err := f.CompileType(context.Background(), "user", "Gadget", "src-b")
	require.NoError(t, err)
	require.NotEqual(t, a1.Reference.ID, a2.Reference.ID)
	require.Equal(t, []string{"src-a", "src-b"}, f.Loaded)
}

func TestFakeCompileContinuationReturnsProgrammedValue(t *testing.T) {
	f := NewFake()
	f.Values["(+ 1 2)"] = 3
	f.Stdout["(+ 1 2)"] = "computing\n"

	artifact, err := f.CompileContinuation(context.Background(), "user", "(+ 1 2)")
	require.NoError(t, err)
	require.Equal(t, 3, artifact.Value)
	require.Equal(t, "computing\n", artifact.Stdout)
}

func TestFakeFailOnReturnsDiagnostic(t *testing.T) {
	f := NewFake()
	f.FailOn["bad"] = "boom"

	_, err := f.CompileContinuation(context.Background(), "user", "bad")
	require.Error(t, err)
	diag, ok := err.(Diagnostic)
	require.True(t, ok)
	require.Equal(t, "boom", diag.Message)
	require.Equal(t, "boom", diag.Error())
}

func TestFakeImplementsCompiler(t *testing.T) {
	var _ Compiler = NewFake()
}
