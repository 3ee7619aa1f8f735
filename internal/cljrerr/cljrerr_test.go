package cljrerr

import (
	"strings"
	"testing"

	"github.com/dangercoder/cljr/internal/analyzer"
	"github.com/dangercoder/cljr/internal/reader"
)

func TestFromReaderErrorCarriesLocation(t *testing.T) {
	re := &reader.Error{Reason: "unexpected EOF", Line: 3, Column: 7}
	e := FromReaderError("core.cljr", re)
	if e.Kind != KindSyntactic {
		t.Fatalf("Kind = %v, want KindSyntactic", e.Kind)
	}
	if e.Location == nil || e.Location.Line != 3 || e.Location.Column != 7 {
		t.Fatalf("Location = %+v, want line 3 col 7", e.Location)
	}
	if !strings.Contains(e.Error(), "core.cljr:3:7") {
		t.Fatalf("Error() = %q, want it to mention core.cljr:3:7", e.Error())
	}
}

func TestFromAnalyzerErrorWithoutForm(t *testing.T) {
	ae := &analyzer.Error{Kind: analyzer.KindArity, Reason: "wrong number of args"}
	e := FromAnalyzerError(ae)
	if e.Kind != KindSemantic {
		t.Fatalf("Kind = %v, want KindSemantic", e.Kind)
	}
	if e.Location != nil {
		t.Fatalf("analyzer errors carry no location, got %+v", e.Location)
	}
}

func TestFromRuntimeCarriesExceptionType(t *testing.T) {
	e := FromRuntime("divide by zero", "ArithmeticException")
	if e.Kind != KindRuntime || e.ExceptionType != "ArithmeticException" {
		t.Fatalf("got %+v, want Kind=Runtime ExceptionType=ArithmeticException", e)
	}
}

func TestNewInterruptedAndUnknownOp(t *testing.T) {
	if NewInterrupted().Kind != KindInterrupted {
		t.Fatalf("NewInterrupted should use KindInterrupted")
	}
	op := NewUnknownOp("frobnicate")
	if op.Kind != KindUnknownOp || !strings.Contains(op.Error(), "frobnicate") {
		t.Fatalf("NewUnknownOp(frobnicate) = %+v, want message mentioning frobnicate", op)
	}
}

func TestKindStringsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range []Kind{KindSyntactic, KindSemantic, KindCompileHost, KindRuntime, KindInterrupted, KindUnknownOp} {
		s := k.String()
		if seen[s] {
			t.Fatalf("duplicate Kind string %q", s)
		}
		seen[s] = true
	}
}
