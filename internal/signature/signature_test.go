package signature

import (
	"testing"

	"github.com/dangercoder/cljr/internal/analyzer"
)

func TestComputeRecordSignature(t *testing.T) {
	e := &analyzer.Expr{
		Kind:     analyzer.KRecord,
		TypeName: "Point",
		Fields: []analyzer.FieldDef{
			{Name: "x", Hint: "long"},
			{Name: "y", Hint: "long", Mutable: true},
		},
		Interfaces: []string{"Comparable"},
		MethodDefs: []analyzer.MethodDef{
			{Name: "dist", Params: []string{"this", "other"}},
		},
	}
	got, err := Compute("myapp.core", e)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	want := "myapp.core|record|Point|fields=x:long,y:long!|interfaces=Comparable|methods=dist/2"
	if got != want {
		t.Fatalf("Compute() = %q, want %q", got, want)
	}
}

func TestComputeIsDeterministicAcrossCalls(t *testing.T) {
	e := &analyzer.Expr{Kind: analyzer.KType, TypeName: "Widget"}
	a, err := Compute("user", e)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	b, err := Compute("user", e)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if a != b {
		t.Fatalf("Compute() is not deterministic: %q != %q", a, b)
	}
}

func TestComputeDiffersOnFieldChange(t *testing.T) {
	base := &analyzer.Expr{
		Kind:     analyzer.KType,
		TypeName: "Widget",
		Fields:   []analyzer.FieldDef{{Name: "a"}},
	}
	changed := &analyzer.Expr{
		Kind:     analyzer.KType,
		TypeName: "Widget",
		Fields:   []analyzer.FieldDef{{Name: "a"}, {Name: "b"}},
	}
	s1, _ := Compute("user", base)
	s2, _ := Compute("user", changed)
	if s1 == s2 {
		t.Fatalf("adding a field should change the signature")
	}
}

func TestComputeRejectsNonTypeExpr(t *testing.T) {
	e := &analyzer.Expr{Kind: analyzer.KLiteral}
	if _, err := Compute("user", e); err == nil {
		t.Fatalf("Compute should reject a non-type-defining Expr")
	}
}
