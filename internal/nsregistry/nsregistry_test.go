package nsregistry

import (
	"testing"

	"github.com/dangercoder/cljr/internal/analyzer"
)

func TestEnsureNamespaceCreatesOnce(t *testing.T) {
	reg := NewRegistry()
	a := reg.EnsureNamespace("user")
	b := reg.EnsureNamespace("user")
	if a != b {
		t.Fatalf("EnsureNamespace returned different namespaces for the same name")
	}
	if got := reg.Names(); len(got) != 1 || got[0] != "user" {
		t.Fatalf("Names() = %v, want [user]", got)
	}
}

func TestApplyRequiresAliasAndRefer(t *testing.T) {
	reg := NewRegistry()
	user := reg.EnsureNamespace("user")
	reg.EnsureNamespace("myapp.core")

	user.ApplyRequires([]analyzer.RequireClause{
		{NS: "myapp.core", Alias: "core", Refer: []string{"helper"}},
	})

	if ns, ok := user.ResolveAlias("core"); !ok || ns != "myapp.core" {
		t.Fatalf("ResolveAlias(core) = (%s, %v), want (myapp.core, true)", ns, ok)
	}
	if ns, ok := user.HasRefer("helper"); !ok || ns != "myapp.core" {
		t.Fatalf("HasRefer(helper) = (%s, %v), want (myapp.core, true)", ns, ok)
	}
	if _, ok := user.HasRefer("nope"); ok {
		t.Fatalf("HasRefer(nope) should be false")
	}
	if !user.CanAccessType("myapp.core") {
		t.Fatalf("requiring myapp.core should make its types accessible")
	}
	if user.CanAccessType("other.ns") {
		t.Fatalf("un-required namespace's types should not be accessible")
	}
}

func TestCanAccessTypeOwnNamespaceAlwaysTrue(t *testing.T) {
	reg := NewRegistry()
	user := reg.EnsureNamespace("user")
	if !user.CanAccessType("user") {
		t.Fatalf("a namespace can always access its own types")
	}
}

func TestDefineVarAndHasVar(t *testing.T) {
	reg := NewRegistry()
	user := reg.EnsureNamespace("user")
	if user.HasVar("x") {
		t.Fatalf("HasVar(x) should be false before DefineVar")
	}
	user.DefineVar("x", 42, false)
	if !user.HasVar("x") {
		t.Fatalf("HasVar(x) should be true after DefineVar")
	}
	v, ok := user.Lookup("x")
	if !ok || v.Value != 42 {
		t.Fatalf("Lookup(x) = (%v, %v), want (42, true)", v, ok)
	}
}

func TestApplyImportsRecordsHostNamespace(t *testing.T) {
	reg := NewRegistry()
	user := reg.EnsureNamespace("user")
	user.ApplyImports([]analyzer.ImportClause{
		{HostNS: "java.util", Types: []string{"ArrayList", "HashMap"}},
	})
	if !user.Imports["java.util"] {
		t.Fatalf("ApplyImports should record java.util as imported")
	}
}

func TestRegisterTypeAndTypeOwner(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterType("myapp.core", "Widget")
	ns, ok := reg.TypeOwner("Widget")
	if !ok || ns != "myapp.core" {
		t.Fatalf("TypeOwner(Widget) = (%s, %v), want (myapp.core, true)", ns, ok)
	}
	if _, ok := reg.TypeOwner("Unknown"); ok {
		t.Fatalf("TypeOwner(Unknown) should be false")
	}
}

func TestAccessibilityErrorNamesDefiningNamespace(t *testing.T) {
	err := AccessibilityError("Widget", "myapp.core")
	if err == nil {
		t.Fatalf("AccessibilityError should not return nil")
	}
	got := err.Error()
	if got == "" {
		t.Fatalf("AccessibilityError message should not be empty")
	}
}
