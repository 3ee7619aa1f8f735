package hostcompile

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory stand-in for the external host compiler, used in
// place of a live host process by internal/repl's tests (spec §1 keeps
// the real host compiler explicitly out of scope). It never compiles
// target-language source for real: it just assigns each load a fresh
// Reference and lets a test script canned values/diagnostics per source
// string, mirroring the teacher's sim/io.go captured-output idiom
// (Stdout) without a real subprocess or compiler behind it.
type Fake struct {
	mu     sync.Mutex
	nextID int

	// Values lets a test pre-program the value a given source string
	// evaluates to; sources not present default to nil.
	Values map[string]any
	// Stdout lets a test pre-program captured output for a source.
	Stdout map[string]string
	// FailOn lets a test force a diagnostic for a given source.
	FailOn map[string]string

	// Loaded records every source ever compiled, in call order — the
	// fake's equivalent of "the loaded artifact" for inspection in tests.
	Loaded []string
}

// NewFake builds an empty Fake compiler.
func NewFake() *Fake {
	return &Fake{
		Values: map[string]any{},
		Stdout: map[string]string{},
		FailOn: map[string]string{},
	}
}

func (f *Fake) nextRef(typeName string) Reference {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return Reference{ID: fmt.Sprintf("fake-%d", f.nextID), TypeName: typeName}
}

// CompileType implements Compiler.
func (f *Fake) CompileType(_ context.Context, ns, typeName, source string) (*Artifact, error) {
	if msg, ok := f.FailOn[source]; ok {
		return nil, Diagnostic{Message: msg}
	}
	f.mu.Lock()
	f.Loaded = append(f.Loaded, source)
	f.mu.Unlock()
	return &Artifact{Reference: f.nextRef(ns + "." + typeName)}, nil
}

// CompileContinuation implements Compiler.
func (f *Fake) CompileContinuation(_ context.Context, ns, source string) (*Artifact, error) {
	if msg, ok := f.FailOn[source]; ok {
		return nil, Diagnostic{Message: msg}
	}
	f.mu.Lock()
	f.Loaded = append(f.Loaded, source)
	f.mu.Unlock()
	return &Artifact{
		Reference: f.nextRef(ns),
		Value:     f.Values[source],
		Stdout:    f.Stdout[source],
	}, nil
}

var _ Compiler = (*Fake)(nil)
