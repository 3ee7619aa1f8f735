// Package hostcompile is the narrow boundary to the external host
// compiler, explicitly out of scope per spec §1: "the host compiler
// itself (invoked as a black box that returns either a loaded artifact +
// metadata reference or a diagnostic list)". internal/repl calls through
// this interface only; it never assumes anything about how the host
// actually compiles or loads code.
package hostcompile

import (
	"context"
	"fmt"
)

// Reference names one loaded artifact in the external host runtime (spec
// §1's "metadata reference", carried in the REPL session's loaded-
// references list per §4.5 step 3 and §3 "REPL session state owns...
// the set of loaded artifact references").
type Reference struct {
	ID       string
	TypeName string
}

// Diagnostic is one host-compiler error. The driver rewrites certain
// diagnostics (the synthetic type-accessibility marker) into a
// human-readable message before wrapping into cljrerr (spec §7
// "Compile-host").
type Diagnostic struct {
	Message string
}

func (d Diagnostic) Error() string { return d.Message }

// Artifact is what a successful compile-and-load produces: the Reference
// the driver tracks, plus — for a continuation eval rather than a
// type-defining compile unit — the produced value and any stdout
// captured during execution (spec §4.5 step 4 "capture standard output
// during evaluation via a redirected sink").
type Artifact struct {
	Reference Reference
	Value     any
	Stdout    string
}

// Compiler is the black-box boundary to the external host compiler (spec
// §1). CompileType builds an independent compile unit for a
// protocol/type/record-defining form and loads it as a new Reference
// (spec §4.5 step 3, "build an independent compile unit... invoke the
// host compiler, load the artifact"). CompileContinuation threads a
// statement script through the REPL's existing host-continuation state
// and returns the value the script produced (spec §4.5 step 4).
type Compiler interface {
	CompileType(ctx context.Context, ns, typeName, source string) (*Artifact, error)
	CompileContinuation(ctx context.Context, ns, source string) (*Artifact, error)
}

// Closed is returned by a Compiler whose continuation state has already
// been torn down (session close).
var Closed = fmt.Errorf("hostcompile: continuation closed")
