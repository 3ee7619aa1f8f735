// Package cljrerr is the uniform error surface the REPL driver and wire
// server present to callers (spec §7: "Four kinds, surfaced uniformly as
// {kind, message, location?}"). Every pipeline stage has its own typed
// error (reader.Error, analyzer.Error, ...); this package wraps each of
// those into one shape so the driver never lets a native error type
// cross the eval boundary (spec §7 "Propagation policy").
package cljrerr

import (
	"fmt"

	"github.com/dangercoder/cljr/internal/analyzer"
	"github.com/dangercoder/cljr/internal/reader"
)

// Kind is one of the four error kinds of spec §7, plus the two
// driver/wire-only kinds from spec §6's wire error list (Interrupted,
// UnknownOp) that don't originate in the compiler pipeline.
type Kind struct{ k int }

var (
	KindSyntactic   = Kind{0} // ReaderError
	KindSemantic    = Kind{1} // AnalyzerError
	KindCompileHost = Kind{2} // HostCompileError
	KindRuntime     = Kind{3} // RuntimeError
	KindInterrupted = Kind{4}
	KindUnknownOp   = Kind{5}
)

var kindNames = [...]string{
	"ReaderError", "AnalyzerError", "HostCompileError", "RuntimeError",
	"Interrupted", "UnknownOp",
}

func (k Kind) String() string { return kindNames[k.k] }

// Location pinpoints the source position of an error, when known. Reader
// errors always carry one; analyzer errors carry only the offending form
// (forms do not retain line/column once parsed), so Location is nil for
// those — the message still names the form.
type Location struct {
	Path   string
	Line   int
	Column int
}

// Error is the one shape every error takes once it leaves the pipeline
// (spec §7 "{kind, message, location?}").
type Error struct {
	Kind          Kind
	Message       string
	Location      *Location
	ExceptionType string // set only for KindRuntime
}

func (e *Error) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s: %s (%s:%d:%d)", e.Kind, e.Message, e.Location.Path, e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error directly from a kind and message, for callers (the
// REPL driver's in-ns/require handling, signature computation failures)
// that have a plain Go error rather than a typed pipeline error to wrap.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromReaderError wraps a syntactic error from internal/reader.
func FromReaderError(path string, e *reader.Error) *Error {
	return &Error{
		Kind:     KindSyntactic,
		Message:  e.Reason,
		Location: &Location{Path: path, Line: e.Line, Column: e.Column},
	}
}

// FromAnalyzerError wraps a semantic error from internal/analyzer.
func FromAnalyzerError(e *analyzer.Error) *Error {
	msg := e.Reason
	if e.Form != nil {
		msg = fmt.Sprintf("%s (in %s)", e.Reason, e.Form)
	}
	return &Error{Kind: KindSemantic, Message: msg}
}

// FromHostCompile wraps a diagnostic returned by the black-box host
// compiler (internal/hostcompile).
func FromHostCompile(msg string) *Error {
	return &Error{Kind: KindCompileHost, Message: msg}
}

// FromRuntime wraps an uncaught exception surfaced while running
// evaluated code (spec §7 "their message and type name returned as
// err/ex frames").
func FromRuntime(msg, exceptionType string) *Error {
	return &Error{Kind: KindRuntime, Message: msg, ExceptionType: exceptionType}
}

// NewInterrupted builds the error returned when an in-flight eval is
// cancelled (spec §5 "Cancellation").
func NewInterrupted() *Error {
	return &Error{Kind: KindInterrupted, Message: "eval interrupted"}
}

// NewUnknownOp builds the error returned for an unrecognized wire op.
func NewUnknownOp(op string) *Error {
	return &Error{Kind: KindUnknownOp, Message: fmt.Sprintf("unknown op: %s", op)}
}
