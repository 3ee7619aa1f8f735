package analyzer

import (
	"fmt"

	"github.com/dangercoder/cljr/internal/reader"
)

// ErrorKind distinguishes the semantic failure modes of spec §7
// ("Semantic (analyzer)").
type ErrorKind struct{ k int }

var (
	KindArity            ErrorKind = ErrorKind{0}
	KindRecurPosition     ErrorKind = ErrorKind{1}
	KindUnknownSpecialForm ErrorKind = ErrorKind{2}
	KindUnresolvedSymbol  ErrorKind = ErrorKind{3}
	KindBadBindingShape   ErrorKind = ErrorKind{4}
	KindMacroExpansion    ErrorKind = ErrorKind{5}
)

var kindErrNames = map[ErrorKind]string{
	KindArity:              "arity",
	KindRecurPosition:       "recur-out-of-tail-position",
	KindUnknownSpecialForm:  "unknown-special-form-argument-shape",
	KindUnresolvedSymbol:    "unresolved-symbol",
	KindBadBindingShape:     "bad-binding-shape",
	KindMacroExpansion:      "macro-expansion",
}

func (k ErrorKind) String() string { return kindErrNames[k] }

// Error is the analyzer's uniform error shape (spec §4.3
// "AnalyzerError{kind, form, reason}").
type Error struct {
	Kind   ErrorKind
	Form   *reader.Form
	Reason string
}

func (e *Error) Error() string {
	if e.Form != nil {
		return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Reason, e.Form)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func errf(kind ErrorKind, form *reader.Form, format string, args ...any) *Error {
	return &Error{Kind: kind, Form: form, Reason: fmt.Sprintf(format, args...)}
}
