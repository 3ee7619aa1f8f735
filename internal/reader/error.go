package reader

import "fmt"

// ErrorKind distinguishes the syntactic failure modes enumerated in spec
// §7 ("Syntactic (reader)"). Modeled as a struct-wrapped int, the same
// type-checked-enumeration idiom the teacher uses for lexer/token kinds
// (asm/lexer.go) so that an ErrorKind can never be assigned an arbitrary
// int by mistake.
type ErrorKind struct{ k int }

var (
	KindUnterminatedString ErrorKind = ErrorKind{0}
	KindUnterminatedPipe   ErrorKind = ErrorKind{1}
	KindUnbalancedBrackets ErrorKind = ErrorKind{2}
	KindOddMap             ErrorKind = ErrorKind{3}
	KindDuplicateSetElem   ErrorKind = ErrorKind{4}
	KindMalformedNumber    ErrorKind = ErrorKind{5}
	KindUnexpectedChar     ErrorKind = ErrorKind{6}
	KindNonASCIIControl    ErrorKind = ErrorKind{7}
)

var kindNames = map[ErrorKind]string{
	KindUnterminatedString: "unterminated-string",
	KindUnterminatedPipe:   "unterminated-pipe-escape",
	KindUnbalancedBrackets: "unbalanced-brackets",
	KindOddMap:             "odd-map",
	KindDuplicateSetElem:   "duplicate-set-element",
	KindMalformedNumber:    "malformed-number",
	KindUnexpectedChar:     "unexpected-character",
	KindNonASCIIControl:    "non-ascii-control",
}

func (k ErrorKind) String() string { return kindNames[k] }

// Error is the reader's uniform error shape (spec §4.1 "ReaderError{kind,
// line, column, reason}"). It is fatal for the offending form but the
// reader remains usable for the next form (spec §7 "recoverable by caller
// for the next form").
type Error struct {
	Kind   ErrorKind
	Line   int
	Column int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Kind, e.Line, e.Column, e.Reason)
}

func newError(kind ErrorKind, line, col int, reason string) *Error {
	return &Error{Kind: kind, Line: line, Column: col, Reason: reason}
}
