package emitter

// Mode selects how an emitted expression sits in its enclosing construct
// (spec §4.4 "Expression contexts... three emission modes"). Modeled as
// the teacher's struct-wrapped-int enum (asm/lexer.go's TokenKind), the
// same idiom already reused for reader.FormKind and analyzer.Kind.
type Mode struct{ m int }

var (
	// ExprMode emits a bare expression with no trailing punctuation —
	// the value flows directly into the surrounding expression.
	ExprMode = Mode{0}
	// StmtMode emits the expression as a statement, trailing `;`, its
	// value (if any) discarded.
	StmtMode = Mode{1}
	// ReturnMode leads with `return ` — the expression is the last
	// value-producing position of an enclosing function/method body.
	ReturnMode = Mode{2}
)

var modeNames = [...]string{"Expr", "Stmt", "Return"}

func (m Mode) String() string { return modeNames[m.m] }
