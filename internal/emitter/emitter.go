// Package emitter turns an analyzer.Expr tree into target-language source
// text (spec §4.4). Emission is purely syntactic: it trusts that names,
// types, and interfaces referenced by the Expr resolve in the compiled
// output, the way the teacher's own asm/generator.go trusts the symbol
// table's resolved addresses without re-validating them.
package emitter

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/analyzer"
)

// Emitter holds the small amount of state emission needs across a single
// Expr tree: the enclosing namespace (for top-level fn/type emission)
// and the stack of in-scope loop/fn rebinding variables that `recur`
// writes to (spec §4.4 "Tail calls").
type Emitter struct {
	NS       string
	loopVars [][]string
}

// New builds an Emitter for namespace ns.
func New(ns string) *Emitter {
	return &Emitter{NS: ns}
}

// Emit renders e in the given mode.
func (em *Emitter) Emit(e *analyzer.Expr, mode Mode) (string, error) {
	if e == nil {
		return wrap("null", mode), nil
	}
	switch e.Kind {
	case analyzer.KLiteral:
		return em.emitLiteral(e, mode)
	case analyzer.KSymbolRef:
		return wrap(em.emitSymbolRef(e), mode), nil
	case analyzer.KKeyword:
		return wrap(em.emitKeyword(e), mode), nil
	case analyzer.KVectorLit:
		return em.emitSeqLit(e, "PersistentVector.Of", mode)
	case analyzer.KSetLit:
		return em.emitSeqLit(e, "PersistentSet.Of", mode)
	case analyzer.KMapLit:
		return em.emitMapLit(e, mode)
	case analyzer.KIf:
		return em.emitIf(e, mode)
	case analyzer.KDo:
		return em.emitBlockBody(nil, e.Exprs, mode)
	case analyzer.KLet:
		return em.emitLet(e, mode)
	case analyzer.KLoop:
		return em.emitLoop(e, mode)
	case analyzer.KRecur:
		return em.emitRecur(e)
	case analyzer.KTry:
		return em.emitTry(e, mode)
	case analyzer.KThrow:
		code, err := em.Emit(e.ThrowExpr, ExprMode)
		if err != nil {
			return "", err
		}
		return wrap(fmt.Sprintf("throw %s", code), mode), nil
	case analyzer.KDef:
		return em.emitDef(e, mode)
	case analyzer.KFn:
		return em.emitFn(e, mode)
	case analyzer.KInvoke:
		return em.emitInvoke(e, mode)
	case analyzer.KInstanceMethod:
		return em.emitInstanceMethod(e, mode)
	case analyzer.KInstanceProperty:
		return em.emitInstanceProperty(e, mode)
	case analyzer.KStaticMethod:
		return em.emitStaticMethod(e, mode)
	case analyzer.KStaticProperty:
		return wrap(fmt.Sprintf("%s.%s", e.HostTypeName, e.HostMember), mode), nil
	case analyzer.KNew:
		return em.emitNew(e, mode)
	case analyzer.KCast:
		// Reserved: no current special form produces KCast (spec §4.3's
		// dispatch table has no explicit cast syntax), kept here so the
		// switch stays exhaustive over every Expr kind the same way
		// reader.FormKind's String() table lists every kind up front.
		target, err := em.Emit(e.HostTarget, ExprMode)
		if err != nil {
			return "", err
		}
		return wrap(fmt.Sprintf("((%s)%s)", e.HostTypeName, target), mode), nil
	case analyzer.KAssign:
		return em.emitAssign(e, mode)
	case analyzer.KAwait:
		task, err := em.Emit(e.TaskExpr, ExprMode)
		if err != nil {
			return "", err
		}
		return wrap(fmt.Sprintf("await %s", task), mode), nil
	case analyzer.KNs, analyzer.KInNs, analyzer.KRequire, analyzer.KImport:
		// The REPL driver intercepts these before they reach the emitter
		// (spec §4.5 step 2: "update the registry and return nil without
		// invoking the host compiler"). Emitting empty text rather than
		// erroring keeps AnalyzeFile-driven batch compiles tolerant of a
		// stray ns form reaching this far.
		return "", nil
	case analyzer.KProtocol:
		return em.emitProtocol(e)
	case analyzer.KType:
		return em.emitType(e)
	case analyzer.KRecord:
		return em.emitRecord(e)
	case analyzer.KQuote:
		return wrap(fmt.Sprintf("%q", e.RawForm.String()), mode), nil
	case analyzer.KPrimitiveOp:
		return em.emitPrimitiveOp(e, mode)
	case analyzer.KRawHost:
		return em.emitRawHost(e, mode)
	case analyzer.KTest:
		return em.emitTest(e)
	case analyzer.KAssert:
		return em.emitAssert(e, mode)
	}
	return "", fmt.Errorf("emitter: unhandled Expr kind %s", e.Kind)
}

func wrap(code string, mode Mode) string {
	switch mode {
	case StmtMode:
		return code + ";"
	case ReturnMode:
		return "return " + code + ";"
	default:
		return code
	}
}

// iife wraps a sequence of statements plus a final result-producing
// expression in an immediately invoked closure, for constructs that are
// statements in the target but appear in expression position (spec
// §4.4 "wrapped in an immediately invoked closure").
func iife(stmts []string, result string) string {
	var b strings.Builder
	b.WriteString("((Func<object>)(() => {\n")
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	b.WriteString("return ")
	b.WriteString(result)
	b.WriteString(";\n}))()")
	return b.String()
}
