package emitter

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/analyzer"
	"github.com/dangercoder/cljr/internal/reader"
)

func (em *Emitter) emitLiteral(e *analyzer.Expr, mode Mode) (string, error) {
	f := e.Literal
	if f == nil {
		return wrap("null", mode), nil
	}
	switch f.Kind {
	case reader.KindInteger:
		return wrap(fmt.Sprintf("%dL", f.IntVal), mode), nil
	case reader.KindFloat:
		return wrap(fmt.Sprintf("%g", f.FloatVal), mode), nil
	case reader.KindBool:
		if f.BoolVal {
			return wrap("true", mode), nil
		}
		return wrap("false", mode), nil
	case reader.KindString:
		return wrap(fmt.Sprintf("%q", f.StringVal), mode), nil
	case reader.KindChar:
		return wrap(fmt.Sprintf("'%c'", f.CharVal), mode), nil
	case reader.KindNil:
		return wrap("null", mode), nil
	}
	return wrap(fmt.Sprintf("%q", f.String()), mode), nil
}

func (em *Emitter) emitSymbolRef(e *analyzer.Expr) string {
	if e.Sym.Namespace == "" {
		return Mangle(e.Sym.Name)
	}
	_, class := MangleNamespace(e.Sym.Namespace)
	return class + "." + Mangle(e.Sym.Name)
}

func (em *Emitter) emitKeyword(e *analyzer.Expr) string {
	return fmt.Sprintf("Keyword.Intern(%q, %q)", e.Kw.Namespace, e.Kw.Name)
}

func (em *Emitter) emitItems(items []*analyzer.Expr) ([]string, error) {
	out := make([]string, len(items))
	for i, it := range items {
		code, err := em.Emit(it, ExprMode)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

func (em *Emitter) emitSeqLit(e *analyzer.Expr, ctor string, mode Mode) (string, error) {
	items, err := em.emitItems(e.Items)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("%s(%s)", ctor, strings.Join(items, ", ")), mode), nil
}

func (em *Emitter) emitMapLit(e *analyzer.Expr, mode Mode) (string, error) {
	parts := make([]string, 0, len(e.Pairs)*2)
	for _, p := range e.Pairs {
		k, err := em.Emit(p.Key, ExprMode)
		if err != nil {
			return "", err
		}
		v, err := em.Emit(p.Val, ExprMode)
		if err != nil {
			return "", err
		}
		parts = append(parts, k, v)
	}
	return wrap(fmt.Sprintf("PersistentMap.Of(%s)", strings.Join(parts, ", ")), mode), nil
}

// emitBlockBody emits prefix statements (e.g. let's local declarations)
// followed by body, the body's every element but the last emitted as a
// statement and the last in mode's position — or, when mode is
// ExprMode, the whole thing wrapped in an immediately invoked closure
// (spec §4.4 "Let/Do... Constructs that are statements in the target but
// must appear in expression position are wrapped in an immediately
// invoked closure").
func (em *Emitter) emitBlockBody(prefix []string, body []*analyzer.Expr, mode Mode) (string, error) {
	if len(body) == 0 {
		return wrap("null", mode), nil
	}
	stmts := append([]string{}, prefix...)
	for _, x := range body[:len(body)-1] {
		s, err := em.Emit(x, StmtMode)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, s)
	}
	last := body[len(body)-1]

	if mode == ExprMode {
		lastExpr, err := em.Emit(last, ExprMode)
		if err != nil {
			return "", err
		}
		return iife(stmts, lastExpr), nil
	}

	lastStmt, err := em.Emit(last, mode)
	if err != nil {
		return "", err
	}
	stmts = append(stmts, lastStmt)
	return strings.Join(stmts, "\n"), nil
}

func (em *Emitter) emitIf(e *analyzer.Expr, mode Mode) (string, error) {
	if mode == ExprMode {
		test, err := em.Emit(e.Test, ExprMode)
		if err != nil {
			return "", err
		}
		then, err := em.Emit(e.Then, ExprMode)
		if err != nil {
			return "", err
		}
		els := "null"
		if e.Else != nil {
			els, err = em.Emit(e.Else, ExprMode)
			if err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("(%s ? %s : %s)", test, then, els), nil
	}

	test, err := em.Emit(e.Test, ExprMode)
	if err != nil {
		return "", err
	}
	then, err := em.Emit(e.Then, mode)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "if (%s) {\n%s\n}", test, then)
	if e.Else != nil {
		els, err := em.Emit(e.Else, mode)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " else {\n%s\n}", els)
	}
	return b.String(), nil
}

func (em *Emitter) emitLet(e *analyzer.Expr, mode Mode) (string, error) {
	prefix := make([]string, 0, len(e.Bindings))
	for _, b := range e.Bindings {
		init, err := em.Emit(b.Init, ExprMode)
		if err != nil {
			return "", err
		}
		prefix = append(prefix, fmt.Sprintf("var %s = %s;", Mangle(b.Local.Name), init))
	}
	return em.emitBlockBody(prefix, e.Body, mode)
}

// tailContainsRecur reports whether the tail position of body contains a
// `recur`, walking through the tail-preserving constructs (if/do/let)
// without descending into a nested loop or fn, which introduce their own
// recur frame (spec §4.3 "recur-frame tracking... erased across fn
// boundaries").
func tailContainsRecur(body []*analyzer.Expr) bool {
	if len(body) == 0 {
		return false
	}
	last := body[len(body)-1]
	for {
		switch last.Kind {
		case analyzer.KRecur:
			return true
		case analyzer.KDo:
			if len(last.Exprs) == 0 {
				return false
			}
			last = last.Exprs[len(last.Exprs)-1]
		case analyzer.KLet:
			if len(last.Body) == 0 {
				return false
			}
			last = last.Body[len(last.Body)-1]
		case analyzer.KIf:
			return tailContainsRecur([]*analyzer.Expr{last.Then}) ||
				(last.Else != nil && tailContainsRecur([]*analyzer.Expr{last.Else}))
		default:
			return false
		}
	}
}

func (em *Emitter) emitLoop(e *analyzer.Expr, mode Mode) (string, error) {
	names := make([]string, len(e.Bindings))
	decls := make([]string, len(e.Bindings))
	for i, b := range e.Bindings {
		init, err := em.Emit(b.Init, ExprMode)
		if err != nil {
			return "", err
		}
		names[i] = Mangle(b.Local.Name)
		decls[i] = fmt.Sprintf("var %s = %s;", names[i], init)
	}

	em.loopVars = append(em.loopVars, names)
	defer func() { em.loopVars = em.loopVars[:len(em.loopVars)-1] }()

	bodyStmts := make([]string, 0, len(e.Body))
	for _, x := range e.Body[:max(0, len(e.Body)-1)] {
		s, err := em.Emit(x, StmtMode)
		if err != nil {
			return "", err
		}
		bodyStmts = append(bodyStmts, s)
	}
	var last *analyzer.Expr
	if len(e.Body) > 0 {
		last = e.Body[len(e.Body)-1]
	}

	var tail string
	if last != nil && last.Kind == analyzer.KRecur {
		s, err := em.Emit(last, StmtMode)
		if err != nil {
			return "", err
		}
		tail = s
	} else if last != nil {
		lastCode, err := em.Emit(last, ExprMode)
		if err != nil {
			return "", err
		}
		tail = "__loop_result = " + lastCode + ";\nbreak;"
	} else {
		tail = "break;"
	}

	var whileBody strings.Builder
	for _, s := range bodyStmts {
		whileBody.WriteString(s)
		whileBody.WriteByte('\n')
	}
	whileBody.WriteString(tail)

	stmts := append([]string{}, decls...)
	stmts = append(stmts, "object __loop_result = null;")
	stmts = append(stmts, fmt.Sprintf("while (true) {\n%s\n}", whileBody.String()))

	switch mode {
	case ExprMode:
		return iife(stmts, "__loop_result"), nil
	case ReturnMode:
		return strings.Join(append(stmts, "return __loop_result;"), "\n"), nil
	default:
		return strings.Join(stmts, "\n"), nil
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (em *Emitter) emitRecur(e *analyzer.Expr) (string, error) {
	if len(em.loopVars) == 0 {
		return "", fmt.Errorf("emitter: recur outside of a loop/fn rebinding context")
	}
	names := em.loopVars[len(em.loopVars)-1]
	if len(names) != len(e.Args) {
		return "", fmt.Errorf("emitter: recur arity %d does not match loop arity %d", len(e.Args), len(names))
	}
	temps := make([]string, len(e.Args))
	var b strings.Builder
	for i, a := range e.Args {
		code, err := em.Emit(a, ExprMode)
		if err != nil {
			return "", err
		}
		temps[i] = fmt.Sprintf("__recur_%d", i)
		fmt.Fprintf(&b, "var %s = %s;\n", temps[i], code)
	}
	for i, name := range names {
		fmt.Fprintf(&b, "%s = %s;\n", name, temps[i])
	}
	b.WriteString("continue;")
	return b.String(), nil
}

func (em *Emitter) emitTry(e *analyzer.Expr, mode Mode) (string, error) {
	tryBody, err := em.emitBlockBody(nil, e.TryBody, StmtMode)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "try {\n%s\n}", tryBody)
	for _, c := range e.Catches {
		catchBody, err := em.emitBlockBody(nil, c.Body, StmtMode)
		if err != nil {
			return "", err
		}
		local := "ex"
		if c.Local != nil {
			local = Mangle(c.Local.Name)
		}
		fmt.Fprintf(&b, " catch (%s %s) {\n%s\n}", c.ExceptionType, local, catchBody)
	}
	if len(e.Finally) > 0 {
		finallyBody, err := em.emitBlockBody(nil, e.Finally, StmtMode)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " finally {\n%s\n}", finallyBody)
	}
	if mode == ExprMode {
		// try/catch/finally has no value of its own in the target; a
		// try used in expression position yields null once it completes
		// (spec §4.4's IIFE-wrapping rule applied to a void construct).
		return fmt.Sprintf("((Func<object>)(() => { %s return null; }))()", b.String()), nil
	}
	return b.String(), nil
}
