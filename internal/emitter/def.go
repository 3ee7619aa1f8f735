package emitter

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/analyzer"
)

func (em *Emitter) emitDef(e *analyzer.Expr, mode Mode) (string, error) {
	if e.Init == nil {
		// defmacro's marker Def and a bare forward-declaring def have no
		// initializer to emit as a var assignment.
		return "", nil
	}
	if e.Init.Kind == analyzer.KFn && e.Init.FnName != "" {
		// (def name (fn ...)) sugar from defn: the fn carries its own
		// FnName and emits as named top-level method overloads, not a
		// value to assign (spec §4.4 "a top-level named method... when
		// it arises from def+fn at toplevel").
		return em.Emit(e.Init, mode)
	}
	init, err := em.Emit(e.Init, ExprMode)
	if err != nil {
		return "", err
	}
	visibility := "public"
	if e.Private {
		visibility = "private"
	}
	name := Mangle(e.DefSymbol.Name)
	return wrap(fmt.Sprintf("%s static object %s = %s", visibility, name, init), mode), nil
}

func (em *Emitter) emitFn(e *analyzer.Expr, mode Mode) (string, error) {
	if e.FnName != "" {
		// Top-level defn: one overload per arity, emitted as named
		// methods on the namespace class (spec §4.4 "Fn emission... a
		// top-level named method... when it arises from def+fn at
		// toplevel").
		overloads := make([]string, len(e.Methods))
		for i, m := range e.Methods {
			s, err := em.emitFnMethod(e.FnName, m, e.IsAsync)
			if err != nil {
				return "", err
			}
			overloads[i] = s
		}
		return strings.Join(overloads, "\n\n"), nil
	}

	if len(e.Methods) != 1 {
		return "", fmt.Errorf("emitter: an anonymous fn literal must have exactly one arity, got %d", len(e.Methods))
	}
	m := e.Methods[0]
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = Mangle(p.Name)
	}
	if m.Rest != nil {
		params = append(params, "params object[] "+Mangle(m.Rest.Name))
	}
	body, err := em.emitFnBody(m, e.IsAsync)
	if err != nil {
		return "", err
	}
	asyncKw := ""
	if e.IsAsync {
		asyncKw = "async "
	}
	code := fmt.Sprintf("(%sobject (%s) => {\n%s\n})", asyncKw, strings.Join(params, ", "), body)
	return wrap(code, mode), nil
}

func (em *Emitter) emitFnMethod(name string, m analyzer.FnMethod, isAsync bool) (string, error) {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = "object " + Mangle(p.Name)
	}
	if m.Rest != nil {
		params = append(params, "params object[] "+Mangle(m.Rest.Name))
	}
	body, err := em.emitFnBody(m, isAsync)
	if err != nil {
		return "", err
	}
	ret := "object"
	asyncKw := ""
	if isAsync {
		ret = "Task<object>"
		asyncKw = "async "
	}
	return fmt.Sprintf("public static %s%s %s(%s) {\n%s\n}", asyncKw, ret, Mangle(name), strings.Join(params, ", "), body), nil
}

// emitFnBody emits a fn arity's body, rebinding the body into a
// `while (true)` loop over its own parameters when the body tail-recurs
// directly into the fn (spec §4.4 "Fn-level recur likewise transforms
// the function body into a rebinding loop over its parameters").
func (em *Emitter) emitFnBody(m analyzer.FnMethod, isAsync bool) (string, error) {
	if !tailContainsRecur(m.Body) {
		return em.emitBlockBody(nil, m.Body, ReturnMode)
	}

	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = Mangle(p.Name)
	}
	if m.Rest != nil {
		names = append(names, Mangle(m.Rest.Name))
	}
	em.loopVars = append(em.loopVars, names)
	defer func() { em.loopVars = em.loopVars[:len(em.loopVars)-1] }()

	stmts := make([]string, 0, len(m.Body))
	for _, x := range m.Body[:max(0, len(m.Body)-1)] {
		s, err := em.Emit(x, StmtMode)
		if err != nil {
			return "", err
		}
		stmts = append(stmts, s)
	}
	last := m.Body[len(m.Body)-1]
	tail, err := em.Emit(last, ReturnMode)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("while (true) {\n")
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	b.WriteString(tail)
	b.WriteString("\n}")
	return b.String(), nil
}

func (em *Emitter) emitInvoke(e *analyzer.Expr, mode Mode) (string, error) {
	fn, err := em.Emit(e.FnExpr, ExprMode)
	if err != nil {
		return "", err
	}
	args, err := em.emitItems(e.InvokeArgs)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", ")), mode), nil
}

func (em *Emitter) emitInstanceProperty(e *analyzer.Expr, mode Mode) (string, error) {
	target, err := em.Emit(e.HostTarget, ExprMode)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("%s.%s", target, e.HostMember), mode), nil
}

// voidGuard wraps a call that returns void in the host but must appear
// in a value-producing position (spec §4.4 "Void side-effect guard").
// Triggered when the call-site Expr carries Meta["void"] == true; the
// emitter itself has no static type information. No code in this module
// sets that key, so the guard fires only for an Expr whose Meta a caller
// has set that way.
func voidGuard(call string) string {
	return fmt.Sprintf("((Func<object>)(() => { %s; return null; }))()", call)
}

func isVoidCall(e *analyzer.Expr) bool {
	v, ok := e.Meta["void"].(bool)
	return ok && v
}

func (em *Emitter) emitInstanceMethod(e *analyzer.Expr, mode Mode) (string, error) {
	target, err := em.Emit(e.HostTarget, ExprMode)
	if err != nil {
		return "", err
	}
	args, err := em.emitItems(e.HostArgs)
	if err != nil {
		return "", err
	}
	call := fmt.Sprintf("%s.%s(%s)", target, e.HostMember, strings.Join(args, ", "))
	if isVoidCall(e) && mode != StmtMode {
		return wrap(voidGuard(call), mode), nil
	}
	return wrap(call, mode), nil
}

func (em *Emitter) emitStaticMethod(e *analyzer.Expr, mode Mode) (string, error) {
	args, err := em.emitItems(e.HostArgs)
	if err != nil {
		return "", err
	}
	call := fmt.Sprintf("%s.%s(%s)", e.HostTypeName, e.HostMember, strings.Join(args, ", "))
	if isVoidCall(e) && mode != StmtMode {
		return wrap(voidGuard(call), mode), nil
	}
	return wrap(call, mode), nil
}

func (em *Emitter) emitNew(e *analyzer.Expr, mode Mode) (string, error) {
	args, err := em.emitItems(e.HostArgs)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("new %s(%s)", e.HostTypeName, strings.Join(args, ", ")), mode), nil
}

func (em *Emitter) emitAssign(e *analyzer.Expr, mode Mode) (string, error) {
	target, err := em.Emit(e.HostTarget, ExprMode)
	if err != nil {
		return "", err
	}
	val, err := em.Emit(e.Init, ExprMode)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("%s = %s", target, val), mode), nil
}

func (em *Emitter) emitPrimitiveOp(e *analyzer.Expr, mode Mode) (string, error) {
	operands, err := em.emitItems(e.Operands)
	if err != nil {
		return "", err
	}
	return wrap("("+strings.Join(operands, " "+e.Operator+" ")+")", mode), nil
}

func (em *Emitter) emitRawHost(e *analyzer.Expr, mode Mode) (string, error) {
	var b strings.Builder
	rest := e.Template
	for _, interp := range e.Interpolations {
		idx := strings.Index(rest, "~{")
		if idx < 0 {
			break
		}
		end := strings.Index(rest[idx:], "}")
		if end < 0 {
			break
		}
		b.WriteString(rest[:idx])
		code, err := em.Emit(interp, ExprMode)
		if err != nil {
			return "", err
		}
		b.WriteString("(" + code + ")")
		rest = rest[idx+end+1:]
	}
	b.WriteString(rest)
	return wrap(b.String(), mode), nil
}
