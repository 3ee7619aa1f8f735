package analyzer

import (
	"strings"

	"go.uber.org/multierr"

	"github.com/dangercoder/cljr/internal/macro"
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

var specialForms = map[string]bool{
	"def": true, "defn": true, "defmacro": true, "defprotocol": true,
	"deftype": true, "defrecord": true, "fn": true, "fn*": true,
	"let": true, "let*": true, "loop": true, "loop*": true, "recur": true,
	"do": true, "if": true, "quote": true, "try": true, "throw": true,
	"ns": true, "in-ns": true, "require": true, "import": true,
	"set!": true, "var": true, "await": true, "deftest": true, "is": true,
	"host*": true,
}

var primitiveOperators = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/",
	"<": "<", ">": ">", "<=": "<=", ">=": ">=", "==": "==",
}

var primitiveHints = map[string]bool{"long": true, "int": true, "double": true, "bool": true, "float": true}

// Analyze elaborates form into an Expr under ctx (spec §4.3 "Given a form
// and a context... produce an Expr").
func Analyze(form *reader.Form, ctx *Context) (*Expr, error) {
	switch form.Kind {
	case reader.KindList:
		if len(form.Items) == 0 {
			return &Expr{Kind: KInvoke, FnExpr: &Expr{Kind: KLiteral, Literal: form}}, nil
		}
		return analyzeList(form, ctx)
	case reader.KindSymbol:
		return analyzeSymbol(form, ctx)
	case reader.KindKeyword:
		return &Expr{Kind: KKeyword, Kw: form.Kw, Meta: form.Meta}, nil
	case reader.KindVector:
		items, err := analyzeEach(form.Items, ctx)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KVectorLit, Items: items, Meta: form.Meta}, nil
	case reader.KindSet:
		items, err := analyzeEach(form.Items, ctx)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KSetLit, Items: items, Meta: form.Meta}, nil
	case reader.KindMap:
		pairs := make([]MapPair, 0, len(form.Pairs))
		for _, p := range form.Pairs {
			k, err := Analyze(p.Key, ctx)
			if err != nil {
				return nil, err
			}
			v, err := Analyze(p.Val, ctx)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, MapPair{Key: k, Val: v})
		}
		return &Expr{Kind: KMapLit, Pairs: pairs, Meta: form.Meta}, nil
	default:
		return &Expr{Kind: KLiteral, Literal: form, Meta: form.Meta}, nil
	}
}

func analyzeEach(forms []*reader.Form, ctx *Context) ([]*Expr, error) {
	out := make([]*Expr, 0, len(forms))
	for _, f := range forms {
		e, err := Analyze(f, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// analyzeSymbol resolves a bare symbol reference (spec §4.3 "Namespace
// resolution"). Locals shadow refers which shadow current-ns vars; a
// qualified a/b is rewritten through the current namespace's alias table
// when a matches an alias, otherwise a is taken as a literal namespace.
// The analyzer never forces a host-side lookup here — it only records the
// canonical (ns, name) pair (spec §4.3).
func analyzeSymbol(form *reader.Form, ctx *Context) (*Expr, error) {
	sym := form.Sym
	if sym.Namespace == "" {
		if ctx.Locals.has(sym.Name) {
			return &Expr{Kind: KSymbolRef, Sym: sym, IsLocal: true, Meta: form.Meta}, nil
		}
		if fromNS, ok := ctx.NSInfo.HasRefer(sym.Name); ok {
			return &Expr{Kind: KSymbolRef, Sym: symbol.Intern(fromNS, sym.Name), Meta: form.Meta}, nil
		}
		if !ctx.NSInfo.HasVar(sym.Name) && !ctx.REPLMode {
			return nil, errf(KindUnresolvedSymbol, form, "unable to resolve symbol: %s", sym.Name)
		}
		return &Expr{Kind: KSymbolRef, Sym: symbol.Intern(ctx.NS, sym.Name), Meta: form.Meta}, nil
	}
	if ns, ok := ctx.NSInfo.ResolveAlias(sym.Namespace); ok {
		return &Expr{Kind: KSymbolRef, Sym: symbol.Intern(ns, sym.Name), Meta: form.Meta}, nil
	}
	return &Expr{Kind: KSymbolRef, Sym: sym, Meta: form.Meta}, nil
}

// analyzeList implements the dispatch order of spec §4.3: macro expansion,
// special forms, static member access, instance property/method, ctor,
// else Invoke.
func analyzeList(form *reader.Form, ctx *Context) (*Expr, error) {
	return analyzeListDepth(form, ctx, 0)
}

func analyzeListDepth(form *reader.Form, ctx *Context, depth int) (*Expr, error) {
	head := form.Items[0]
	if head.Kind == reader.KindSymbol {
		if head.Sym.Namespace == "" {
			if m, ok := ctx.Macros.Lookup(ctx.NS, head.Sym); ok {
				if depth > macro.MaxExpansionDepth() {
					return nil, errf(KindMacroExpansion, form, "macro expansion did not reach a fixed point after %d steps", depth)
				}
				expanded, err := macro.Expand(m, form.Items[1:], ctx.Macros)
				if err != nil {
					return nil, errf(KindMacroExpansion, form, "%s", err)
				}
				if expanded.Kind == reader.KindList && len(expanded.Items) > 0 {
					return analyzeListDepth(expanded, ctx, depth+1)
				}
				return Analyze(expanded, ctx)
			}
			if specialForms[head.Sym.Name] {
				return analyzeSpecialForm(head.Sym.Name, form, ctx)
			}
		}
		if isStaticMember(head.Sym) {
			return analyzeStaticMember(head.Sym, form, ctx)
		}
		if strings.HasPrefix(head.Sym.Name, ".-") {
			return analyzeInstanceProperty(head.Sym.Name[2:], form, ctx)
		}
		if strings.HasPrefix(head.Sym.Name, ".") && head.Sym.Name != "." {
			return analyzeInstanceMethod(head.Sym.Name[1:], form, ctx)
		}
		if strings.HasSuffix(head.Sym.Name, ".") || head.Sym.Name == "new" {
			return analyzeNew(head.Sym, form, ctx)
		}
	}
	fn, err := Analyze(head, ctx)
	if err != nil {
		return nil, err
	}
	args, err := analyzeEach(form.Items[1:], ctx)
	if err != nil {
		return nil, err
	}
	if head.Kind == reader.KindSymbol && head.Sym.Namespace == "" {
		if op, ok := primitiveOperators[head.Sym.Name]; ok {
			if ptype, ok := commonOperandHint(args, ctx); ok {
				if prim, ok := TryPrimitiveOp(op, ptype, args); ok {
					prim.Meta = form.Meta
					return prim, nil
				}
			}
		}
	}
	return &Expr{Kind: KInvoke, FnExpr: fn, InvokeArgs: args, Meta: form.Meta}, nil
}

// commonOperandHint reports the shared primitive type hint of every
// SymbolRef operand, requiring at least two operands and unanimous
// agreement — anything else falls back to an ordinary Invoke, which stays
// correct (if less specialized) for untyped or mixed-type code.
func commonOperandHint(args []*Expr, ctx *Context) (string, bool) {
	if len(args) < 2 {
		return "", false
	}
	var hint string
	for _, a := range args {
		if a.Kind != KSymbolRef || !a.IsLocal {
			return "", false
		}
		h, ok := ctx.hintOf(a.Sym.Name)
		if !ok || !primitiveHints[h] {
			return "", false
		}
		if hint == "" {
			hint = h
		} else if hint != h {
			return "", false
		}
	}
	return hint, true
}

// isStaticMember reports whether sym is shaped TypeName/Member with an
// uppercase first character (spec §4.3 dispatch step 3).
func isStaticMember(sym *symbol.Symbol) bool {
	if sym.Namespace == "" {
		return false
	}
	r := []rune(sym.Namespace)
	return len(r) > 0 && r[0] >= 'A' && r[0] <= 'Z'
}

func analyzeStaticMember(sym *symbol.Symbol, form *reader.Form, ctx *Context) (*Expr, error) {
	args, err := analyzeEach(form.Items[1:], ctx)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return &Expr{Kind: KStaticProperty, HostTypeName: sym.Namespace, HostMember: sym.Name, Meta: form.Meta}, nil
	}
	return &Expr{Kind: KStaticMethod, HostTypeName: sym.Namespace, HostMember: sym.Name, HostArgs: args, Meta: form.Meta}, nil
}

func analyzeInstanceProperty(member string, form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 {
		return nil, errf(KindArity, form, "instance property access requires a target")
	}
	target, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KInstanceProperty, HostTarget: target, HostMember: member, Meta: form.Meta}, nil
}

func analyzeInstanceMethod(member string, form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 {
		return nil, errf(KindArity, form, "instance method call requires a target")
	}
	target, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	args, err := analyzeEach(form.Items[2:], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KInstanceMethod, HostTarget: target, HostMember: member, HostArgs: args, Meta: form.Meta}, nil
}

func analyzeNew(sym *symbol.Symbol, form *reader.Form, ctx *Context) (*Expr, error) {
	typeName := sym.Name
	argForms := form.Items[1:]
	if sym.Name == "new" {
		if len(form.Items) < 2 || form.Items[1].Kind != reader.KindSymbol {
			return nil, errf(KindUnknownSpecialForm, form, "new requires a type name")
		}
		typeName = form.Items[1].Sym.Name
		argForms = form.Items[2:]
	} else {
		typeName = strings.TrimSuffix(typeName, ".")
	}
	args, err := analyzeEach(argForms, ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KNew, HostTypeName: typeName, HostArgs: args, Meta: form.Meta}, nil
}

func analyzeSpecialForm(name string, form *reader.Form, ctx *Context) (*Expr, error) {
	switch name {
	case "def":
		return analyzeDef(form, ctx)
	case "defn":
		return analyzeDefn(form, ctx)
	case "defmacro":
		return analyzeDefmacro(form, ctx)
	case "fn", "fn*":
		return analyzeFn(form, ctx)
	case "let", "let*":
		return analyzeLet(form, ctx)
	case "loop", "loop*":
		return analyzeLoop(form, ctx)
	case "recur":
		return analyzeRecur(form, ctx)
	case "do":
		return analyzeDo(form, ctx)
	case "if":
		return analyzeIf(form, ctx)
	case "quote":
		return analyzeQuote(form, ctx)
	case "try":
		return analyzeTry(form, ctx)
	case "throw":
		return analyzeThrow(form, ctx)
	case "ns":
		return analyzeNs(form, ctx)
	case "in-ns":
		return analyzeInNs(form, ctx)
	case "require":
		return analyzeRequire(form, ctx)
	case "import":
		return analyzeImport(form, ctx)
	case "set!":
		return analyzeSetBang(form, ctx)
	case "var":
		return analyzeVar(form, ctx)
	case "await":
		return analyzeAwait(form, ctx)
	case "deftest":
		return analyzeDeftest(form, ctx)
	case "is":
		return analyzeIs(form, ctx)
	case "defprotocol":
		return analyzeDefprotocol(form, ctx)
	case "deftype":
		return analyzeDeftype(form, ctx)
	case "defrecord":
		return analyzeDefrecord(form, ctx)
	case "host*":
		return analyzeRawHost(form, ctx)
	}
	return nil, errf(KindUnknownSpecialForm, form, "unimplemented special form %s", name)
}

// --- def / defn / defmacro ---

func tagOf(form *reader.Form) (string, bool) {
	if form.Meta == nil {
		return "", false
	}
	if v, ok := form.Meta["tag"]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func isTaskHint(hint string) bool {
	return strings.HasPrefix(hint, "Task")
}

func analyzeDef(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "def requires a symbol")
	}
	nameForm := form.Items[1]
	rest := form.Items[2:]
	var doc string
	if len(rest) > 0 && rest[0].Kind == reader.KindString && len(rest) > 1 {
		doc = rest[0].StringVal
		rest = rest[1:]
	}
	e := &Expr{Kind: KDef, DefSymbol: symbol.Intern(ctx.NS, nameForm.Sym.Name), Docstring: doc, Meta: form.Meta}
	if hint, ok := tagOf(nameForm); ok {
		e.TypeHint = hint
		e.IsAsync = isTaskHint(hint)
	}
	if nameForm.Meta != nil {
		if v, ok := nameForm.Meta["private"]; ok {
			if b, ok := v.(bool); ok {
				e.Private = b
			} else {
				e.Private = true
			}
		}
	}
	if len(rest) > 0 {
		init, err := Analyze(rest[0], ctx)
		if err != nil {
			return nil, err
		}
		e.Init = init
		e.IsAsync = e.IsAsync || init.IsAsync
	}
	return e, nil
}

// analyzeDefn is sugar over def+fn (spec §4.3 "defn (sugar over def +
// fn)"): (defn name [params] body...) elaborates directly to a Def whose
// Init is a Fn expression, rather than re-entering the macro expander.
func analyzeDefn(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 3 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "defn requires a name and parameter vector")
	}
	nameForm := form.Items[1]
	fnItems := append([]*reader.Form{reader.NewSymbolForm(symbol.Intern("", "fn"))}, form.Items[2:]...)
	fnExpr, err := analyzeFn(reader.NewListForm(fnItems), ctx)
	if err != nil {
		return nil, err
	}
	fnExpr.FnName = nameForm.Sym.Name
	e := &Expr{Kind: KDef, DefSymbol: symbol.Intern(ctx.NS, nameForm.Sym.Name), Init: fnExpr, Meta: form.Meta, IsAsync: fnExpr.IsAsync}
	if hint, ok := tagOf(nameForm); ok {
		e.TypeHint = hint
		e.IsAsync = e.IsAsync || isTaskHint(hint)
	}
	return e, nil
}

// analyzeDefmacro registers the macro (spec §4.2 "defmacro installs a
// compiled closure into a per-namespace macro table... and a global
// expansion-time registry"); the resulting Expr is a marker Def the
// emitter does not need to produce target source for.
func analyzeDefmacro(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 3 || form.Items[1].Kind != reader.KindSymbol || form.Items[2].Kind != reader.KindVector {
		return nil, errf(KindBadBindingShape, form, "defmacro requires a name and parameter vector")
	}
	name := form.Items[1].Sym.Name
	params, rest, err := parseParamVec(form.Items[2])
	if err != nil {
		return nil, errf(KindBadBindingShape, form, "%s", err)
	}
	m := &macro.Macro{Name: name, Ns: ctx.NS, Params: params, Rest: rest, Variadic: rest != nil, Body: form.Items[3:]}
	ctx.Macros.Define(ctx.NS, m)
	return &Expr{Kind: KDef, DefSymbol: symbol.Intern(ctx.NS, name), Meta: form.Meta}, nil
}

func parseParamVec(vec *reader.Form) ([]*symbol.Symbol, *symbol.Symbol, error) {
	var params []*symbol.Symbol
	var rest *symbol.Symbol
	ampSym := symbol.Intern("", "&")
	for i := 0; i < len(vec.Items); i++ {
		p := vec.Items[i]
		if p.Kind != reader.KindSymbol {
			return nil, nil, errf(KindBadBindingShape, vec, "parameter must be a symbol")
		}
		if symbol.Equal(p.Sym, ampSym) {
			if i+1 >= len(vec.Items) {
				return nil, nil, errf(KindBadBindingShape, vec, "missing rest parameter after &")
			}
			rest = vec.Items[i+1].Sym
			break
		}
		params = append(params, p.Sym)
	}
	return params, rest, nil
}

// --- fn ---

func analyzeFn(form *reader.Form, ctx *Context) (*Expr, error) {
	idx := 1
	name := ""
	if idx < len(form.Items) && form.Items[idx].Kind == reader.KindSymbol {
		name = form.Items[idx].Sym.Name
		idx++
	}
	if idx >= len(form.Items) {
		return nil, errf(KindArity, form, "fn requires at least one arity body")
	}
	fnCtx := ctx.clearRecurFrame()
	e := &Expr{Kind: KFn, FnName: name, Meta: form.Meta}
	if form.Items[idx].Kind == reader.KindVector {
		method, err := analyzeFnMethod(form.Items[idx], form.Items[idx+1:], fnCtx)
		if err != nil {
			return nil, err
		}
		e.Methods = []FnMethod{method}
		e.Variadic = method.Rest != nil
		e.IsAsync = bodyIsAsync(method.Body)
		return e, nil
	}
	// Multi-arity: a sequence of (  [params] body... ) lists.
	for _, arityForm := range form.Items[idx:] {
		if arityForm.Kind != reader.KindList || len(arityForm.Items) == 0 || arityForm.Items[0].Kind != reader.KindVector {
			return nil, errf(KindBadBindingShape, form, "multi-arity fn requires ([params] body...) forms")
		}
		method, err := analyzeFnMethod(arityForm.Items[0], arityForm.Items[1:], fnCtx)
		if err != nil {
			return nil, err
		}
		e.Methods = append(e.Methods, method)
		if method.Rest != nil {
			e.Variadic = true
		}
		e.IsAsync = e.IsAsync || bodyIsAsync(method.Body)
	}
	return e, nil
}

func bodyIsAsync(body []*Expr) bool {
	for _, b := range body {
		if b.IsAsync {
			return true
		}
	}
	return false
}

func analyzeFnMethod(paramVec *reader.Form, bodyForms []*reader.Form, ctx *Context) (FnMethod, error) {
	params, rest, err := parseParamVec(paramVec)
	if err != nil {
		return FnMethod{}, err
	}
	arity := len(params)
	bodyCtx := ctx.withLocals().pushRecurFrame(arity)
	hints := make([]string, len(params))
	for i, p := range params {
		bodyCtx.Locals.bind(p.Name)
		if p.Meta != nil {
			if h, ok := p.Meta["tag"].(string); ok {
				hints[i] = h
				bodyCtx.hintLocal(p.Name, h)
			}
		}
	}
	if rest != nil {
		bodyCtx.Locals.bind(rest.Name)
	}
	body, err := analyzeEach(bodyForms, bodyCtx)
	if err != nil {
		return FnMethod{}, err
	}
	return FnMethod{Params: params, ParamHints: hints, Rest: rest, Body: body}, nil
}

// --- let / loop / recur ---

func analyzeLet(form *reader.Form, ctx *Context) (*Expr, error) {
	bindings, bodyCtx, bodyForms, err := analyzeBindingVec(form, ctx, false)
	if err != nil {
		return nil, err
	}
	body, err := analyzeEach(bodyForms, bodyCtx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KLet, Bindings: bindings, Body: body, Meta: form.Meta, IsAsync: bodyIsAsync(body)}, nil
}

func analyzeLoop(form *reader.Form, ctx *Context) (*Expr, error) {
	bindings, bodyCtx, bodyForms, err := analyzeBindingVec(form, ctx, true)
	if err != nil {
		return nil, err
	}
	body, err := analyzeEach(bodyForms, bodyCtx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KLoop, Bindings: bindings, Body: body, Meta: form.Meta, IsAsync: bodyIsAsync(body)}, nil
}

// analyzeBindingVec analyzes a let/loop's [a 1 b 2] binding vector,
// threading each binding's init through the bindings seen so far (later
// bindings can reference earlier ones) and returns the context the body
// should be analyzed under. When isLoop is set, a fresh recur frame sized
// to the binding count is pushed for the body (spec §4.3 "Recur
// validity").
func analyzeBindingVec(form *reader.Form, ctx *Context, isLoop bool) ([]Binding, *Context, []*reader.Form, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindVector {
		return nil, nil, nil, errf(KindBadBindingShape, form, "let/loop requires a binding vector")
	}
	vecItems := form.Items[1].Items
	if len(vecItems)%2 != 0 {
		return nil, nil, nil, errf(KindBadBindingShape, form, "binding vector must have an even number of forms")
	}
	bodyCtx := ctx.withLocals()
	var bindings []Binding
	for i := 0; i < len(vecItems); i += 2 {
		nameForm := vecItems[i]
		if nameForm.Kind != reader.KindSymbol {
			return nil, nil, nil, errf(KindBadBindingShape, form, "binding target must be a symbol")
		}
		init, err := Analyze(vecItems[i+1], bodyCtx)
		if err != nil {
			return nil, nil, nil, err
		}
		bodyCtx.Locals.bind(nameForm.Sym.Name)
		bindings = append(bindings, Binding{Local: nameForm.Sym, Init: init})
	}
	if isLoop {
		bodyCtx = bodyCtx.pushRecurFrame(len(bindings))
	}
	return bindings, bodyCtx, form.Items[2:], nil
}

func analyzeRecur(form *reader.Form, ctx *Context) (*Expr, error) {
	frame, ok := ctx.currentRecurFrame()
	if !ok {
		return nil, errf(KindRecurPosition, form, "recur used outside of a loop or fn tail position")
	}
	args, err := analyzeEach(form.Items[1:], ctx)
	if err != nil {
		return nil, err
	}
	if len(args) != frame.arity {
		return nil, errf(KindArity, form, "recur expects %d argument(s), got %d", frame.arity, len(args))
	}
	return &Expr{Kind: KRecur, Args: args, Meta: form.Meta}, nil
}

// --- do / if / quote ---

func analyzeDo(form *reader.Form, ctx *Context) (*Expr, error) {
	exprs, err := analyzeEach(form.Items[1:], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KDo, Exprs: exprs, Meta: form.Meta, IsAsync: bodyIsAsync(exprs)}, nil
}

func analyzeIf(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 3 || len(form.Items) > 4 {
		return nil, errf(KindArity, form, "if requires 2 or 3 arguments")
	}
	test, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	then, err := Analyze(form.Items[2], ctx)
	if err != nil {
		return nil, err
	}
	e := &Expr{Kind: KIf, Test: test, Then: then, Meta: form.Meta, IsAsync: test.IsAsync || then.IsAsync}
	if len(form.Items) == 4 {
		els, err := Analyze(form.Items[3], ctx)
		if err != nil {
			return nil, err
		}
		e.Else = els
		e.IsAsync = e.IsAsync || els.IsAsync
	}
	return e, nil
}

func analyzeQuote(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 {
		return nil, errf(KindArity, form, "quote requires exactly 1 argument")
	}
	return &Expr{Kind: KQuote, RawForm: form.Items[1], Meta: form.Meta}, nil
}

// --- try / throw ---

func analyzeTry(form *reader.Form, ctx *Context) (*Expr, error) {
	tryCtx := *ctx
	tryCtx.InsideTry = true
	var body []*reader.Form
	var catches []*reader.Form
	var finallyForm *reader.Form
	for _, it := range form.Items[1:] {
		switch {
		case it.Kind == reader.KindList && len(it.Items) > 0 && it.Items[0].IsSymbolNamed("catch"):
			catches = append(catches, it)
		case it.Kind == reader.KindList && len(it.Items) > 0 && it.Items[0].IsSymbolNamed("finally"):
			finallyForm = it
		default:
			body = append(body, it)
		}
	}
	bodyExprs, err := analyzeEach(body, &tryCtx)
	if err != nil {
		return nil, err
	}
	e := &Expr{Kind: KTry, TryBody: bodyExprs, Meta: form.Meta, IsAsync: bodyIsAsync(bodyExprs)}
	for _, c := range catches {
		if len(c.Items) < 3 || c.Items[1].Kind != reader.KindSymbol || c.Items[2].Kind != reader.KindSymbol {
			return nil, errf(KindBadBindingShape, c, "catch requires an exception type and a binding symbol")
		}
		catchCtx := ctx.withLocals()
		catchCtx.Locals.bind(c.Items[2].Sym.Name)
		catchBody, err := analyzeEach(c.Items[3:], catchCtx)
		if err != nil {
			return nil, err
		}
		e.Catches = append(e.Catches, CatchClause{ExceptionType: c.Items[1].Sym.String(), Local: c.Items[2].Sym, Body: catchBody})
	}
	if finallyForm != nil {
		finallyExprs, err := analyzeEach(finallyForm.Items[1:], ctx)
		if err != nil {
			return nil, err
		}
		e.Finally = finallyExprs
	}
	return e, nil
}

func analyzeThrow(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 {
		return nil, errf(KindArity, form, "throw requires exactly 1 argument")
	}
	inner, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KThrow, ThrowExpr: inner, Meta: form.Meta}, nil
}

// --- ns / in-ns / require / import ---

func analyzeNs(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "ns requires a name symbol")
	}
	e := &Expr{Kind: KNs, NSName: form.Items[1].Sym.String(), Meta: form.Meta}
	for _, clause := range form.Items[2:] {
		if clause.Kind != reader.KindList || len(clause.Items) == 0 || clause.Items[0].Kind != reader.KindKeyword {
			continue
		}
		switch clause.Items[0].Kw.Name {
		case "require":
			e.Requires = append(e.Requires, parseRequireClauses(clause.Items[1:])...)
		case "import":
			e.Imports = append(e.Imports, parseImportClauses(clause.Items[1:])...)
		}
	}
	return e, nil
}

func analyzeInNs(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 {
		return nil, errf(KindArity, form, "in-ns requires exactly 1 argument")
	}
	target, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KInNs, FnExpr: target, Meta: form.Meta}, nil
}

func analyzeRequire(form *reader.Form, ctx *Context) (*Expr, error) {
	return &Expr{Kind: KRequire, Requires: parseRequireClauses(form.Items[1:]), Meta: form.Meta}, nil
}

func analyzeImport(form *reader.Form, ctx *Context) (*Expr, error) {
	return &Expr{Kind: KImport, Imports: parseImportClauses(form.Items[1:]), Meta: form.Meta}, nil
}

// parseRequireClauses captures [ns :as alias? :refer [sym...]?] clauses,
// accepting either a bare ns symbol or a vector clause (spec §4.3
// "Requires and imports").
func parseRequireClauses(forms []*reader.Form) []RequireClause {
	var out []RequireClause
	for _, f := range forms {
		switch f.Kind {
		case reader.KindSymbol:
			out = append(out, RequireClause{NS: f.Sym.String()})
		case reader.KindVector:
			if len(f.Items) == 0 {
				continue
			}
			rc := RequireClause{NS: f.Items[0].Sym.String()}
			for i := 1; i < len(f.Items); i++ {
				if f.Items[i].Kind != reader.KindKeyword {
					continue
				}
				switch f.Items[i].Kw.Name {
				case "as":
					if i+1 < len(f.Items) {
						rc.Alias = f.Items[i+1].Sym.String()
						i++
					}
				case "refer":
					if i+1 < len(f.Items) && f.Items[i+1].Kind == reader.KindVector {
						for _, sym := range f.Items[i+1].Items {
							rc.Refer = append(rc.Refer, sym.Sym.Name)
						}
						i++
					}
				}
			}
			out = append(out, rc)
		}
	}
	return out
}

func parseImportClauses(forms []*reader.Form) []ImportClause {
	var out []ImportClause
	for _, f := range forms {
		if f.Kind != reader.KindVector || len(f.Items) == 0 {
			continue
		}
		ic := ImportClause{HostNS: f.Items[0].Sym.String()}
		for _, t := range f.Items[1:] {
			if t.Kind == reader.KindSymbol {
				ic.Types = append(ic.Types, t.Sym.Name)
			}
		}
		out = append(out, ic)
	}
	return out
}

// --- set! / var / await ---

func analyzeSetBang(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 3 {
		return nil, errf(KindArity, form, "set! requires exactly 2 arguments")
	}
	target, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	val, err := Analyze(form.Items[2], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KAssign, HostTarget: target, Init: val, Meta: form.Meta}, nil
}

func analyzeVar(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "var requires a symbol")
	}
	return &Expr{Kind: KSymbolRef, Sym: form.Items[1].Sym, Meta: form.Meta}, nil
}

func analyzeAwait(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 {
		return nil, errf(KindArity, form, "await requires exactly 1 argument")
	}
	task, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KAwait, TaskExpr: task, IsAsync: true, Meta: form.Meta}, nil
}

// --- deftest / is ---

func analyzeDeftest(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "deftest requires a name")
	}
	body, err := analyzeEach(form.Items[2:], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KTest, DefSymbol: symbol.Intern(ctx.NS, form.Items[1].Sym.Name), TestBody: body, Meta: form.Meta}, nil
}

func analyzeIs(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) != 2 {
		return nil, errf(KindArity, form, "is requires exactly 1 argument")
	}
	inner, err := Analyze(form.Items[1], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KAssert, AssertExpr: inner, Meta: form.Meta}, nil
}

// --- defprotocol / deftype / defrecord ---

func analyzeDefprotocol(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindSymbol {
		return nil, errf(KindBadBindingShape, form, "defprotocol requires a name")
	}
	e := &Expr{Kind: KProtocol, TypeName: form.Items[1].Sym.Name, Meta: form.Meta}
	for _, sig := range form.Items[2:] {
		if sig.Kind != reader.KindList || len(sig.Items) < 2 || sig.Items[0].Kind != reader.KindSymbol {
			continue
		}
		e.MethodDefs = append(e.MethodDefs, MethodDef{Name: sig.Items[0].Sym.Name})
	}
	return e, nil
}

func analyzeDeftype(form *reader.Form, ctx *Context) (*Expr, error) {
	return analyzeTypeLike(form, ctx, KType)
}

func analyzeDefrecord(form *reader.Form, ctx *Context) (*Expr, error) {
	return analyzeTypeLike(form, ctx, KRecord)
}

func analyzeTypeLike(form *reader.Form, ctx *Context, kind Kind) (*Expr, error) {
	if len(form.Items) < 3 || form.Items[1].Kind != reader.KindSymbol || form.Items[2].Kind != reader.KindVector {
		return nil, errf(KindBadBindingShape, form, "deftype/defrecord requires a name and field vector")
	}
	e := &Expr{Kind: kind, TypeName: form.Items[1].Sym.Name, Meta: form.Meta}
	for _, f := range form.Items[2].Items {
		if f.Kind != reader.KindSymbol {
			continue
		}
		fd := FieldDef{Name: f.Sym.Name}
		if f.Meta != nil {
			if h, ok := f.Meta["tag"].(string); ok {
				fd.Hint = h
			}
			if _, ok := f.Meta["mutable"]; ok {
				fd.Mutable = true
			}
		}
		e.Fields = append(e.Fields, fd)
	}
	for _, impl := range form.Items[3:] {
		switch impl.Kind {
		case reader.KindSymbol:
			e.Interfaces = append(e.Interfaces, impl.Sym.Name)
		case reader.KindList:
			if len(impl.Items) == 0 || impl.Items[0].Kind != reader.KindSymbol {
				continue
			}
			methodCtx := ctx.clearRecurFrame().withLocals()
			var params []string
			if len(impl.Items) > 1 && impl.Items[1].Kind == reader.KindVector {
				for _, p := range impl.Items[1].Items {
					if p.Kind == reader.KindSymbol {
						params = append(params, p.Sym.Name)
						methodCtx.Locals.bind(p.Sym.Name)
					}
				}
			}
			bodyStart := 2
			if bodyStart > len(impl.Items) {
				bodyStart = len(impl.Items)
			}
			body, err := analyzeEach(impl.Items[bodyStart:], methodCtx)
			if err != nil {
				return nil, err
			}
			e.MethodDefs = append(e.MethodDefs, MethodDef{Name: impl.Items[0].Sym.Name, Params: params, Body: body})
		}
	}
	return e, nil
}

// --- raw host embedding ---

// analyzeRawHost implements the raw-host-literal escape hatch: (host*
// "template with ~{expr}") carries a verbatim target-language template
// whose ~{...} interpolations are themselves analyzed sub-expressions
// (spec §4.4 "Raw host literals").
func analyzeRawHost(form *reader.Form, ctx *Context) (*Expr, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindString {
		return nil, errf(KindBadBindingShape, form, "host* requires a string template")
	}
	interps, err := analyzeEach(form.Items[2:], ctx)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: KRawHost, Template: form.Items[1].StringVal, Interpolations: interps, Meta: form.Meta}, nil
}

// --- primitive op rewrite (applied by the Invoke path via TryPrimitiveOp) ---

// TryPrimitiveOp rewrites an Invoke of a recognized arithmetic/comparison
// operator into a PrimitiveOp when every operand carries a matching
// primitive type hint (spec §4.3 "Type hints... permits the analyzer to
// emit PrimitiveOp when all operands of a binary arithmetic form carry
// the same primitive hint"). Called by callers that have hint
// information for the operands; the emitter renders the resulting
// PrimitiveOp as-is, without checking the hints again.
func TryPrimitiveOp(op string, primitiveType string, operands []*Expr) (*Expr, bool) {
	canonical, ok := primitiveOperators[op]
	if !ok || !primitiveHints[primitiveType] {
		return nil, false
	}
	return &Expr{Kind: KPrimitiveOp, Operator: canonical, PrimitiveType: primitiveType, Operands: operands}, true
}

// AnalyzeFile analyzes every top-level form of a source file and returns
// every resulting Expr, even when some forms fail (spec §4.3 "unresolved
// symbol in compile-file mode" — a file can contain more than one broken
// top-level form, and a compiler should report all of them, not just the
// first). Failing forms are skipped; every failure is aggregated into one
// combined error via multierr so the caller sees every diagnostic at once.
func AnalyzeFile(forms []*reader.Form, ctx *Context) ([]*Expr, error) {
	var (
		exprs []*Expr
		errs  error
	)
	for _, form := range forms {
		e, err := Analyze(form, ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		exprs = append(exprs, e)
	}
	return exprs, errs
}
