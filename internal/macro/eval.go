package macro

import (
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// Context threads the pieces Eval needs beyond the current lexical
// frame: the primitive runtime, the macro registry (for the
// compiled-macro-as-helper-function resolution step), and the current
// namespace (for unqualified macro lookup).
type Context struct {
	Registry   *Registry
	NS         string
	Primitives *env
}

// NewContext builds an evaluation context with the curated primitive
// runtime (spec §6) preloaded.
func NewContext(reg *Registry, ns string) *Context {
	return &Context{Registry: reg, NS: ns, Primitives: primitiveEnv()}
}

var (
	symQuote           = symbol.Intern("", "quote")
	symSyntaxQuote     = symbol.Intern("", "syntax-quote")
	symUnquote         = symbol.Intern("", "unquote")
	symUnquoteSplicing = symbol.Intern("", "unquote-splicing")
	symIf              = symbol.Intern("", "if")
	symDo              = symbol.Intern("", "do")
	symLet             = symbol.Intern("", "let")
	symFn              = symbol.Intern("", "fn")
	symFnStar          = symbol.Intern("", "fn*")
	symRecur           = symbol.Intern("", "recur")
	symAmp             = symbol.Intern("", "&")
	symList            = symbol.Intern("", "list")
	symConcat          = symbol.Intern("", "concat")
	symVec             = symbol.Intern("", "vec")
	symSet             = symbol.Intern("", "set")
	symApply           = symbol.Intern("", "apply")
	symHashMap         = symbol.Intern("", "hash-map")
)

// Eval interprets a single form under the curated macro-time evaluator
// (spec §4.2: "a small tree-walking evaluator with a curated set of
// primitive operations", plus quote/if/do/let/fn/recur and the unquote
// family). It never touches the host compiler — macro expansion is pure.
func Eval(form *reader.Form, e *env, ctx *Context) (Value, error) {
	switch form.Kind {
	case reader.KindSymbol:
		return resolveSymbol(form, e, ctx)
	case reader.KindList:
		if len(form.Items) == 0 {
			return form, nil
		}
		return evalList(form, e, ctx)
	default:
		// Everything else — numbers, strings, keywords, vectors, maps,
		// sets, nil, bool, char — is self-evaluating macro-time data.
		return form, nil
	}
}

func resolveSymbol(form *reader.Form, e *env, ctx *Context) (Value, error) {
	name := form.Sym.Name
	if form.Sym.Namespace == "" {
		if v, ok := e.get(name); ok {
			return v, nil
		}
		if v, ok := ctx.Primitives.get(name); ok {
			return v, nil
		}
		if m, ok := ctx.Registry.Lookup(ctx.NS, form.Sym); ok {
			return macroAsFn(m), nil
		}
	}
	return nil, errf(form, "unable to resolve symbol: %s", form.Sym)
}

func evalList(form *reader.Form, e *env, ctx *Context) (Value, error) {
	head := form.Items[0]
	if head.Kind == reader.KindSymbol && head.Sym.Namespace == "" {
		switch head.Sym.Name {
		case "quote":
			return requireArgs(form, 1, func(a []*reader.Form) (Value, error) { return a[0], nil })
		case "syntax-quote":
			return evalSyntaxQuote(form, e, ctx)
		case "unquote", "unquote-splicing":
			return nil, errf(form, "%s used outside syntax-quote", head.Sym.Name)
		case "if":
			return evalIf(form, e, ctx)
		case "do":
			return evalBody(form.Items[1:], e, ctx)
		case "let", "let*":
			return evalLet(form, e, ctx)
		case "fn", "fn*":
			return evalFn(form, e, ctx)
		case "recur":
			return evalRecur(form, e, ctx)
		}
	}
	fnVal, err := Eval(head, e, ctx)
	if err != nil {
		return nil, err
	}
	fn, ok := fnVal.(*Fn)
	if !ok {
		return nil, errf(form, "%s is not callable in macro context", head)
	}
	args := make([]Value, 0, len(form.Items)-1)
	for _, a := range form.Items[1:] {
		v, err := Eval(a, e, ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return Apply(fn, args, ctx)
}

func requireArgs(form *reader.Form, n int, f func([]*reader.Form) (Value, error)) (Value, error) {
	if len(form.Items)-1 != n {
		return nil, errf(form, "expected %d argument(s)", n)
	}
	return f(form.Items[1:])
}

func evalIf(form *reader.Form, e *env, ctx *Context) (Value, error) {
	if len(form.Items) < 3 || len(form.Items) > 4 {
		return nil, errf(form, "if requires 2 or 3 arguments")
	}
	test, err := Eval(form.Items[1], e, ctx)
	if err != nil {
		return nil, err
	}
	if isTruthy(test) {
		return Eval(form.Items[2], e, ctx)
	}
	if len(form.Items) == 4 {
		return Eval(form.Items[3], e, ctx)
	}
	return reader.NewNilForm(), nil
}

func isTruthy(v Value) bool {
	f, ok := v.(*reader.Form)
	if !ok {
		return true // a Fn value is always truthy
	}
	if f.Kind == reader.KindNil {
		return false
	}
	if f.Kind == reader.KindBool {
		return f.BoolVal
	}
	return true
}

func evalLet(form *reader.Form, e *env, ctx *Context) (Value, error) {
	if len(form.Items) < 2 || form.Items[1].Kind != reader.KindVector {
		return nil, errf(form, "let requires a binding vector")
	}
	bindings := form.Items[1].Items
	if len(bindings)%2 != 0 {
		return nil, errf(form, "let binding vector must have an even number of forms")
	}
	frame := newEnv(e)
	for i := 0; i < len(bindings); i += 2 {
		sym := bindings[i]
		if sym.Kind != reader.KindSymbol {
			return nil, errf(form, "let binding target must be a symbol")
		}
		v, err := Eval(bindings[i+1], frame, ctx)
		if err != nil {
			return nil, err
		}
		frame.define(sym.Sym.Name, v)
	}
	return evalBody(form.Items[2:], frame, ctx)
}

func evalFn(form *reader.Form, e *env, ctx *Context) (Value, error) {
	idx := 1
	name := "fn"
	if len(form.Items) > idx && form.Items[idx].Kind == reader.KindSymbol {
		name = form.Items[idx].Sym.Name
		idx++
	}
	if len(form.Items) <= idx || form.Items[idx].Kind != reader.KindVector {
		return nil, errf(form, "fn requires a parameter vector")
	}
	params, rest, err := parseParams(form.Items[idx])
	if err != nil {
		return nil, err
	}
	return &Fn{Name: name, Params: params, Rest: rest, Body: form.Items[idx+1:], Closure: e}, nil
}

func parseParams(vec *reader.Form) ([]*symbol.Symbol, *symbol.Symbol, error) {
	var params []*symbol.Symbol
	var rest *symbol.Symbol
	for i := 0; i < len(vec.Items); i++ {
		p := vec.Items[i]
		if p.Kind != reader.KindSymbol {
			return nil, nil, errf(vec, "parameter must be a symbol")
		}
		if symbol.Equal(p.Sym, symAmp) {
			if i+1 >= len(vec.Items) {
				return nil, nil, errf(vec, "missing rest parameter after &")
			}
			rest = vec.Items[i+1].Sym
			break
		}
		params = append(params, p.Sym)
	}
	return params, rest, nil
}

func evalRecur(form *reader.Form, e *env, ctx *Context) (Value, error) {
	args := make([]Value, 0, len(form.Items)-1)
	for _, a := range form.Items[1:] {
		v, err := Eval(a, e, ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return &recurSignal{args: args}, nil
}

func evalSyntaxQuote(form *reader.Form, e *env, ctx *Context) (Value, error) {
	if len(form.Items) != 2 {
		return nil, errf(form, "syntax-quote requires exactly 1 argument")
	}
	built := ExpandSyntaxQuote(form.Items[1], make(map[string]*symbol.Symbol))
	return Eval(built, e, ctx)
}
