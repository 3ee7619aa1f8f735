package macro

import (
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// Fn is a callable value inside the macro evaluator: either a closure
// built by `fn`, a native primitive from the curated runtime (spec §4.2,
// "uses only the macro-runtime primitives listed in §6"), or a previously
// compiled macro invoked as an ordinary helper function from within
// another macro body (spec §4.2 name-resolution order, "compiled-macro
// registry" as the last resolution step).
type Fn struct {
	Name     string
	Params   []*symbol.Symbol
	Rest     *symbol.Symbol
	Body     []*reader.Form
	Closure  *env
	Native   func(args []Value, ctx *Context) (Value, error)
}

// recurSignal is returned internally by Eval when a (recur ...) form is
// evaluated in tail position; Apply catches it and loops instead of
// growing the Go call stack, the same shape as a trampoline.
type recurSignal struct {
	args []Value
}

func macroAsFn(m *Macro) *Fn {
	return &Fn{Name: m.Name, Params: m.Params, Rest: m.Rest, Body: m.Body, Closure: nil}
}

// Apply binds args to fn's parameters and evaluates its body, looping on
// recur signals in tail position instead of recursing.
func Apply(fn *Fn, args []Value, ctx *Context) (Value, error) {
	if fn.Native != nil {
		return fn.Native(args, ctx)
	}
	for {
		if fn.Rest == nil && len(args) != len(fn.Params) {
			return nil, errf(nil, "%s: expected %d args, got %d", fn.Name, len(fn.Params), len(args))
		}
		if fn.Rest != nil && len(args) < len(fn.Params) {
			return nil, errf(nil, "%s: expected at least %d args, got %d", fn.Name, len(fn.Params), len(args))
		}
		frame := newEnv(fn.Closure)
		for i, p := range fn.Params {
			frame.define(p.Name, args[i])
		}
		if fn.Rest != nil {
			rest := args[len(fn.Params):]
			items := make([]*reader.Form, 0, len(rest))
			for _, v := range rest {
				f, err := toForm(v)
				if err != nil {
					return nil, err
				}
				items = append(items, f)
			}
			frame.define(fn.Rest.Name, reader.NewListForm(items))
		}
		result, err := evalBody(fn.Body, frame, ctx)
		if err != nil {
			return nil, err
		}
		if rec, ok := result.(*recurSignal); ok {
			args = rec.args
			continue
		}
		return result, nil
	}
}

func evalBody(body []*reader.Form, e *env, ctx *Context) (Value, error) {
	var result Value = reader.NewNilForm()
	for _, f := range body {
		v, err := Eval(f, e, ctx)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func toForm(v Value) (*reader.Form, error) {
	switch t := v.(type) {
	case *reader.Form:
		return t, nil
	case *Fn:
		return nil, errf(nil, "cannot use a function as data")
	default:
		return nil, errf(nil, "unrecognized macro value %T", v)
	}
}
