package macro

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// primitiveEnv builds the curated runtime of roughly fifty primitives the
// macro evaluator may call (spec §4.2 "a curated runtime of ~50
// primitives"). Every primitive operates on *reader.Form values — macro
// expansion is pure data-to-data, so the evaluator never needs the host
// runtime's actual numeric/string types, only the reader's literal forms
// and its list/vector/map/set shapes (spec §4.2 "Expansion is pure: uses
// only the macro-runtime primitives").
func primitiveEnv() *env {
	e := newEnv(nil)
	reg := func(name string, fn func([]Value, *Context) (Value, error)) {
		e.define(name, &Fn{Name: name, Native: fn})
	}
	noCtx := func(fn func([]Value) (Value, error)) func([]Value, *Context) (Value, error) {
		return func(args []Value, _ *Context) (Value, error) { return fn(args) }
	}

	reg("list", noCtx(primList))
	reg("concat", noCtx(primConcat))
	reg("vec", noCtx(prim1(primVec)))
	reg("set", noCtx(prim1(primSet)))
	reg("hash-map", noCtx(primHashMap))
	reg("apply", primApply)
	reg("cons", noCtx(prim2(primCons)))
	reg("first", noCtx(prim1(primFirst)))
	reg("rest", noCtx(prim1(primRest)))
	reg("next", noCtx(prim1(primNext)))
	reg("seq", noCtx(prim1(primSeqOf)))
	reg("count", noCtx(prim1(primCount)))
	reg("empty?", noCtx(prim1(primEmptyP)))
	reg("nth", noCtx(primNth))
	reg("get", noCtx(primGet))
	reg("assoc", noCtx(primAssoc))
	reg("dissoc", noCtx(prim2(primDissoc)))
	reg("conj", noCtx(primConj))
	reg("reverse", noCtx(prim1(primReverse)))
	reg("str", noCtx(primStr))
	reg("pr-str", noCtx(primStr))
	reg("name", noCtx(prim1(primName)))
	reg("namespace", noCtx(prim1(primNamespace)))
	reg("keyword", noCtx(primKeyword))
	reg("symbol", noCtx(primSymbol))
	reg("gensym", noCtx(primGensym))
	reg("meta", noCtx(prim1(primMeta)))
	reg("with-meta", noCtx(prim2(primWithMeta)))
	reg("=", noCtx(primEq))
	reg("not=", noCtx(primNotEq))
	reg("not", noCtx(prim1(primNot)))
	reg("<", noCtx(primNumCompare(func(a, b float64) bool { return a < b })))
	reg(">", noCtx(primNumCompare(func(a, b float64) bool { return a > b })))
	reg("<=", noCtx(primNumCompare(func(a, b float64) bool { return a <= b })))
	reg(">=", noCtx(primNumCompare(func(a, b float64) bool { return a >= b })))
	reg("+", noCtx(primArith(func(a, b float64) float64 { return a + b }, 0)))
	reg("-", noCtx(primSub))
	reg("*", noCtx(primArith(func(a, b float64) float64 { return a * b }, 1)))
	reg("inc", noCtx(prim1(primInc)))
	reg("dec", noCtx(prim1(primDec)))
	reg("nil?", noCtx(prim1(primNilP)))
	reg("true?", noCtx(prim1(primTrueP)))
	reg("false?", noCtx(prim1(primFalseP)))
	reg("symbol?", noCtx(prim1(kindPred(reader.KindSymbol))))
	reg("keyword?", noCtx(prim1(kindPred(reader.KindKeyword))))
	reg("string?", noCtx(prim1(kindPred(reader.KindString))))
	reg("number?", noCtx(prim1(primNumberP)))
	reg("list?", noCtx(prim1(kindPred(reader.KindList))))
	reg("vector?", noCtx(prim1(kindPred(reader.KindVector))))
	reg("map?", noCtx(prim1(kindPred(reader.KindMap))))
	reg("set?", noCtx(prim1(kindPred(reader.KindSet))))
	reg("seq?", noCtx(prim1(primSeqP)))
	reg("fn?", noCtx(prim1(primFnP)))
	reg("coll?", noCtx(prim1(primCollP)))
	reg("contains?", noCtx(primContains))
	reg("last", noCtx(prim1(primLast)))
	reg("into", noCtx(prim2(primInto)))
	reg("identity", noCtx(prim1(func(v Value) (Value, error) { return v, nil })))

	return e
}

func prim1(f func(Value) (Value, error)) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return f(args[0])
	}
}

func prim2(f func(a, b Value) (Value, error)) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		return f(args[0], args[1])
	}
}

func asForm(v Value) (*reader.Form, error) {
	f, ok := v.(*reader.Form)
	if !ok {
		return nil, fmt.Errorf("expected a data value, got a function")
	}
	return f, nil
}

// elementsOf flattens any seqable Form (list/vector/set, or the pairs of a
// map as alternating k/v) into a slice of Forms; nil yields an empty slice.
func elementsOf(v Value) ([]*reader.Form, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case reader.KindNil:
		return nil, nil
	case reader.KindList, reader.KindVector, reader.KindSet:
		return f.Items, nil
	case reader.KindMap:
		out := make([]*reader.Form, 0, len(f.Pairs)*2)
		for _, p := range f.Pairs {
			out = append(out, reader.NewVectorForm([]*reader.Form{p.Key, p.Val}))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value is not seqable: %s", f)
	}
}

func primList(args []Value) (Value, error) {
	items := make([]*reader.Form, 0, len(args))
	for _, a := range args {
		f, err := asForm(a)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return reader.NewListForm(items), nil
}

func primConcat(args []Value) (Value, error) {
	var items []*reader.Form
	for _, a := range args {
		els, err := elementsOf(a)
		if err != nil {
			return nil, err
		}
		items = append(items, els...)
	}
	return reader.NewListForm(items), nil
}

func primVec(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	return reader.NewVectorForm(els), nil
}

func primSet(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(els))
	var out []*reader.Form
	for _, e := range els {
		key := e.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return reader.NewSetForm(out), nil
}

func primHashMap(args []Value) (Value, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("hash-map requires an even number of arguments")
	}
	pairs := make([]reader.MapPair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		k, err := asForm(args[i])
		if err != nil {
			return nil, err
		}
		v, err := asForm(args[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, reader.MapPair{Key: k, Val: v})
	}
	return reader.NewMapForm(pairs), nil
}

func primApply(args []Value, ctx *Context) (Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("apply requires a function and at least one sequence argument")
	}
	fn, ok := args[0].(*Fn)
	if !ok {
		return nil, fmt.Errorf("apply: first argument is not callable")
	}
	flat := make([]Value, 0, len(args))
	flat = append(flat, args[1:len(args)-1]...)
	tail, err := elementsOf(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	for _, t := range tail {
		flat = append(flat, t)
	}
	return Apply(fn, flat, ctx)
}

func primCons(head, tail Value) (Value, error) {
	h, err := asForm(head)
	if err != nil {
		return nil, err
	}
	els, err := elementsOf(tail)
	if err != nil {
		return nil, err
	}
	items := append([]*reader.Form{h}, els...)
	return reader.NewListForm(items), nil
}

func primFirst(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return reader.NewNilForm(), nil
	}
	return els[0], nil
}

func primRest(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	if len(els) <= 1 {
		return reader.NewListForm(nil), nil
	}
	return reader.NewListForm(els[1:]), nil
}

func primNext(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	if len(els) <= 1 {
		return reader.NewNilForm(), nil
	}
	return reader.NewListForm(els[1:]), nil
}

func primSeqOf(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return reader.NewNilForm(), nil
	}
	return reader.NewListForm(els), nil
}

func primCount(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	return reader.NewIntForm(int64(len(els))), nil
}

func primEmptyP(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(len(els) == 0), nil
}

func primNth(args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("nth expects 2 arguments")
	}
	els, err := elementsOf(args[0])
	if err != nil {
		return nil, err
	}
	idxF, err := asForm(args[1])
	if err != nil {
		return nil, err
	}
	i := int(idxF.IntVal)
	if i < 0 || i >= len(els) {
		return nil, fmt.Errorf("nth: index %d out of bounds", i)
	}
	return els[i], nil
}

func primGet(args []Value) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("get expects 2 or 3 arguments")
	}
	coll, err := asForm(args[0])
	if err != nil {
		return nil, err
	}
	key, err := asForm(args[1])
	if err != nil {
		return nil, err
	}
	notFound := Value(reader.NewNilForm())
	if len(args) == 3 {
		notFound = args[2]
	}
	switch coll.Kind {
	case reader.KindMap:
		for _, p := range coll.Pairs {
			if formEqual(p.Key, key) {
				return p.Val, nil
			}
		}
	case reader.KindSet:
		for _, it := range coll.Items {
			if formEqual(it, key) {
				return it, nil
			}
		}
	case reader.KindVector:
		if key.Kind == reader.KindInteger {
			i := int(key.IntVal)
			if i >= 0 && i < len(coll.Items) {
				return coll.Items[i], nil
			}
		}
	}
	return notFound, nil
}

func primAssoc(args []Value) (Value, error) {
	if len(args) < 3 || len(args)%2 != 1 {
		return nil, fmt.Errorf("assoc requires an odd number of arguments >= 3")
	}
	coll, err := asForm(args[0])
	if err != nil {
		return nil, err
	}
	switch coll.Kind {
	case reader.KindMap, reader.KindNil:
		pairs := append([]reader.MapPair(nil), coll.Pairs...)
		for i := 1; i < len(args); i += 2 {
			k, err := asForm(args[i])
			if err != nil {
				return nil, err
			}
			v, err := asForm(args[i+1])
			if err != nil {
				return nil, err
			}
			found := false
			for j, p := range pairs {
				if formEqual(p.Key, k) {
					pairs[j].Val = v
					found = true
					break
				}
			}
			if !found {
				pairs = append(pairs, reader.MapPair{Key: k, Val: v})
			}
		}
		return reader.NewMapForm(pairs), nil
	case reader.KindVector:
		items := append([]*reader.Form(nil), coll.Items...)
		for i := 1; i < len(args); i += 2 {
			k, err := asForm(args[i])
			if err != nil {
				return nil, err
			}
			v, err := asForm(args[i+1])
			if err != nil {
				return nil, err
			}
			idx := int(k.IntVal)
			if idx < 0 || idx > len(items) {
				return nil, fmt.Errorf("assoc: index %d out of bounds", idx)
			}
			if idx == len(items) {
				items = append(items, v)
			} else {
				items[idx] = v
			}
		}
		return reader.NewVectorForm(items), nil
	default:
		return nil, fmt.Errorf("assoc: unsupported target %s", coll.Kind)
	}
}

func primDissoc(coll, key Value) (Value, error) {
	m, err := asForm(coll)
	if err != nil {
		return nil, err
	}
	k, err := asForm(key)
	if err != nil {
		return nil, err
	}
	if m.Kind != reader.KindMap {
		return nil, fmt.Errorf("dissoc: not a map")
	}
	var pairs []reader.MapPair
	for _, p := range m.Pairs {
		if !formEqual(p.Key, k) {
			pairs = append(pairs, p)
		}
	}
	return reader.NewMapForm(pairs), nil
}

func primConj(args []Value) (Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("conj requires at least 1 argument")
	}
	coll, err := asForm(args[0])
	if err != nil {
		return nil, err
	}
	rest := args[1:]
	switch coll.Kind {
	case reader.KindNil:
		items := make([]*reader.Form, 0, len(rest))
		for i := len(rest) - 1; i >= 0; i-- {
			f, err := asForm(rest[i])
			if err != nil {
				return nil, err
			}
			items = append(items, f)
		}
		return reader.NewListForm(items), nil
	case reader.KindList:
		items := append([]*reader.Form(nil), coll.Items...)
		for i := len(rest) - 1; i >= 0; i-- {
			f, err := asForm(rest[i])
			if err != nil {
				return nil, err
			}
			items = append([]*reader.Form{f}, items...)
		}
		return reader.NewListForm(items), nil
	case reader.KindVector:
		items := append([]*reader.Form(nil), coll.Items...)
		for _, r := range rest {
			f, err := asForm(r)
			if err != nil {
				return nil, err
			}
			items = append(items, f)
		}
		return reader.NewVectorForm(items), nil
	case reader.KindSet:
		items := append([]*reader.Form(nil), coll.Items...)
		for _, r := range rest {
			f, err := asForm(r)
			if err != nil {
				return nil, err
			}
			dup := false
			for _, e := range items {
				if formEqual(e, f) {
					dup = true
					break
				}
			}
			if !dup {
				items = append(items, f)
			}
		}
		return reader.NewSetForm(items), nil
	case reader.KindMap:
		pairs := append([]reader.MapPair(nil), coll.Pairs...)
		for _, r := range rest {
			entry, err := asForm(r)
			if err != nil {
				return nil, err
			}
			if entry.Kind != reader.KindVector || len(entry.Items) != 2 {
				return nil, fmt.Errorf("conj onto a map requires [k v] entries")
			}
			k, v := entry.Items[0], entry.Items[1]
			found := false
			for i, p := range pairs {
				if formEqual(p.Key, k) {
					pairs[i].Val = v
					found = true
					break
				}
			}
			if !found {
				pairs = append(pairs, reader.MapPair{Key: k, Val: v})
			}
		}
		return reader.NewMapForm(pairs), nil
	default:
		return nil, fmt.Errorf("conj: unsupported target %s", coll.Kind)
	}
}

func primReverse(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	out := make([]*reader.Form, len(els))
	for i, e := range els {
		out[len(els)-1-i] = e
	}
	return reader.NewListForm(out), nil
}

func primStr(args []Value) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		f, err := asForm(a)
		if err != nil {
			return nil, err
		}
		if f.Kind == reader.KindString {
			b.WriteString(f.StringVal)
		} else if f.Kind != reader.KindNil {
			b.WriteString(f.String())
		}
	}
	return reader.NewStringForm(b.String()), nil
}

func primName(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case reader.KindSymbol:
		return reader.NewStringForm(f.Sym.Name), nil
	case reader.KindKeyword:
		return reader.NewStringForm(f.Kw.Name), nil
	case reader.KindString:
		return f, nil
	}
	return nil, fmt.Errorf("name: unsupported value %s", f)
}

func primNamespace(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	var ns string
	switch f.Kind {
	case reader.KindSymbol:
		ns = f.Sym.Namespace
	case reader.KindKeyword:
		ns = f.Kw.Namespace
	default:
		return nil, fmt.Errorf("namespace: unsupported value %s", f)
	}
	if ns == "" {
		return reader.NewNilForm(), nil
	}
	return reader.NewStringForm(ns), nil
}

func primKeyword(args []Value) (Value, error) {
	if len(args) == 1 {
		f, err := asForm(args[0])
		if err != nil {
			return nil, err
		}
		switch f.Kind {
		case reader.KindString:
			return reader.NewKeywordForm(symbol.InternKeyword("", f.StringVal)), nil
		case reader.KindKeyword:
			return f, nil
		case reader.KindSymbol:
			return reader.NewKeywordForm(symbol.InternKeyword(f.Sym.Namespace, f.Sym.Name)), nil
		}
		return nil, fmt.Errorf("keyword: cannot build from %s", f)
	}
	if len(args) == 2 {
		ns, err := asForm(args[0])
		if err != nil {
			return nil, err
		}
		name, err := asForm(args[1])
		if err != nil {
			return nil, err
		}
		return reader.NewKeywordForm(symbol.InternKeyword(ns.StringVal, name.StringVal)), nil
	}
	return nil, fmt.Errorf("keyword expects 1 or 2 arguments")
}

func primSymbol(args []Value) (Value, error) {
	if len(args) == 1 {
		f, err := asForm(args[0])
		if err != nil {
			return nil, err
		}
		if f.Kind == reader.KindSymbol {
			return f, nil
		}
		return reader.NewSymbolForm(symbol.Intern("", f.StringVal)), nil
	}
	if len(args) == 2 {
		ns, err := asForm(args[0])
		if err != nil {
			return nil, err
		}
		name, err := asForm(args[1])
		if err != nil {
			return nil, err
		}
		return reader.NewSymbolForm(symbol.Intern(ns.StringVal, name.StringVal)), nil
	}
	return nil, fmt.Errorf("symbol expects 1 or 2 arguments")
}

func primGensym(args []Value) (Value, error) {
	prefix := "G"
	if len(args) == 1 {
		f, err := asForm(args[0])
		if err != nil {
			return nil, err
		}
		prefix = f.StringVal
	} else if len(args) > 1 {
		return nil, fmt.Errorf("gensym expects 0 or 1 arguments")
	}
	return reader.NewSymbolForm(symbol.Gensym(prefix)), nil
}

func primMeta(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	if len(f.Meta) == 0 {
		return reader.NewNilForm(), nil
	}
	pairs := make([]reader.MapPair, 0, len(f.Meta))
	for k, mv := range f.Meta {
		val, ok := mv.(*reader.Form)
		if !ok {
			val = reader.NewBoolForm(true)
		}
		pairs = append(pairs, reader.MapPair{Key: reader.NewKeywordForm(symbol.InternKeyword("", k)), Val: val})
	}
	return reader.NewMapForm(pairs), nil
}

func primWithMeta(v, metaVal Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	m, err := asForm(metaVal)
	if err != nil {
		return nil, err
	}
	if m.Kind != reader.KindMap {
		return nil, fmt.Errorf("with-meta: metadata argument must be a map")
	}
	meta := make(map[string]any, len(m.Pairs))
	for _, p := range m.Pairs {
		meta[p.Key.String()] = p.Val
	}
	return f.WithMeta(meta), nil
}

func formEqual(a, b *reader.Form) bool {
	return a.String() == b.String()
}

func primEq(args []Value) (Value, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("= requires at least 1 argument")
	}
	first, err := asForm(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		f, err := asForm(a)
		if err != nil {
			return nil, err
		}
		if !formEqual(first, f) {
			return reader.NewBoolForm(false), nil
		}
	}
	return reader.NewBoolForm(true), nil
}

func primNotEq(args []Value) (Value, error) {
	v, err := primEq(args)
	if err != nil {
		return nil, err
	}
	b := v.(*reader.Form)
	return reader.NewBoolForm(!b.BoolVal), nil
}

func primNot(v Value) (Value, error) {
	return reader.NewBoolForm(!isTruthy(v)), nil
}

func asFloat(v Value) (float64, error) {
	f, err := asForm(v)
	if err != nil {
		return 0, err
	}
	switch f.Kind {
	case reader.KindInteger:
		return float64(f.IntVal), nil
	case reader.KindFloat:
		return f.FloatVal, nil
	}
	return 0, fmt.Errorf("expected a number, got %s", f)
}

func primNumCompare(cmp func(a, b float64) bool) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("comparison requires at least 2 arguments")
		}
		for i := 0; i+1 < len(args); i++ {
			a, err := asFloat(args[i])
			if err != nil {
				return nil, err
			}
			b, err := asFloat(args[i+1])
			if err != nil {
				return nil, err
			}
			if !cmp(a, b) {
				return reader.NewBoolForm(false), nil
			}
		}
		return reader.NewBoolForm(true), nil
	}
}

func primArith(op func(a, b float64) float64, identity float64) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		allInt := true
		acc := identity
		for _, a := range args {
			f, err := asForm(a)
			if err != nil {
				return nil, err
			}
			if f.Kind != reader.KindInteger {
				allInt = false
			}
			v, err := asFloat(a)
			if err != nil {
				return nil, err
			}
			acc = op(acc, v)
		}
		if allInt {
			return reader.NewIntForm(int64(acc)), nil
		}
		return reader.NewFloatForm(acc), nil
	}
}

func primSub(args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("- requires at least 1 argument")
	}
	if len(args) == 1 {
		v, err := asFloat(args[0])
		if err != nil {
			return nil, err
		}
		f, _ := asForm(args[0])
		if f.Kind == reader.KindInteger {
			return reader.NewIntForm(-int64(v)), nil
		}
		return reader.NewFloatForm(-v), nil
	}
	first, err := asFloat(args[0])
	if err != nil {
		return nil, err
	}
	allInt := true
	if f, _ := asForm(args[0]); f.Kind != reader.KindInteger {
		allInt = false
	}
	for _, a := range args[1:] {
		v, err := asFloat(a)
		if err != nil {
			return nil, err
		}
		if f, _ := asForm(a); f.Kind != reader.KindInteger {
			allInt = false
		}
		first -= v
	}
	if allInt {
		return reader.NewIntForm(int64(first)), nil
	}
	return reader.NewFloatForm(first), nil
}

func primInc(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	if f.Kind == reader.KindInteger {
		return reader.NewIntForm(f.IntVal + 1), nil
	}
	n, err := asFloat(v)
	if err != nil {
		return nil, err
	}
	return reader.NewFloatForm(n + 1), nil
}

func primDec(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	if f.Kind == reader.KindInteger {
		return reader.NewIntForm(f.IntVal - 1), nil
	}
	n, err := asFloat(v)
	if err != nil {
		return nil, err
	}
	return reader.NewFloatForm(n - 1), nil
}

func primNilP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(f.Kind == reader.KindNil), nil
}

func primTrueP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(f.Kind == reader.KindBool && f.BoolVal), nil
}

func primFalseP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(f.Kind == reader.KindBool && !f.BoolVal), nil
}

func kindPred(kind reader.FormKind) func(Value) (Value, error) {
	return func(v Value) (Value, error) {
		f, err := asForm(v)
		if err != nil {
			return nil, err
		}
		return reader.NewBoolForm(f.Kind == kind), nil
	}
}

func primNumberP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(f.Kind == reader.KindInteger || f.Kind == reader.KindFloat), nil
}

func primSeqP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	return reader.NewBoolForm(f.Kind == reader.KindList), nil
}

func primFnP(v Value) (Value, error) {
	_, ok := v.(*Fn)
	return reader.NewBoolForm(ok), nil
}

func primCollP(v Value) (Value, error) {
	f, err := asForm(v)
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case reader.KindList, reader.KindVector, reader.KindMap, reader.KindSet:
		return reader.NewBoolForm(true), nil
	}
	return reader.NewBoolForm(false), nil
}

func primContains(args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains? expects 2 arguments")
	}
	coll, err := asForm(args[0])
	if err != nil {
		return nil, err
	}
	key, err := asForm(args[1])
	if err != nil {
		return nil, err
	}
	switch coll.Kind {
	case reader.KindMap:
		for _, p := range coll.Pairs {
			if formEqual(p.Key, key) {
				return reader.NewBoolForm(true), nil
			}
		}
	case reader.KindSet:
		for _, it := range coll.Items {
			if formEqual(it, key) {
				return reader.NewBoolForm(true), nil
			}
		}
	case reader.KindVector:
		if key.Kind == reader.KindInteger {
			i := int(key.IntVal)
			return reader.NewBoolForm(i >= 0 && i < len(coll.Items)), nil
		}
	}
	return reader.NewBoolForm(false), nil
}

func primLast(v Value) (Value, error) {
	els, err := elementsOf(v)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return reader.NewNilForm(), nil
	}
	return els[len(els)-1], nil
}

func primInto(to, from Value) (Value, error) {
	toF, err := asForm(to)
	if err != nil {
		return nil, err
	}
	els, err := elementsOf(from)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(els)+1)
	args = append(args, toF)
	for _, e := range els {
		args = append(args, e)
	}
	return primConj(args)
}
