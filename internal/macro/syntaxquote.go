package macro

import (
	"strings"

	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// ExpandSyntaxQuote rewrites a syntax-quoted form into a constructor
// expression that, evaluated, reproduces the template (spec §4.2
// "Syntax-quote expansion"). gensyms is scoped to one syntax-quote
// invocation: two occurrences of the same v# inside one template share a
// symbol, but each expansion of the surrounding macro gets fresh ones
// (spec §4.2 "Auto-gensym lifetime").
func ExpandSyntaxQuote(form *reader.Form, gensyms map[string]*symbol.Symbol) *reader.Form {
	switch form.Kind {
	case reader.KindSymbol:
		return expandSymbol(form, gensyms)
	case reader.KindList:
		if len(form.Items) == 0 {
			return quoteOf(form)
		}
		if form.Items[0].IsSymbolNamed("unquote") {
			return form.Items[1]
		}
		if form.Items[0].IsSymbolNamed("unquote-splicing") {
			return form.Items[1]
		}
		return listOf(symConcat, expandSeq(form.Items, gensyms)...)
	case reader.KindVector:
		return listOf(symVec, listOf(symConcat, expandSeq(form.Items, gensyms)...))
	case reader.KindSet:
		return listOf(symSet, listOf(symConcat, expandSeq(form.Items, gensyms)...))
	case reader.KindMap:
		flat := make([]*reader.Form, 0, len(form.Pairs)*2)
		for _, p := range form.Pairs {
			flat = append(flat, p.Key, p.Val)
		}
		return listOf(symApply, reader.NewSymbolForm(symHashMap), listOf(symConcat, expandSeq(flat, gensyms)...))
	default:
		return quoteOf(form)
	}
}

// expandSymbol applies the two template-symbol rewrites spec §4.2
// describes: (a) a trailing # gensyms, scoped to this expansion; (b) a
// bare symbol is otherwise left exactly as written — the compiler does
// not qualify free template symbols with a namespace (spec §9 Open
// Questions, decision recorded in SPEC_FULL.md).
func expandSymbol(form *reader.Form, gensyms map[string]*symbol.Symbol) *reader.Form {
	name := form.Sym.Name
	if form.Sym.Namespace == "" && strings.HasSuffix(name, "#") && name != "#" {
		base := name[:len(name)-1]
		if g, ok := gensyms[base]; ok {
			return quoteOf(reader.NewSymbolForm(g))
		}
		g := symbol.Gensym(base)
		gensyms[base] = g
		return quoteOf(reader.NewSymbolForm(g))
	}
	return quoteOf(form)
}

// expandSeq builds the (list ...)/spliced element sequence a list/vector/
// set/map template expands into: each element becomes (list elem) unless
// it is (unquote x) -> (list x), or (unquote-splicing x) -> x verbatim
// (spec §4.2 "List (a b ...)").
func expandSeq(items []*reader.Form, gensyms map[string]*symbol.Symbol) []*reader.Form {
	out := make([]*reader.Form, 0, len(items))
	for _, it := range items {
		switch {
		case it.Kind == reader.KindList && len(it.Items) == 2 && it.Items[0].IsSymbolNamed("unquote"):
			out = append(out, listOf(symList, it.Items[1]))
		case it.Kind == reader.KindList && len(it.Items) == 2 && it.Items[0].IsSymbolNamed("unquote-splicing"):
			out = append(out, it.Items[1])
		default:
			out = append(out, listOf(symList, ExpandSyntaxQuote(it, gensyms)))
		}
	}
	return out
}

func quoteOf(f *reader.Form) *reader.Form {
	return listOf(symQuote, f)
}

func listOf(head *symbol.Symbol, rest ...*reader.Form) *reader.Form {
	items := make([]*reader.Form, 0, len(rest)+1)
	items = append(items, reader.NewSymbolForm(head))
	items = append(items, rest...)
	return reader.NewListForm(items)
}

