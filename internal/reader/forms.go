package reader

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/symbol"
)

// FormKind tags the Form union (spec §3 "Form... tagged sum"). Modeled as
// the teacher's struct-wrapped-int enumeration idiom (asm/lexer.go) rather
// than a class hierarchy (spec §9 "Represent the Expr sum as tagged
// variants, not a class hierarchy" — the same guidance applies to Form).
type FormKind struct{ k int }

var (
	KindInteger FormKind = FormKind{0}
	KindFloat   FormKind = FormKind{1}
	KindBool    FormKind = FormKind{2}
	KindString  FormKind = FormKind{3}
	KindChar    FormKind = FormKind{4}
	KindNil     FormKind = FormKind{5}
	KindSymbol  FormKind = FormKind{6}
	KindKeyword FormKind = FormKind{7}
	KindList    FormKind = FormKind{8}
	KindVector  FormKind = FormKind{9}
	KindMap     FormKind = FormKind{10}
	KindSet     FormKind = FormKind{11}
)

var formKindNames = [...]string{
	"Integer", "Float", "Bool", "String", "Char", "Nil",
	"Symbol", "Keyword", "List", "Vector", "Map", "Set",
}

func (k FormKind) String() string { return formKindNames[k.k] }

// MapPair is one key/value entry of a map literal, kept in source order
// (spec §3 "Map keeps ordered key/value pairs").
type MapPair struct {
	Key, Val *Form
}

// Form is reader output: a single node of the tagged sum described in
// spec §3. Every form may carry a metadata map, normally keyed by keyword
// text (spec §4.1 "Metadata").
type Form struct {
	Kind FormKind
	Meta map[string]any

	IntVal    int64
	FloatVal  float64
	BoolVal   bool
	StringVal string
	CharVal   rune
	Sym       *symbol.Symbol
	Kw        *symbol.Keyword

	Items []*Form  // List, Vector, Set
	Pairs []MapPair // Map
}

func integerForm(v int64) *Form   { return &Form{Kind: KindInteger, IntVal: v} }
func floatForm(v float64) *Form   { return &Form{Kind: KindFloat, FloatVal: v} }
func boolForm(v bool) *Form       { return &Form{Kind: KindBool, BoolVal: v} }
func stringForm(v string) *Form   { return &Form{Kind: KindString, StringVal: v} }
func charForm(v rune) *Form       { return &Form{Kind: KindChar, CharVal: v} }
func nilForm() *Form              { return &Form{Kind: KindNil} }
func symbolForm(s *symbol.Symbol) *Form  { return &Form{Kind: KindSymbol, Sym: s} }
func keywordForm(k *symbol.Keyword) *Form { return &Form{Kind: KindKeyword, Kw: k} }
func listForm(items []*Form) *Form       { return &Form{Kind: KindList, Items: items} }
func vectorForm(items []*Form) *Form     { return &Form{Kind: KindVector, Items: items} }
func setForm(items []*Form) *Form        { return &Form{Kind: KindSet, Items: items} }
func mapForm(pairs []MapPair) *Form      { return &Form{Kind: KindMap, Pairs: pairs} }

// WithMeta returns a shallow copy of f with meta merged in, later keys
// overriding earlier ones (spec §4.1 "Multiple ^… prefixes accumulate,
// later keys overriding earlier").
func (f *Form) WithMeta(meta map[string]any) *Form {
	cp := *f
	merged := make(map[string]any, len(f.Meta)+len(meta))
	for k, v := range f.Meta {
		merged[k] = v
	}
	for k, v := range meta {
		merged[k] = v
	}
	cp.Meta = merged
	return &cp
}

// IsSymbolNamed reports whether f is a bare symbol (no namespace) with the
// given name — used throughout the analyzer and macro engine to dispatch
// on head-symbol forms like "quote", "if", "unquote".
func (f *Form) IsSymbolNamed(name string) bool {
	return f.Kind == KindSymbol && f.Sym.Namespace == "" && f.Sym.Name == name
}

// String renders f back to readable text; used by error messages and by
// the macro engine's `pr-str`-equivalent runtime primitive.
func (f *Form) String() string {
	switch f.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", f.IntVal)
	case KindFloat:
		return fmt.Sprintf("%g", f.FloatVal)
	case KindBool:
		if f.BoolVal {
			return "true"
		}
		return "false"
	case KindString:
		return fmt.Sprintf("%q", f.StringVal)
	case KindChar:
		return "\\" + string(f.CharVal)
	case KindNil:
		return "nil"
	case KindSymbol:
		return f.Sym.String()
	case KindKeyword:
		return f.Kw.String()
	case KindList:
		return "(" + joinForms(f.Items) + ")"
	case KindVector:
		return "[" + joinForms(f.Items) + "]"
	case KindSet:
		return "#{" + joinForms(f.Items) + "}"
	case KindMap:
		var b strings.Builder
		b.WriteByte('{')
		for i, p := range f.Pairs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Key.String())
			b.WriteByte(' ')
			b.WriteString(p.Val.String())
		}
		b.WriteByte('}')
		return b.String()
	}
	return "<?form>"
}

func joinForms(items []*Form) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(it.String())
	}
	return b.String()
}
