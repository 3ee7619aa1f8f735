// Package analyzer elaborates reader.Form values into the typed Expr tree
// described in spec §3/§4.3: special-form dispatch, macro expansion,
// recur/tail tracking, type-hint propagation, and namespace/var
// resolution. Expr is a flat tagged struct, the same shape as
// reader.Form, per spec §9's explicit instruction to "represent the Expr
// sum as tagged variants, not a class hierarchy."
package analyzer

import (
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// Kind tags the Expr union.
type Kind struct{ k int }

var (
	KLiteral          = Kind{0}
	KSymbolRef        = Kind{1}
	KKeyword          = Kind{2}
	KVectorLit        = Kind{3}
	KMapLit           = Kind{4}
	KSetLit           = Kind{5}
	KIf               = Kind{6}
	KDo               = Kind{7}
	KLet              = Kind{8}
	KLoop             = Kind{9}
	KRecur            = Kind{10}
	KTry              = Kind{11}
	KThrow            = Kind{12}
	KDef              = Kind{13}
	KFn               = Kind{14}
	KInvoke           = Kind{15}
	KInstanceMethod   = Kind{16}
	KInstanceProperty = Kind{17}
	KStaticMethod     = Kind{18}
	KStaticProperty   = Kind{19}
	KNew              = Kind{20}
	KCast             = Kind{21}
	KAssign           = Kind{22}
	KAwait            = Kind{23}
	KNs               = Kind{24}
	KInNs             = Kind{25}
	KRequire          = Kind{26}
	KImport           = Kind{27}
	KProtocol         = Kind{28}
	KType             = Kind{29}
	KRecord           = Kind{30}
	KQuote            = Kind{31}
	KPrimitiveOp      = Kind{32}
	KRawHost          = Kind{33}
	KTest             = Kind{34}
	KAssert           = Kind{35}
)

var kindNames = [...]string{
	"Literal", "SymbolRef", "Keyword", "VectorLit", "MapLit", "SetLit",
	"If", "Do", "Let", "Loop", "Recur", "Try", "Throw", "Def", "Fn",
	"Invoke", "InstanceMethod", "InstanceProperty", "StaticMethod",
	"StaticProperty", "New", "Cast", "Assign", "Await", "Ns", "InNs",
	"Require", "Import", "Protocol", "Type", "Record", "Quote",
	"PrimitiveOp", "RawHost", "Test", "Assert",
}

func (k Kind) String() string { return kindNames[k.k] }

// MapPair is one key/value entry of an analyzed map literal, in source
// order (spec §3 "Map keeps ordered key/value pairs").
type MapPair struct{ Key, Val *Expr }

// Binding is one (local, init-expr) pair of a let/loop binding vector.
type Binding struct {
	Local *symbol.Symbol
	Init  *Expr
}

// CatchClause is one catch clause of a try expression.
type CatchClause struct {
	ExceptionType string
	Local         *symbol.Symbol
	Body          []*Expr
}

// FnMethod is one arity overload of a (possibly multi-arity) fn.
type FnMethod struct {
	Params     []*symbol.Symbol
	ParamHints []string
	Rest       *symbol.Symbol
	Body       []*Expr
	ReturnHint string
}

// RequireClause captures [ns :as alias? :refer [sym...]?] (spec §4.3
// "Requires and imports").
type RequireClause struct {
	NS     string
	Alias  string
	Refer  []string
}

// ImportClause captures [host-ns Type...].
type ImportClause struct {
	HostNS string
	Types  []string
}

// FieldDef is one field of a deftype/defrecord.
type FieldDef struct {
	Name       string
	Hint       string
	Mutable    bool
	Attributes []string
}

// MethodDef is one method implementation inside deftype/defrecord/defprotocol.
type MethodDef struct {
	Name   string
	Params []string
	Body   []*Expr
}

// Expr is analyzer output: one node of the tagged sum in spec §3. Every
// node carries optional metadata and an IsAsync flag that propagates up
// from an explicit async hint or a Task<T>-shaped return type (spec §3
// "Every Expr node carries... is-async flag").
type Expr struct {
	Kind    Kind
	Meta    map[string]any
	IsAsync bool

	// Literal
	Literal *reader.Form

	// SymbolRef
	Sym     *symbol.Symbol
	IsLocal bool

	// Keyword
	Kw *symbol.Keyword

	// Collection literal (vector/set share Items; map uses Pairs)
	Items []*Expr
	Pairs []MapPair

	// If
	Test, Then, Else *Expr

	// Do
	Exprs []*Expr

	// Let / Loop
	Bindings []Binding
	Body     []*Expr

	// Recur
	Args []*Expr

	// Try
	TryBody []*Expr
	Catches []CatchClause
	Finally []*Expr

	// Throw
	ThrowExpr *Expr

	// Def
	DefSymbol *symbol.Symbol
	Init      *Expr
	Docstring string
	Private   bool
	TypeHint  string

	// Fn
	FnName   string
	Methods  []FnMethod
	Variadic bool

	// Invoke
	FnExpr     *Expr
	InvokeArgs []*Expr

	// Host member/ctor/cast/assign
	HostTarget   *Expr
	HostTypeName string
	HostMember   string
	HostArgs     []*Expr

	// Await
	TaskExpr *Expr

	// Ns / InNs / Require / Import
	NSName   string
	Requires []RequireClause
	Imports  []ImportClause

	// Protocol / Type / Record
	TypeName    string
	Fields      []FieldDef
	MethodDefs  []MethodDef
	Interfaces  []string

	// Quote
	RawForm *reader.Form

	// PrimitiveOp
	Operator      string
	PrimitiveType string
	Operands      []*Expr

	// Raw host literal
	Template       string
	Interpolations []*Expr

	// Test / Assert
	AssertExpr *Expr
	TestBody   []*Expr
}
