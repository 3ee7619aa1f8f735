package macro

import (
	"sync"

	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/symbol"
)

// Macro is a compiled defmacro: a closure over the params/body it was
// declared with (spec §4.2, "defmacro installs a compiled closure").
type Macro struct {
	Name     string
	Ns       string
	Params   []*symbol.Symbol
	Rest     *symbol.Symbol // non-nil when the param list ends in & rest
	Variadic bool
	Body     []*reader.Form
}

// Registry holds every compiled macro two ways: per-namespace (macros a
// namespace defined or referred in, consulted first by Lookup) and
// globally by unqualified name, which Lookup falls back to, so a macro
// defined in any namespace expands unqualified everywhere (spec §4.2, "separately, into a global expansion-time
// registry keyed by unqualified name"). Qualified macro references
// (ns/name) are deliberately not expanded — see Lookup.
type Registry struct {
	mu     sync.Mutex
	byNS   map[string]map[string]*Macro
	global map[string]*Macro
}

func NewRegistry() *Registry {
	return &Registry{
		byNS:   make(map[string]map[string]*Macro),
		global: make(map[string]*Macro),
	}
}

// Define installs m into ns's macro table and into the global registry.
func (r *Registry) Define(ns string, m *Macro) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.byNS[ns]
	if !ok {
		table = make(map[string]*Macro)
		r.byNS[ns] = table
	}
	table[m.Name] = m
	r.global[m.Name] = m
}

// Refer makes a macro already defined in fromNS additionally visible,
// unqualified, in ns — the macro-table equivalent of a refer clause.
func (r *Registry) Refer(ns, fromNS, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byNS[fromNS][name]
	if !ok {
		return false
	}
	table, ok := r.byNS[ns]
	if !ok {
		table = make(map[string]*Macro)
		r.byNS[ns] = table
	}
	table[name] = m
	return true
}

// Lookup resolves a head symbol to a macro for expansion purposes. A
// qualified symbol (ns/name) is never treated as a macro invocation —
// the analyzer's TypeName/Member and host-interop dispatch own qualified
// heads; only unqualified heads can name a macro.
func (r *Registry) Lookup(currentNS string, sym *symbol.Symbol) (*Macro, bool) {
	if sym == nil || sym.Namespace != "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if table, ok := r.byNS[currentNS]; ok {
		if m, ok := table[sym.Name]; ok {
			return m, true
		}
	}
	m, ok := r.global[sym.Name]
	return m, ok
}

// Global is the process-wide macro registry. A fresh Registry can also be
// constructed for isolated test cases.
var Global = NewRegistry()
