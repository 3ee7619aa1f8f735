// Package nsregistry is the namespace/var/alias/refer/import registry the
// REPL driver consults for resolution and visibility (spec §4.3 "Namespace
// resolution", §4.5 "Visibility"). Namespace implements
// analyzer.NamespaceInfo so the analyzer can resolve symbols without
// importing this package directly (internal/analyzer/context.go's
// NamespaceInfo interface), avoiding an analyzer↔nsregistry import cycle.
package nsregistry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dangercoder/cljr/internal/analyzer"
)

// Var is a named binding within a namespace whose root can be replaced
// (spec GLOSSARY "Var").
type Var struct {
	Name    string
	Value   any
	Meta    map[string]any
	Private bool
}

// Refer records that name is visible unqualified in a namespace because
// it was referred in from SourceNS (spec §4.3 "require clauses capture
// [ns :as alias? :refer [sym…]?]").
type Refer struct {
	SourceNS string
	Name     string
}

// Namespace holds one namespace's vars, aliases, refers, and imports
// (spec §4.5 "Each namespace has: its own vars, a map of aliases, a map
// of refers, a set of imports").
type Namespace struct {
	mu sync.RWMutex

	Name    string
	Vars    map[string]*Var
	Aliases map[string]string   // alias -> namespace
	Refers  map[string]Refer    // unqualified name -> (source ns, binding)
	Imports map[string]bool     // raw host-namespace -> visible (using-clause)
	Visible map[string]bool     // other cljr namespace -> its types are accessible here

	registry *Registry
}

func newNamespace(name string, reg *Registry) *Namespace {
	return &Namespace{
		Name:     name,
		Vars:     make(map[string]*Var),
		Aliases:  make(map[string]string),
		Refers:   make(map[string]Refer),
		Imports:  make(map[string]bool),
		Visible:  make(map[string]bool),
		registry: reg,
	}
}

// ResolveAlias implements analyzer.NamespaceInfo.
func (n *Namespace) ResolveAlias(alias string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	ns, ok := n.Aliases[alias]
	return ns, ok
}

// HasVar implements analyzer.NamespaceInfo.
func (n *Namespace) HasVar(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.Vars[name]
	return ok
}

// HasRefer implements analyzer.NamespaceInfo.
func (n *Namespace) HasRefer(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	r, ok := n.Refers[name]
	if !ok {
		return "", false
	}
	return r.SourceNS, true
}

var _ analyzer.NamespaceInfo = (*Namespace)(nil)

// DefineVar installs or replaces a var's root binding (spec GLOSSARY
// "Var... root can be replaced, enabling live code update").
func (n *Namespace) DefineVar(name string, value any, private bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Vars[name] = &Var{Name: name, Value: value, Private: private}
}

// Lookup returns name's current value if defined directly in n.
func (n *Namespace) Lookup(name string) (*Var, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.Vars[name]
	return v, ok
}

// VarValues snapshots every var's current value, for the reload
// algorithm's stateful-cell capture step (spec §4.5 "State
// preservation") — kept as a plain map rather than exposing Vars
// directly so callers don't need n.mu themselves.
func (n *Namespace) VarValues() map[string]any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]any, len(n.Vars))
	for name, v := range n.Vars {
		out[name] = v.Value
	}
	return out
}

// ResetEdges clears n's aliases/refers/imports/visible-set, leaving its
// vars untouched — the "clear its dependency edges" step of the reload
// algorithm (spec §4.5 "Reload"), run before the namespace's source file
// is reanalyzed and its ns/require/import forms reapplied.
func (n *Namespace) ResetEdges() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Aliases = make(map[string]string)
	n.Refers = make(map[string]Refer)
	n.Imports = make(map[string]bool)
	n.Visible = make(map[string]bool)
}

// RestoreValue sets name's value without disturbing its Private flag,
// creating the var (as public) if it doesn't already exist — used by the
// reload algorithm to re-bind a captured stateful cell into its original
// var after the namespace's source has been reanalyzed and reevaluated
// (spec §4.5 "State preservation").
func (n *Namespace) RestoreValue(name string, value any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.Vars[name]; ok {
		v.Value = value
		return
	}
	n.Vars[name] = &Var{Name: name, Value: value}
}

// ApplyRequires wires [ns :as alias? :refer [sym…]?] clauses into n: the
// required namespace's vars become resolvable through the alias, any
// referred names become directly resolvable, and the required
// namespace's types become visible to n (spec §4.5 "Type names defined
// in other namespaces are ONLY accessible when the source namespace is
// imported by the current one" — require is the act of importing).
func (n *Namespace) ApplyRequires(clauses []analyzer.RequireClause) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range clauses {
		n.Visible[c.NS] = true
		if c.Alias != "" {
			n.Aliases[c.Alias] = c.NS
		}
		for _, sym := range c.Refer {
			n.Refers[sym] = Refer{SourceNS: c.NS, Name: sym}
		}
	}
}

// ApplyImports wires [host-ns Type…] clauses into n's host-namespace
// using-clause set (spec §4.3 "import clauses capture [host-ns Type…]").
func (n *Namespace) ApplyImports(clauses []analyzer.ImportClause) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range clauses {
		n.Imports[c.HostNS] = true
	}
}

// Requires returns every namespace n has required (and therefore can see
// the types of), for the REPL driver's reload dependency graph (spec
// §4.5 "Reload... recursively reload dependents in a topological order").
func (n *Namespace) Requires() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.Visible))
	for ns := range n.Visible {
		out = append(out, ns)
	}
	return out
}

// CanAccessType reports whether a type defined in defNS is accessible
// from n — either n is the defining namespace, or n has required defNS
// (spec §4.5 "Visibility").
func (n *Namespace) CanAccessType(defNS string) bool {
	if defNS == n.Name {
		return true
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.Visible[defNS]
}

// AccessibilityError builds the user-facing message the driver substitutes
// for the host compiler's synthetic not-accessible diagnostic (spec §4.5,
// §7 "Compile-host... rewritten into a human-readable message naming the
// defining namespace and suggesting the import/require incantation").
func AccessibilityError(typeName, defNS string) error {
	return fmt.Errorf("type %s is not accessible; require-as or import %s to use it", typeName, defNS)
}

// Registry owns every namespace by name, plus the global table of which
// namespace defines each type (so CanAccessType/AccessibilityError can
// name the defining namespace from just a type's simple name).
type Registry struct {
	mu         sync.Mutex
	namespaces map[string]*Namespace
	typeOwners map[string]string // simple type name -> defining namespace
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]*Namespace),
		typeOwners: make(map[string]string),
	}
}

// EnsureNamespace returns the namespace named name, creating it if absent.
func (r *Registry) EnsureNamespace(name string) *Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ns, ok := r.namespaces[name]; ok {
		return ns
	}
	ns := newNamespace(name, r)
	r.namespaces[name] = ns
	return ns
}

// Get returns the namespace named name, if it exists.
func (r *Registry) Get(name string) (*Namespace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.namespaces[name]
	return ns, ok
}

// Names returns every registered namespace name.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		out = append(out, name)
	}
	return out
}

// RegisterType records that name is defined in ns, for later
// CanAccessType/AccessibilityError lookups by simple name.
func (r *Registry) RegisterType(ns, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typeOwners[name] = ns
}

// TypeOwnersWithPrefix returns every registered type name starting with
// prefix, mapped to its defining namespace (spec §6 "completions" op).
func (r *Registry) TypeOwnersWithPrefix(prefix string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string)
	for name, ns := range r.typeOwners {
		if strings.HasPrefix(name, prefix) {
			out[name] = ns
		}
	}
	return out
}

// TypeOwner returns the namespace that defines the type named name.
func (r *Registry) TypeOwner(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.typeOwners[name]
	return ns, ok
}
