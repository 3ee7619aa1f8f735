package analyzer

import (
	"github.com/dangercoder/cljr/internal/macro"
)

// locals is a lexical binding frame for the analyzer — it tracks which
// names are in scope as locals (let/loop/fn params) so symbol resolution
// can distinguish a local reference from a var reference (spec §4.3
// "Unqualified b resolves via: locals -> refers -> current-ns vars").
type locals struct {
	names  map[string]bool
	parent *locals
}

func newLocals(parent *locals) *locals {
	return &locals{names: make(map[string]bool), parent: parent}
}

func (l *locals) has(name string) bool {
	for cur := l; cur != nil; cur = cur.parent {
		if cur.names[name] {
			return true
		}
	}
	return false
}

func (l *locals) bind(name string) {
	l.names[name] = true
}

// recurFrame tracks one enclosing loop/fn target for recur validation
// (spec §4.3 "Recur validity"). arity is the number of bindings/params
// recur must match. Only the frame's presence and its arity are checked;
// whether a recur sits in tail position is not checked.
type recurFrame struct {
	arity int
}

// NamespaceInfo is the narrow read view the analyzer needs into the
// namespace registry: alias resolution and var/macro visibility. Kept as
// an interface here (rather than importing internal/nsregistry directly)
// so the registry package can depend on the analyzer without a cycle —
// internal/nsregistry.Namespace implements this.
type NamespaceInfo interface {
	ResolveAlias(alias string) (ns string, ok bool)
	HasVar(name string) bool
	HasRefer(name string) (ns string, ok bool)
}

// noopNamespace is used when the caller has no registry wired up yet
// (e.g. analyzing a file in isolation, or in unit tests).
type noopNamespace struct{}

func (noopNamespace) ResolveAlias(string) (string, bool)  { return "", false }
func (noopNamespace) HasVar(string) bool                  { return false }
func (noopNamespace) HasRefer(string) (string, bool)      { return "", false }

// Context threads everything Analyze needs beyond the form itself: the
// current namespace, the lexical environment, the recur-frame stack, the
// try-nesting flag, REPL-vs-file mode, and the macro registry used for
// head-symbol expansion (spec §4.3 "Given a form and a context").
type Context struct {
	NS         string
	Locals     *locals
	RecurStack []recurFrame
	InsideTry  bool
	REPLMode   bool
	Macros     *macro.Registry
	NSInfo     NamespaceInfo
	Hints      map[string]string
}

// NewContext builds a fresh top-level analyzer context for namespace ns.
func NewContext(ns string, macros *macro.Registry, info NamespaceInfo) *Context {
	if macros == nil {
		macros = macro.Global
	}
	if info == nil {
		info = noopNamespace{}
	}
	return &Context{NS: ns, Locals: newLocals(nil), Macros: macros, NSInfo: info, REPLMode: true, Hints: map[string]string{}}
}

// withLocals returns a derived context with a fresh child lexical frame and
// its own copy-on-write Hints map, so a later hintLocal call in this scope
// (e.g. an fn's parameter hints) never mutates the parent's or a sibling
// scope's hints (spec §4.3 "Type hints" are per param-list, not ambient).
func (c *Context) withLocals() *Context {
	cp := *c
	cp.Locals = newLocals(c.Locals)
	cp.Hints = copyHints(c.Hints)
	return &cp
}

func copyHints(h map[string]string) map[string]string {
	cp := make(map[string]string, len(h))
	for k, v := range h {
		cp[k] = v
	}
	return cp
}

// hintLocal records local's primitive type hint (from a ^long-style param
// tag) so a later Invoke of +/-/*/ etc. over that local can be recognized
// as a PrimitiveOp (spec §4.3 "Type hints"). Callers always invoke this on
// a context freshly obtained from withLocals, so the mutation is confined
// to that scope's own Hints map.
func (c *Context) hintLocal(name, hint string) {
	if hint == "" {
		return
	}
	if c.Hints == nil {
		c.Hints = map[string]string{}
	}
	c.Hints[name] = hint
}

func (c *Context) hintOf(name string) (string, bool) {
	h, ok := c.Hints[name]
	return h, ok
}

// pushRecurFrame returns a derived context with a new recur frame for a
// loop/fn of the given arity.
func (c *Context) pushRecurFrame(arity int) *Context {
	cp := *c
	cp.RecurStack = append(append([]recurFrame{}, c.RecurStack...), recurFrame{arity: arity})
	return &cp
}

func (c *Context) currentRecurFrame() (recurFrame, bool) {
	if len(c.RecurStack) == 0 {
		return recurFrame{}, false
	}
	return c.RecurStack[len(c.RecurStack)-1], true
}

// clearRecurFrame returns a derived context with no recur frame — used
// when analyzing a nested fn body, since "crossing a function boundary
// erases the frame" (spec §4.3 "Recur validity").
func (c *Context) clearRecurFrame() *Context {
	cp := *c
	cp.RecurStack = nil
	return &cp
}
