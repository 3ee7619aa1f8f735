package repl

import "strings"

// Candidate is one completions-op result (spec §6 "completions ->
// completions[{candidate,type}]"). Grounded on
// _examples/other_examples/b316c0c6_bufbuild-buf__private-buf-buflsp-completion_cel.go.go's
// idiom of walking a symbol table and returning candidate/type pairs.
type Candidate struct {
	Candidate string
	Type      string
}

// Completions returns every var and imported type name visible in the
// current namespace whose name starts with prefix. There is no open
// eval context at the wire layer to inspect for locals-in-scope (spec
// §6 supplement), so this is scoped to namespace-visible vars and
// imported type names.
func (s *Session) Completions(prefix string) []Candidate {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	ns := s.currentNamespace()
	var out []Candidate
	for name := range ns.VarValues() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, Candidate{Candidate: name, Type: "var"})
		}
	}
	for typeName, owner := range s.registry.TypeOwnersWithPrefix(prefix) {
		if owner == s.ns || ns.CanAccessType(owner) {
			out = append(out, Candidate{Candidate: typeName, Type: "class"})
		}
	}
	return out
}
