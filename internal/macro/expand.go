package macro

import "github.com/dangercoder/cljr/internal/reader"

// maxExpansionDepth bounds the macro fixed-point loop so that a macro
// whose head expands to itself raises a specific error instead of
// recursing indefinitely (spec §9 "bound the expansion loop and raise a
// specific error").
const maxExpansionDepth = 512

// Expand applies macro m to the argument forms of a single invocation and
// returns the form it produces (spec §4.2 "produce the fully expanded
// form"). The caller — the analyzer — is responsible for the fixed-point
// loop (re-expanding while the new head is still a macro symbol); Expand
// itself performs exactly one macro-body evaluation.
func Expand(m *Macro, args []*reader.Form, reg *Registry) (*reader.Form, error) {
	fn := macroAsFn(m)
	ctx := NewContext(reg, m.Ns)
	argv := make([]Value, len(args))
	for i, a := range args {
		argv[i] = a
	}
	result, err := Apply(fn, argv, ctx)
	if err != nil {
		return nil, err
	}
	form, ok := result.(*reader.Form)
	if !ok {
		return nil, errf(nil, "macro %s did not expand to a form", m.Name)
	}
	return form, nil
}

// MaxExpansionDepth exposes maxExpansionDepth to callers (the analyzer's
// fixed-point expansion loop) so the bound lives in one place.
func MaxExpansionDepth() int { return maxExpansionDepth }
