// Package signature computes the canonical structural signature of a
// type-defining form (protocol/type/record), used by the REPL driver's
// type-cache to decide whether a re-evaluated definition is the same
// emitted type or a new one (spec §4.5 "Type signature").
package signature

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/analyzer"
)

// Compute builds the canonical signature string for e, which must be a
// KProtocol, KType, or KRecord Expr. The string is built from namespace,
// kind, simple name, ordered field names with hints, implemented
// interfaces, and a name/arity descriptor per method, in a fixed order so
// that two structurally
// identical definitions always produce byte-identical signatures
// (Open Question decision #2 in SPEC_FULL.md: signature equality is the
// only mechanism for type-reload equality, no cross-signature coercion).
// Method parameter hints are not part of the signature: MethodDef carries
// only a name and parameter names.
func Compute(ns string, e *analyzer.Expr) (string, error) {
	kind, err := kindName(e.Kind)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|fields=", ns, kind, e.TypeName)
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		if f.Hint != "" {
			b.WriteByte(':')
			b.WriteString(f.Hint)
		}
		if f.Mutable {
			b.WriteString("!")
		}
	}
	b.WriteString("|interfaces=")
	b.WriteString(strings.Join(e.Interfaces, ","))
	b.WriteString("|methods=")
	for i, m := range e.MethodDefs {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%s/%d", m.Name, len(m.Params))
	}
	return b.String(), nil
}

func kindName(k analyzer.Kind) (string, error) {
	switch k {
	case analyzer.KProtocol:
		return "protocol", nil
	case analyzer.KType:
		return "type", nil
	case analyzer.KRecord:
		return "record", nil
	}
	return "", fmt.Errorf("signature: %s is not a type-defining expression", k)
}
