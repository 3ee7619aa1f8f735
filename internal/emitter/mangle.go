package emitter

import (
	"strings"
	"unicode"
)

// mangleTable is the fixed, ordered escape-token table from spec §4.4
// ("Illegal characters map to fixed escape tokens"). Every source rune
// maps to exactly one output, so the function is deterministic regardless
// of scan order.
var mangleTable = map[rune]string{
	'-':  "_",
	'+':  "_PLUS_",
	'?':  "_QUESTION",
	'!':  "_BANG",
	'>':  "_GT_",
	'<':  "_LT_",
	'*':  "_STAR_",
	'\'': "_PRIME_",
	'/':  ".",
}

// Mangle rewrites a source-language identifier into a legal target
// identifier, deterministically (spec §4.4 "Name mangling"). It is not
// injective: `-` maps to `_` and `/` maps to `.`, so names such as `a-b`
// and `a_b` mangle to the same identifier.
func Mangle(name string) string {
	var b strings.Builder
	for _, r := range name {
		if esc, ok := mangleTable[r]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MangleNamespace splits ns on `.`, pascal-cases and mangles each
// segment, and returns the mangled dotted path plus the class name the
// last segment also serves as (spec §4.4 "Namespaces pascal-case each
// segment after splitting on `.`; the last segment is also the wrapping
// class name").
func MangleNamespace(ns string) (path string, class string) {
	segs := strings.Split(ns, ".")
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = pascalCase(Mangle(s))
	}
	path = strings.Join(out, ".")
	class = out[len(out)-1]
	return path, class
}

func pascalCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
