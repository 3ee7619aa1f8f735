package emitter

import (
	"fmt"
	"strings"

	"github.com/dangercoder/cljr/internal/analyzer"
)

func (em *Emitter) emitProtocol(e *analyzer.Expr) (string, error) {
	name := Mangle(e.TypeName)
	sigs := make([]string, len(e.MethodDefs))
	for i, m := range e.MethodDefs {
		params := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			if p == "this" {
				continue
			}
			params = append(params, "object "+Mangle(p))
		}
		sigs[i] = fmt.Sprintf("    object %s(%s);", Mangle(m.Name), strings.Join(params, ", "))
	}
	return fmt.Sprintf("public interface %s {\n%s\n}", name, strings.Join(sigs, "\n")), nil
}

func (em *Emitter) emitFieldDecls(fields []analyzer.FieldDef, mutable bool) []string {
	decls := make([]string, len(fields))
	for i, f := range fields {
		typ := "object"
		if f.Hint != "" {
			typ = f.Hint
		}
		var attrs strings.Builder
		for _, a := range f.Attributes {
			attrs.WriteString("[" + a + "] ")
		}
		if mutable && f.Mutable {
			decls[i] = fmt.Sprintf("    %spublic %s %s;", attrs.String(), typ, Mangle(f.Name))
		} else if mutable {
			decls[i] = fmt.Sprintf("    %spublic %s %s { get; set; }", attrs.String(), typ, Mangle(f.Name))
		} else {
			decls[i] = fmt.Sprintf("    %spublic %s %s { get; }", attrs.String(), typ, Mangle(f.Name))
		}
	}
	return decls
}

func (em *Emitter) emitTypeMethods(methods []analyzer.MethodDef) ([]string, error) {
	out := make([]string, len(methods))
	for i, m := range methods {
		params := make([]string, 0, len(m.Params))
		for _, p := range m.Params {
			if p == "this" {
				continue
			}
			params = append(params, "object "+Mangle(p))
		}
		body, err := em.emitBlockBody(nil, m.Body, ReturnMode)
		if err != nil {
			return nil, err
		}
		out[i] = fmt.Sprintf("    public object %s(%s) {\n%s\n    }", Mangle(m.Name), strings.Join(params, ", "), indent(body, "    "))
	}
	return out, nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func implementsClause(interfaces []string) string {
	if len(interfaces) == 0 {
		return ""
	}
	return " : " + strings.Join(interfaces, ", ")
}

func (em *Emitter) emitType(e *analyzer.Expr) (string, error) {
	name := Mangle(e.TypeName)
	fieldDecls := em.emitFieldDecls(e.Fields, true)
	methods, err := em.emitTypeMethods(e.MethodDefs)
	if err != nil {
		return "", err
	}
	params := make([]string, len(e.Fields))
	assigns := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		typ := "object"
		if f.Hint != "" {
			typ = f.Hint
		}
		params[i] = fmt.Sprintf("%s %s", typ, Mangle(f.Name))
		assigns[i] = fmt.Sprintf("        this.%s = %s;", Mangle(f.Name), Mangle(f.Name))
	}
	ctor := fmt.Sprintf("    public %s(%s) {\n%s\n    }", name, strings.Join(params, ", "), strings.Join(assigns, "\n"))

	var b strings.Builder
	fmt.Fprintf(&b, "public sealed class %s%s {\n", name, implementsClause(e.Interfaces))
	b.WriteString(strings.Join(fieldDecls, "\n"))
	b.WriteString("\n\n")
	b.WriteString(ctor)
	if len(methods) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(methods, "\n\n"))
	}
	b.WriteString("\n}")
	return b.String(), nil
}

func (em *Emitter) emitRecord(e *analyzer.Expr) (string, error) {
	name := Mangle(e.TypeName)
	methods, err := em.emitTypeMethods(e.MethodDefs)
	if err != nil {
		return "", err
	}
	params := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		typ := "object"
		if f.Hint != "" {
			typ = f.Hint
		}
		params[i] = fmt.Sprintf("%s %s", typ, pascalCase(Mangle(f.Name)))
	}

	mapArgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		typ := "object"
		if f.Hint != "" {
			typ = f.Hint
		}
		mapArgs[i] = fmt.Sprintf("(%s)m[%q]", typ, f.Name)
	}
	posArgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		posArgs[i] = Mangle(f.Name)
	}

	var b strings.Builder
	// C#'s `record` gives structural equality for free (spec §4.4
	// "Record... emits an immutable value-with-structural-equality").
	fmt.Fprintf(&b, "public sealed record %s(%s)%s {\n", name, strings.Join(params, ", "), implementsClause(e.Interfaces))
	if len(methods) > 0 {
		b.WriteString(strings.Join(methods, "\n\n"))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "    public static %s New(%s) => new %s(%s);\n", name, strings.Join(params, ", "), name, strings.Join(posArgs, ", "))
	fmt.Fprintf(&b, "    public static %s FromMap(IDictionary<string, object> m) => new %s(%s);\n", name, name, strings.Join(mapArgs, ", "))
	b.WriteString("}")
	return b.String(), nil
}

func (em *Emitter) emitTest(e *analyzer.Expr) (string, error) {
	body, err := em.emitBlockBody(nil, e.TestBody, StmtMode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[Test]\npublic void %s() {\n%s\n}", Mangle(e.DefSymbol.Name), body), nil
}

func (em *Emitter) emitAssert(e *analyzer.Expr, mode Mode) (string, error) {
	cond, err := em.Emit(e.AssertExpr, ExprMode)
	if err != nil {
		return "", err
	}
	return wrap(fmt.Sprintf("Assert.That(%s, Is.True)", cond), mode), nil
}
