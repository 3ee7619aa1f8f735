// Package repl implements the REPL session state machine of spec §4.5:
// the stateful reader→analyzer→emitter→host-compile continuation loop,
// the type-definition compile-unit path with its structural-signature
// cache, result history, and namespace visibility. Grounded on the
// teacher's sim/*.go fetch-decode-execute loop (_examples/gmofishsauce-y4):
// a persistent machine state that each "instruction" (here, each eval
// call) advances, with side-effectful I/O capture mirrored from
// sim/io.go.
package repl

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dangercoder/cljr/internal/analyzer"
	"github.com/dangercoder/cljr/internal/cljrerr"
	"github.com/dangercoder/cljr/internal/config"
	"github.com/dangercoder/cljr/internal/emitter"
	"github.com/dangercoder/cljr/internal/hostcompile"
	"github.com/dangercoder/cljr/internal/macro"
	"github.com/dangercoder/cljr/internal/nsregistry"
	"github.com/dangercoder/cljr/internal/reader"
	"github.com/dangercoder/cljr/internal/signature"
	"github.com/dangercoder/cljr/internal/symbol"
)

// EvalResult is what one eval call returns to its caller (spec §4.5
// "Expose eval(text) -> {values[], stdout, error?, namespace}").
type EvalResult struct {
	Values    []any
	Stdout    string
	Err       *cljrerr.Error
	Namespace string
}

// Session is the REPL's unit of durable state (spec §3 "REPL session
// state owns: namespace registry, var table, macro table, host-compile
// continuation state, type-signature cache, and the set of loaded
// artifact references"). A Session is single-threaded for eval: Eval
// serializes callers behind evalMu for the duration of the call (spec §5
// "Concurrent requests on the same session must serialize").
type Session struct {
	ID string

	evalMu sync.Mutex

	registry *nsregistry.Registry
	macros   *macro.Registry
	compiler hostcompile.Compiler
	cfg      *config.Session
	log      *zap.SugaredLogger

	ns string

	typeCache  map[string]*hostcompile.Artifact // signature -> artifact
	loadedRefs []hostcompile.Reference

	hist1, hist2, hist3 any

	interrupted bool

	watcher *Watcher
}

// New builds a session rooted at cfg.InitialNamespace, backed by compiler
// for host-compile/continuation calls. log may be nil, in which case a
// no-op logger is used.
func New(cfg *config.Session, compiler hostcompile.Compiler, log *zap.SugaredLogger) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Session{
		ID:        uuid.NewString(),
		registry:  nsregistry.NewRegistry(),
		macros:    macro.NewRegistry(),
		compiler:  compiler,
		cfg:       cfg,
		log:       log,
		ns:        cfg.InitialNamespace,
		typeCache: make(map[string]*hostcompile.Artifact),
	}
	s.registry.EnsureNamespace(s.ns)
	return s
}

// Namespace returns the session's current namespace name.
func (s *Session) Namespace() string { return s.ns }

// Registry exposes the namespace registry, for tests.
func (s *Session) Registry() *nsregistry.Registry { return s.registry }

// Eval implements the per-form algorithm of spec §4.5. Forms in text are
// read and evaluated in source order; effects of earlier forms (var
// defs, ns switches) are visible to later ones within the same call
// (spec §5 "Ordering").
func (s *Session) Eval(ctx context.Context, text string) *EvalResult {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	res := &EvalResult{Namespace: s.ns}
	forms, err := reader.ReadAll("", text)
	if err != nil {
		if rerr, ok := err.(*reader.Error); ok {
			res.Err = cljrerr.FromReaderError("", rerr)
		} else {
			res.Err = cljrerr.New(cljrerr.KindSyntactic, "%s", err)
		}
		return res
	}

	for _, form := range forms {
		if s.interrupted {
			res.Err = cljrerr.NewInterrupted()
			s.interrupted = false
			return res
		}
		val, stdout, cerr := s.evalOne(ctx, form)
		res.Stdout += stdout
		if cerr != nil {
			res.Err = cerr
			res.Namespace = s.ns
			return res
		}
		res.Values = append(res.Values, val)
		s.pushHistory(val)
	}
	res.Namespace = s.ns
	return res
}

// Interrupt aborts the in-flight eval at its next per-form check point
// (spec §5 "Cancellation"). It does not perturb already-produced values
// or the result history.
func (s *Session) Interrupt() {
	s.interrupted = true
}

func (s *Session) pushHistory(v any) {
	s.hist3 = s.hist2
	s.hist2 = s.hist1
	s.hist1 = v
}

// evalOne evaluates a single top-level form (spec §4.5 "per form").
func (s *Session) evalOne(ctx context.Context, form *reader.Form) (value any, stdout string, err *cljrerr.Error) {
	if form.Kind == reader.KindSymbol && form.Sym.Namespace == "" {
		switch form.Sym.Name {
		case "*ns*":
			return symbol.Intern("", s.ns), "", nil
		case "*1":
			return s.hist1, "", nil
		case "*2":
			return s.hist2, "", nil
		case "*3":
			return s.hist3, "", nil
		}
	}

	actx := s.analyzerContext()
	expr, aerr := analyzer.Analyze(form, actx)
	if aerr != nil {
		if e, ok := aerr.(*analyzer.Error); ok {
			return nil, "", cljrerr.FromAnalyzerError(e)
		}
		return nil, "", cljrerr.New(cljrerr.KindSemantic, "%s", aerr)
	}

	switch expr.Kind {
	case analyzer.KNs:
		s.applyNs(expr)
		return nil, "", nil
	case analyzer.KInNs:
		name, nerr := symbolOf(expr.FnExpr)
		if nerr != nil {
			return nil, "", cljrerr.New(cljrerr.KindSemantic, "%s", nerr)
		}
		s.ns = name
		s.registry.EnsureNamespace(s.ns)
		return symbol.Intern("", s.ns), "", nil
	case analyzer.KRequire:
		s.currentNamespace().ApplyRequires(expr.Requires)
		return nil, "", nil
	case analyzer.KImport:
		s.currentNamespace().ApplyImports(expr.Imports)
		return nil, "", nil
	case analyzer.KProtocol, analyzer.KType, analyzer.KRecord:
		return s.evalTypeForm(ctx, expr)
	}

	return s.evalOrdinary(ctx, expr)
}

func symbolOf(e *analyzer.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("in-ns requires a symbol argument")
	}
	if e.Kind == analyzer.KQuote && e.RawForm.Kind == reader.KindSymbol {
		return e.RawForm.Sym.String(), nil
	}
	if e.Kind == analyzer.KSymbolRef {
		return e.Sym.String(), nil
	}
	return "", fmt.Errorf("in-ns requires a symbol argument")
}

func (s *Session) applyNs(e *analyzer.Expr) {
	s.ns = e.NSName
	ns := s.registry.EnsureNamespace(s.ns)
	ns.ApplyRequires(e.Requires)
	ns.ApplyImports(e.Imports)
}

func (s *Session) currentNamespace() *nsregistry.Namespace {
	return s.registry.EnsureNamespace(s.ns)
}

func (s *Session) analyzerContext() *analyzer.Context {
	ctx := analyzer.NewContext(s.ns, s.macros, s.currentNamespace())
	return ctx
}

// evalTypeForm implements spec §4.5 step 3: compute the structural
// signature, reuse the cached artifact on a hit, else build an
// independent compile unit, load it, cache it, record its reference, and
// install the type name (plus, for records, its generated factory vars)
// into the current namespace.
func (s *Session) evalTypeForm(ctx context.Context, e *analyzer.Expr) (any, string, *cljrerr.Error) {
	sig, serr := signature.Compute(s.ns, e)
	if serr != nil {
		return nil, "", cljrerr.New(cljrerr.KindSemantic, "%s", serr)
	}
	if cached, ok := s.typeCache[sig]; ok {
		s.log.Debugw("type signature cache hit", "ns", s.ns, "type", e.TypeName, "signature", sig)
		s.loadedRefs = append(s.loadedRefs, cached.Reference)
		s.installType(e)
		return symbol.Intern(s.ns, e.TypeName), "", nil
	}

	em := emitter.New(s.ns)
	src, eerr := em.Emit(e, emitter.StmtMode)
	if eerr != nil {
		return nil, "", cljrerr.New(cljrerr.KindSemantic, "%s", eerr)
	}
	unit := s.buildCompileUnit(src)

	artifact, herr := s.compiler.CompileType(ctx, s.ns, e.TypeName, unit)
	if herr != nil {
		return nil, "", s.wrapHostError(herr, e.TypeName)
	}
	s.typeCache[sig] = artifact
	s.loadedRefs = append(s.loadedRefs, artifact.Reference)
	s.log.Infow("compiled type", "ns", s.ns, "type", e.TypeName, "signature", sig)
	s.installType(e)
	return symbol.Intern(s.ns, e.TypeName), "", nil
}

// installType makes e's type name (and, for records, its ->Type/map->Type
// factories) visible in the current namespace (spec §4.5 step 3 "install
// the type name in the current namespace's imported set, and for records
// install the generated factory vars").
func (s *Session) installType(e *analyzer.Expr) {
	ns := s.currentNamespace()
	ns.DefineVar(e.TypeName, nil, false)
	s.registry.RegisterType(s.ns, e.TypeName)
	if e.Kind == analyzer.KRecord {
		ns.DefineVar("->"+e.TypeName, nil, false)
		ns.DefineVar("map->"+e.TypeName, nil, false)
	}
}

// evalOrdinary implements spec §4.5 step 4: emit e as a continuation
// script carrying the namespace's imports as using-clauses, invoke the
// host compiler's continuation API, and capture stdout.
func (s *Session) evalOrdinary(ctx context.Context, e *analyzer.Expr) (any, string, *cljrerr.Error) {
	em := emitter.New(s.ns)
	src, eerr := em.Emit(e, emitter.ReturnMode)
	if eerr != nil {
		return nil, "", cljrerr.New(cljrerr.KindSemantic, "%s", eerr)
	}
	unit := s.buildCompileUnit(src)

	artifact, herr := s.compiler.CompileContinuation(ctx, s.ns, unit)
	if herr != nil {
		return nil, "", s.wrapHostError(herr, "")
	}
	if e.Kind == analyzer.KDef {
		if e.Init == nil {
			s.currentNamespace().DefineVar(e.DefSymbol.Name, nil, e.Private)
			return symbol.Intern("", e.DefSymbol.Name), artifact.Stdout, nil
		}
		s.currentNamespace().DefineVar(e.DefSymbol.Name, artifact.Value, e.Private)
		return symbol.Intern("", e.DefSymbol.Name), artifact.Stdout, nil
	}
	s.loadedRefs = append(s.loadedRefs, artifact.Reference)
	return artifact.Value, artifact.Stdout, nil
}

// buildCompileUnit threads the namespace's imports into generated code as
// using-clauses (spec §4.5 step 4), wrapping body inside the namespace's
// mangled wrapper class the way a top-level def/defn target source would
// live.
func (s *Session) buildCompileUnit(body string) string {
	ns := s.currentNamespace()
	var usings string
	for imp := range ns.Imports {
		usings += fmt.Sprintf("using %s;\n", imp)
	}
	_, class := emitter.MangleNamespace(s.ns)
	return fmt.Sprintf("%susing System;\nusing Cljr.Runtime;\n\npublic static partial class %s {\n%s\n}\n", usings, class, body)
}

// wrapHostError rewrites the synthetic not-accessible diagnostic into the
// user-facing message spec §4.5/§7 describe, when typeName names a type
// this namespace hasn't required/imported; otherwise wraps the
// diagnostic as a plain HostCompileError.
func (s *Session) wrapHostError(err error, typeName string) *cljrerr.Error {
	if typeName != "" {
		if owner, ok := s.registry.TypeOwner(typeName); ok && !s.currentNamespace().CanAccessType(owner) {
			return cljrerr.FromHostCompile(nsregistry.AccessibilityError(typeName, owner).Error())
		}
	}
	if diag, ok := err.(hostcompile.Diagnostic); ok {
		return cljrerr.FromHostCompile(diag.Message)
	}
	return cljrerr.FromHostCompile(err.Error())
}
