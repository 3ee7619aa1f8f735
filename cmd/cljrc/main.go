// Command cljrc is the ahead-of-time compiler entry point: it walks a
// tree of source files and emits target-language source via
// Reader -> Analyzer -> Emitter, carrying no REPL state (spec PACKAGE
// LAYOUT "cmd/cljrc"). Grounded on the teacher's asm/asm.go "assemble one
// file" driving loop (_examples/gmofishsauce-y4), generalized to a tree
// of files and upgraded to cobra + zap per the ambient stack.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dangercoder/cljr/internal/analyzer"
	"github.com/dangercoder/cljr/internal/emitter"
	"github.com/dangercoder/cljr/internal/macro"
	"github.com/dangercoder/cljr/internal/nsregistry"
	"github.com/dangercoder/cljr/internal/reader"
)

var (
	srcDir  string
	outDir  string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "cljrc",
		Short: "Compile a tree of source files to target-language source",
		RunE:  run,
	}
	root.Flags().StringVar(&srcDir, "src", "src", "source root to compile")
	root.Flags().StringVar(&outDir, "out", "out", "output directory for emitted target source")
	root.Flags().BoolVar(&verbose, "verbose", false, "emit debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cljrc:", err)
		os.Exit(1)
	}
}

func run(*cobra.Command, []string) error {
	log := newLogger(verbose)
	defer log.Sync()

	registry := nsregistry.NewRegistry()
	macros := macro.NewRegistry()

	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".cljr") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var errs error
	for _, path := range files {
		if cerr := compileFile(path, registry, macros, log); cerr != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, cerr))
		}
	}
	return errs
}

func compileFile(path string, registry *nsregistry.Registry, macros *macro.Registry, log *zap.SugaredLogger) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	forms, err := reader.ReadAll(path, string(src))
	if err != nil {
		return err
	}

	ns := "user"
	nsObj := registry.EnsureNamespace(ns)
	ctx := analyzer.NewContext(ns, macros, nsObj)
	ctx.REPLMode = false

	exprs, aerr := analyzer.AnalyzeFile(forms, ctx)
	if aerr != nil {
		return aerr
	}

	var out strings.Builder
	for _, e := range exprs {
		switch e.Kind {
		case analyzer.KNs:
			ns = e.NSName
			nsObj = registry.EnsureNamespace(ns)
			nsObj.ApplyRequires(e.Requires)
			nsObj.ApplyImports(e.Imports)
			continue
		case analyzer.KRequire:
			nsObj.ApplyRequires(e.Requires)
			continue
		case analyzer.KImport:
			nsObj.ApplyImports(e.Imports)
			continue
		}
		em := emitter.New(ns)
		code, eerr := em.Emit(e, emitter.StmtMode)
		if eerr != nil {
			return eerr
		}
		if code != "" {
			out.WriteString(code)
			out.WriteString("\n")
		}
	}

	outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(path), ".cljr")+".cs")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	log.Debugw("compiled file", "src", path, "out", outPath, "ns", ns)
	return os.WriteFile(outPath, []byte(out.String()), 0o644)
}

func newLogger(verbose bool) *zap.SugaredLogger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	l, _ := zap.NewProduction()
	return l.Sugar()
}
