package repl

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dangercoder/cljr/internal/collections"
	"github.com/dangercoder/cljr/internal/reader"
)

// ReloadResult is what a reload/reload-all wire op reports (spec §6
// "reload ns -> value :ok ms / :error msg, reloaded[]").
type ReloadResult struct {
	OK       bool
	Millis   int64
	Err      error
	Reloaded []string
}

var reloadMu sync.Mutex // serializes reload sequences process-wide (spec §5 "File watching")

// Reload re-evaluates ns's source file: it captures any stateful
// reference cell (spec §4.5 "State preservation"), clears the
// namespace's dependency edges, reanalyzes and reevaluates the file,
// restores the captured cells, then recursively reloads every namespace
// that (transitively) requires ns, in topological order (spec §4.5
// "Reload (dev mode)").
func (s *Session) Reload(ctx context.Context, ns string) *ReloadResult {
	reloadMu.Lock()
	defer reloadMu.Unlock()

	start := time.Now()
	order := s.reloadOrder(ns)
	var reloaded []string
	for _, n := range order {
		if err := s.reloadOne(ctx, n); err != nil {
			return &ReloadResult{OK: false, Err: err, Reloaded: reloaded}
		}
		reloaded = append(reloaded, n)
	}
	return &ReloadResult{OK: true, Millis: time.Since(start).Milliseconds(), Reloaded: reloaded}
}

// ReloadAll reloads every registered namespace, in dependency order,
// continuing past individual failures so that one broken namespace
// doesn't block the rest (spec §6 "reload-all -> value :ok n / errors,
// reloaded[]").
func (s *Session) ReloadAll(ctx context.Context) *ReloadResult {
	reloadMu.Lock()
	defer reloadMu.Unlock()

	start := time.Now()
	order := s.globalReloadOrder()
	var reloaded []string
	var combined error
	for _, n := range order {
		if err := s.reloadOne(ctx, n); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", n, err))
			continue
		}
		reloaded = append(reloaded, n)
	}
	res := &ReloadResult{OK: combined == nil, Millis: time.Since(start).Milliseconds(), Reloaded: reloaded}
	res.Err = combined
	return res
}

// reloadOrder returns ns followed by every namespace that depends on it
// (directly or transitively), each namespace appearing after everything
// it itself requires (topological order, spec §4.5 "recursively reload
// dependents in a topological order").
func (s *Session) reloadOrder(ns string) []string {
	dependents := s.transitiveDependents(ns)
	dependents[ns] = true
	return s.topoSort(dependents)
}

func (s *Session) globalReloadOrder() []string {
	all := make(map[string]bool)
	for _, n := range s.registry.Names() {
		all[n] = true
	}
	return s.topoSort(all)
}

// transitiveDependents returns every namespace (other than ns itself)
// that requires ns, directly or through a chain of requires.
func (s *Session) transitiveDependents(ns string) map[string]bool {
	out := make(map[string]bool)
	changed := true
	for changed {
		changed = false
		for _, n := range s.registry.Names() {
			if out[n] || n == ns {
				continue
			}
			nsObj, ok := s.registry.Get(n)
			if !ok {
				continue
			}
			for _, req := range nsObj.Requires() {
				if req == ns || out[req] {
					out[n] = true
					changed = true
					break
				}
			}
		}
	}
	return out
}

// topoSort orders members of set so that every namespace appears after
// everything it requires that is also in the set (a depth-first
// post-order walk over the small, slowly-changing require graph).
func (s *Session) topoSort(set map[string]bool) []string {
	visited := make(map[string]bool, len(set))
	var order []string
	var visit func(string)
	visit = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		if nsObj, ok := s.registry.Get(n); ok {
			for _, req := range nsObj.Requires() {
				if set[req] {
					visit(req)
				}
			}
		}
		order = append(order, n)
	}
	for n := range set {
		visit(n)
	}
	return order
}

// reloadOne performs the single-namespace sequence of spec §4.5's Reload
// paragraph, without recursing into dependents.
func (s *Session) reloadOne(ctx context.Context, ns string) error {
	roots := s.cfg.SourcePaths
	path, ok := findSourceFile(roots, ns)
	if !ok {
		return fmt.Errorf("no source file found for namespace %s under %v", ns, roots)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	nsObj := s.registry.EnsureNamespace(ns)
	captured := capturedAtoms(nsObj.VarValues())
	nsObj.ResetEdges()

	forms, rerr := reader.ReadAll(path, string(src))
	if rerr != nil {
		return rerr
	}

	prevNS := s.ns
	s.ns = ns
	defer func() { s.ns = prevNS }()

	for _, form := range forms {
		if _, _, cerr := s.evalOne(ctx, form); cerr != nil {
			return cerr
		}
	}

	target := s.registry.EnsureNamespace(s.ns)
	for name, atom := range captured {
		target.RestoreValue(name, atom)
	}
	s.log.Infow("reloaded namespace", "ns", ns, "file", path)
	return nil
}

// capturedAtoms filters a var-value snapshot down to the ones holding a
// mutable reference cell, so a reload can rebind the same instance
// afterward rather than losing accumulated state (spec §4.5 "State
// preservation").
func capturedAtoms(values map[string]any) map[string]*collections.Atom {
	out := make(map[string]*collections.Atom)
	for name, v := range values {
		if a, ok := v.(*collections.Atom); ok {
			out[name] = a
		}
	}
	return out
}
