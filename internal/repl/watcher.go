package repl

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is the minimum quiet period spec §4.5/§5 require before
// a batch of file-change events triggers one reload sequence ("Events
// are debounced (>=400 ms window)... so that a single source change
// produces one reload sequence even in the face of editor save-burst
// behavior").
const reloadDebounce = 400 * time.Millisecond

// Watcher wraps an fsnotify.Watcher with the debounce/auto-reload
// behavior spec §4.5 and §6's config table describe. Grounded on
// _examples/ehrlich-b-wingthing and _examples/ternarybob-iter, both of
// which use fsnotify for a dev-mode reload watcher.
type Watcher struct {
	fs     *fsnotify.Watcher
	mu     sync.Mutex
	timer  *time.Timer
	dirty  map[string]bool
	stopCh chan struct{}
}

// WatchStart begins watching cfg.WatchPaths, debouncing change bursts and
// (when cfg.AutoReload is set) reloading the affected namespace
// automatically once the debounce window elapses (spec §6 "auto-reload").
// It is a no-op, returning nil, if a watcher is already running.
func (s *Session) WatchStart(ctx context.Context) error {
	if s.watcher != nil {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, p := range s.cfg.WatchPaths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return err
		}
	}
	w := &Watcher{fs: fw, dirty: make(map[string]bool), stopCh: make(chan struct{})}
	s.watcher = w
	go w.run(ctx, s)
	s.log.Infow("watch-start", "paths", s.cfg.WatchPaths)
	return nil
}

// WatchStop tears down the running watcher, if any.
func (s *Session) WatchStop() error {
	if s.watcher == nil {
		return nil
	}
	close(s.watcher.stopCh)
	err := s.watcher.fs.Close()
	s.watcher = nil
	s.log.Infow("watch-stop")
	return err
}

// Watching reports whether a watcher is currently running.
func (s *Session) Watching() bool { return s.watcher != nil }

func (w *Watcher) run(ctx context.Context, s *Session) {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, SourceExt) {
				continue
			}
			w.markDirty(ctx, s, ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			s.log.Warnw("watch error", "err", err)
		}
	}
}

// markDirty records a changed file and (re)arms the debounce timer; only
// the last timer to fire within the window actually triggers a reload
// (spec §5 "Events are debounced... so that a single source change
// produces one reload sequence").
func (w *Watcher) markDirty(ctx context.Context, s *Session, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		w.flush(ctx, s)
	})
}

func (w *Watcher) flush(ctx context.Context, s *Session) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.dirty))
	for p := range w.dirty {
		paths = append(paths, p)
	}
	w.dirty = make(map[string]bool)
	w.mu.Unlock()

	if !s.cfg.AutoReload {
		return
	}
	for _, p := range paths {
		ns := nsFromPath(s.cfg.SourcePaths, p)
		if ns == "" {
			continue
		}
		if res := s.Reload(ctx, ns); !res.OK {
			s.log.Warnw("auto-reload failed", "ns", ns, "err", res.Err)
		}
	}
}

// nsFromPath inverts nsToRelPath against the configured source roots,
// returning "" when path isn't under any of them.
func nsFromPath(roots []string, path string) string {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = strings.TrimSuffix(rel, SourceExt)
		segs := strings.Split(filepath.ToSlash(rel), "/")
		for i, seg := range segs {
			segs[i] = strings.ReplaceAll(seg, "_", "-")
		}
		return strings.Join(segs, ".")
	}
	return ""
}
