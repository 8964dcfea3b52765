// # internal/core/watcher/watcher.go
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"msindex/internal/shared/observability"
)

// ModelExtensions are the file extensions treated as model files.
var ModelExtensions = []string{".xml", ".sbml"}

// Watcher reports debounced batches of changed model files and of any
// explicitly tracked files such as the seed medium.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	includeFiles []glob.Glob
	excludeFiles []glob.Glob
	extFilters   map[string]bool
	tracked      map[string]bool
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher builds a watcher for model files. With include patterns set, a
// file must match one of them instead of having a model extension, the same
// rule model discovery applies.
func NewWatcher(debounce time.Duration, includeFiles, excludeFiles []string, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	include, err := compileGlobs(includeFiles)
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(excludeFiles)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := make(map[string]bool, len(ModelExtensions))
	for _, ext := range ModelExtensions {
		exts[ext] = true
	}

	return &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		includeFiles: include,
		excludeFiles: exclude,
		extFilters:   exts,
		tracked:      make(map[string]bool),
		onChange:     onChange,
		pending:      make(map[string]time.Time),
	}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Track adds single files that trigger a run regardless of extension. Their
// parent directories are watched.
func (w *Watcher) Track(files ...string) error {
	for _, f := range files {
		if strings.TrimSpace(f) == "" {
			continue
		}
		clean := filepath.Clean(f)
		w.pendingMu.Lock()
		w.tracked[clean] = true
		w.pendingMu.Unlock()
		if err := w.fsWatcher.Add(filepath.Dir(clean)); err != nil {
			return err
		}
	}
	return nil
}

// Watch adds every directory below each root and starts dispatching events.
func (w *Watcher) Watch(roots []string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatchEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchRecursive(event.Name); err != nil {
						slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	w.pendingMu.Lock()
	tracked := w.tracked[filepath.Clean(path)]
	w.pendingMu.Unlock()
	if tracked {
		return false
	}

	name := filepath.Base(path)
	base := strings.ToLower(name)
	if len(w.includeFiles) > 0 {
		if !matchesAny(w.includeFiles, name) {
			return true
		}
	} else if !w.extFilters[filepath.Ext(base)] {
		return true
	}
	return matchesAny(w.excludeFiles, base) || matchesAny(w.excludeFiles, name)
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
