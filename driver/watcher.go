package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors source directories and re-checks files as they change
type Watcher struct {
	watcher    *fsnotify.Watcher
	checker    *Checker
	roots      []string
	configPath string
	debounce   time.Duration
	stdout     io.Writer
	stderr     io.Writer

	// OnResult, when set, receives every re-check result
	OnResult func(FileResult)

	// Track last change per file to debounce editors that save in steps
	mu         sync.Mutex
	lastChange map[string]time.Time
	changeSeq  uint64 // Incremented on each handled change
}

// NewWatcher creates a file watcher over roots. Changes to configPath are
// reported but not applied.
func NewWatcher(checker *Checker, roots []string, configPath string, debounce time.Duration, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    fsWatcher,
		checker:    checker,
		roots:      roots,
		configPath: configPath,
		debounce:   debounce,
		stdout:     stdout,
		stderr:     stderr,
		lastChange: make(map[string]time.Time),
	}, nil
}

// Start begins watching for file changes
func (w *Watcher) Start(ctx context.Context) error {
	if w.configPath != "" {
		configDir := filepath.Dir(w.configPath)
		if err := w.watcher.Add(configDir); err != nil {
			w.logError("failed to watch config dir %s: %v", configDir, err)
		} else {
			w.logInfo("watching config: %s", w.configPath)
		}
	}

	watched := 0
	for _, root := range w.roots {
		if err := w.watchDirRecursive(root); err != nil {
			w.logError("failed to watch %s: %v", root, err)
			continue
		}
		watched++
		w.logInfo("watching sources: %s", root)
	}
	if watched == 0 && len(w.roots) > 0 {
		return fmt.Errorf("no source directories could be watched")
	}

	go w.eventLoop(ctx)
	return nil
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Close()
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if w.checker.IgnoreHidden && strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// eventLoop processes file system events
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// handleEvent dispatches a single file system event
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.checker.Accepts(path) {
			w.logInfo("source removed: %s", path)
			if w.checker.Log != nil {
				if err := w.checker.Log.Forget(ctx, path); err != nil {
					w.logError("failed to forget %s: %v", path, err)
				}
			}
		}
		return
	}

	// Only handle write and create events
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watchDirRecursive(path); err != nil {
				w.logError("failed to watch new dir %s: %v", path, err)
			}
			return
		}
	}

	if w.configPath != "" && filepath.Base(path) == filepath.Base(w.configPath) {
		w.logInfo("config changed: %s (restart to apply)", path)
		return
	}

	if !w.checker.Accepts(path) {
		return
	}

	// Debounce rapid changes to the same file
	w.mu.Lock()
	if last, ok := w.lastChange[path]; ok && time.Since(last) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastChange[path] = time.Now()
	w.changeSeq++
	w.mu.Unlock()

	w.recheck(ctx, path)
}

// recheck runs the checker on a changed file and reports the outcome
func (w *Watcher) recheck(ctx context.Context, path string) {
	result := w.checker.CheckFile(ctx, path)
	if result.OK() {
		w.logInfo("%s ok (%d tokens, %s)", path, result.Tokens, result.Duration.Round(time.Microsecond))
	} else {
		w.logError("%s", result.Err.PrettyString())
	}
	if w.OnResult != nil {
		w.OnResult(result)
	}
}

// ChangeSeq returns the number of changes handled so far
func (w *Watcher) ChangeSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changeSeq
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
