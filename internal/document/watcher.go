package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"persona-chat/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is re-ingested
const DefaultDebounce = 500 * time.Millisecond

// ChangeEvent reports how one changed file was applied to the knowledge base
type ChangeEvent struct {
	Path    string
	Removed bool
	Chunks  int
	Err     error
}

// Watcher keeps the knowledge base in sync with files on disk
type Watcher struct {
	ingester *Ingester
	watcher  *fsnotify.Watcher
	debounce time.Duration
	roots    []string
	files    map[string]bool
}

func NewWatcher(ingester *Ingester, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		ingester: ingester,
		watcher:  w,
		debounce: debounce,
		files:    make(map[string]bool),
	}, nil
}

// Add watches a file or a directory tree
func (w *Watcher) Add(path string) error {
	path = sourcePath(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	if !info.IsDir() {
		w.files[path] = true
		return w.watcher.Add(filepath.Dir(path))
	}

	w.roots = append(w.roots, path)
	return w.addTree(path, nil)
}

// addTree watches dir and its non-hidden subdirectories. Supported files found
// along the way are passed to found.
func (w *Watcher) addTree(dir string, found func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if found != nil && IsSupportedFile(path) {
			found(path)
		}
		return nil
	})
}

// Run applies changes until ctx is cancelled. onChange is called once per
// applied file.
func (w *Watcher) Run(ctx context.Context, onChange func(ChangeEvent)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.collect(event, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("file watcher error: %v", err)

		case <-timer.C:
			for _, path := range slices.Sorted(maps.Keys(pending)) {
				change := w.apply(ctx, path)
				if onChange != nil {
					onChange(change)
				}
			}
			clear(pending)
		}
	}
}

// collect records the files affected by event and reports whether any were
func (w *Watcher) collect(event fsnotify.Event, pending map[string]struct{}) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	path := sourcePath(event.Name)
	if !w.watched(path) || isHidden(path) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			added := false
			err := w.addTree(path, func(file string) {
				pending[file] = struct{}{}
				added = true
			})
			if err != nil {
				logging.Error("failed to watch %s: %v", path, err)
			}
			return added
		}
	}

	if !IsSupportedFile(path) {
		return false
	}
	pending[path] = struct{}{}
	return true
}

func (w *Watcher) watched(path string) bool {
	if w.files[path] {
		return true
	}
	for _, root := range w.roots {
		if root == string(filepath.Separator) || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) apply(ctx context.Context, path string) ChangeEvent {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		n, err := w.ingester.RemoveSource(ctx, path)
		logging.Debug("removed %s from knowledge base (%d chunks)", path, n)
		return ChangeEvent{Path: path, Removed: true, Chunks: n, Err: err}
	}
	if err != nil {
		return ChangeEvent{Path: path, Err: err}
	}

	n, err := w.ingester.IngestFile(ctx, path)
	return ChangeEvent{Path: path, Chunks: n, Err: err}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
