// Package watch re-runs an evaluation whenever files under a submission
// directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 500 * time.Millisecond

	tick = 50 * time.Millisecond
)

// ChangeFunc is called with the changed paths once the tree has been quiet
// for the debounce window.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches a directory tree, following directories created after it
// starts.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *zap.Logger

	fsw     *fsnotify.Watcher
	pending map[string]struct{}
	last    time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the tree must be quiet before a change fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New starts watching every directory under root. Hidden directories such
// as .git are skipped. The caller must call Run, which releases the watch
// when it returns.
func New(root string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		fsw:      fsw,
		pending:  map[string]struct{}{},
	}
	for _, o := range opts {
		o(w)
	}

	if _, err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every non-hidden directory below it and returns
// the regular files it found.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.logger.Debug("watching directory", zap.String("dir", path))
		return nil
	})
	return files, err
}

// Run delivers batched changes to onChange until ctx is cancelled. onChange
// runs on the watcher goroutine, so events arriving while it runs are
// batched into the next call.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.fsw.Close()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case now := <-ticker.C:
			if len(w.pending) == 0 || now.Sub(w.last) < w.debounce {
				continue
			}
			changed := make([]string, 0, len(w.pending))
			for p := range w.pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(w.pending)

			w.logger.Debug("submission changed", zap.Strings("paths", changed))
			onChange(ctx, changed)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	w.pending[event.Name] = struct{}{}
	w.last = time.Now()

	if event.Op.Has(fsnotify.Create) {
		// Files written into a new directory before its watch lands are
		// picked up by the walk.
		files, err := w.addTree(event.Name)
		if err != nil {
			w.logger.Debug("not following new path", zap.String("path", event.Name), zap.Error(err))
			return
		}
		for _, f := range files {
			w.pending[f] = struct{}{}
		}
	}
}
