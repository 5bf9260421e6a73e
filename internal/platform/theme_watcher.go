package platform

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"grape/internal/infrastructure/logging"
)

// ThemeWatcher reports appearance changes by watching the preferences file
// that the system rewrites when the user switches between light and dark.
type ThemeWatcher struct {
	path     string
	isDark   func() bool
	onChange func(dark bool)
	logger   logging.Logger

	mu      sync.Mutex
	last    bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewThemeWatcher creates a watcher; it does nothing until Start
func NewThemeWatcher(path string, isDark func() bool, onChange func(dark bool), logger logging.Logger) *ThemeWatcher {
	return &ThemeWatcher{
		path:     path,
		isDark:   isDark,
		onChange: onChange,
		logger:   logger,
	}
}

// Start begins watching. An empty path means the platform cannot report
// changes and Start returns nil without watching.
func (t *ThemeWatcher) Start(ctx context.Context) error {
	if t.path == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// The file is replaced on write, so watch its directory
	if err := w.Add(filepath.Dir(t.path)); err != nil {
		w.Close()
		return err
	}

	t.mu.Lock()
	t.watcher = w
	t.last = t.isDark()
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.loop(ctx, w)
	t.logger.Debug("Theme watcher started", "path", t.path)
	return nil
}

func (t *ThemeWatcher) loop(ctx context.Context, w *fsnotify.Watcher) {
	defer close(t.done)
	name := filepath.Base(t.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			t.check()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			t.logger.Warn("Theme watcher error", "error", err.Error())
		}
	}
}

func (t *ThemeWatcher) check() {
	dark := t.isDark()

	t.mu.Lock()
	changed := dark != t.last
	t.last = dark
	t.mu.Unlock()

	if changed {
		t.logger.Info("System appearance changed", "dark", dark)
		t.onChange(dark)
	}
}

// Close stops the watcher and waits for its goroutine
func (t *ThemeWatcher) Close() error {
	t.mu.Lock()
	w, done := t.watcher, t.done
	t.watcher = nil
	t.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}
