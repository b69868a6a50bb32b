package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk. Editors often
// replace files instead of writing in place, so the parent directory is
// watched and events are filtered by name.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	load     func(string) (*Config, error)
}

func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, debounce: defaultDebounce, logger: logger, load: LoadFile}
}

// Run calls apply with every successfully reloaded config until ctx is done.
// Invalid edits are logged and skipped; the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Base(w.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := w.load(w.path)
		if err != nil {
			w.logger.Warn("config reload rejected", "path", w.path, "error", err)
			return
		}
		w.logger.Info("config reloaded", "path", w.path)
		apply(cfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
