package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the configuration file on change. Reloads are
// debounced: editors typically fire several events per save.
type Watcher struct {
	logger  zerolog.Logger
	path    string
	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for one configuration file.
func NewWatcher(path string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		logger: logger.With().Str("component", "config-watcher").Logger(),
		path:   path,
	}
}

// Watch starts watching the file and calls reloadFn with each
// successfully parsed new configuration. A file that fails to parse is
// logged and skipped; the previous configuration stays in effect.
func (w *Watcher) Watch(ctx context.Context, reloadFn func(*Config) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	if err := watcher.Add(w.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	go w.processEvents(ctx, reloadFn)

	w.logger.Info().Str("path", w.path).Msg("Started watching config file")
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, reloadFn func(*Config) error) {
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Config file changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				if err := w.triggerReload(reloadFn); err != nil {
					w.logger.Error().Err(err).Msg("Failed to reload config")
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) triggerReload(reloadFn func(*Config) error) error {
	cfg, err := Load(w.path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	if err := reloadFn(cfg); err != nil {
		return fmt.Errorf("failed to apply reloaded config: %w", err)
	}
	w.logger.Info().Msg("Config reloaded successfully")
	return nil
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		return err
	}
	return nil
}
