package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the configuration whenever a config file in baseDir changes
// and passes the merged result to onChange. It blocks until ctx is cancelled.
// Reload failures are logged and the previous configuration stays in effect.
func Watch(ctx context.Context, baseDir string, logger *slog.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so that atomic-rename saves are seen.
	if err := watcher.Add(baseDir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigName(filepath.Base(event.Name)) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, err := Load(baseDir)
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				continue
			}
			logger.Info("config reloaded", "path", FindConfig(baseDir))
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

func isConfigName(name string) bool {
	for _, n := range configNames {
		if n == name {
			return true
		}
	}
	return false
}
