package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the event bursts editors produce on save so a
// single save triggers a single reload.
const debounceWindow = 200 * time.Millisecond

// Watch monitors the config file at path and calls onChange with the freshly
// loaded Config after every successful reload. It blocks until ctx is
// cancelled.
//
// A failed reload (bad YAML, validation error) is logged and swallowed: the
// previously active config stays in effect, so an operator can tune band
// envelopes and rule thresholds live without risking an outage on a typo.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	var debounce *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Write covers in-place saves; Create covers atomic saves that
			// replace the file by rename.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceWindow)
			} else {
				debounce.Reset(debounceWindow)
			}
			pending = debounce.C

		case <-pending:
			pending = nil
			reload(path, onChange)
			// An atomic save may have replaced the inode; re-add so the next
			// save is still observed.
			if err := watcher.Add(path); err != nil {
				slog.Error("config: re-watch failed", "path", path, "err", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path, "bands", len(cfg.Bands))
	onChange(cfg)
}
