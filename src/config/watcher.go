package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events editors produce on save.
const DefaultWatchDebounce = 250 * time.Millisecond

// ZonesWatcher re-reads the zones file when it changes and hands the parsed
// result to onChange. Parse failures are logged and skipped.
type ZonesWatcher struct {
	path     string
	debounce time.Duration
	onChange func(*ZonesFile)
	watcher  *fsnotify.Watcher
}

// NewZonesWatcher watches the directory containing path, so that editors that
// replace the file by rename are still observed.
func NewZonesWatcher(path string, debounce time.Duration, onChange func(*ZonesFile)) (*ZonesWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create zones watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &ZonesWatcher{path: abs, debounce: debounce, onChange: onChange, watcher: fsw}, nil
}

// Run delivers reloads until ctx is cancelled. The watcher is closed on return.
func (w *ZonesWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("zones watcher error", "err", err)
		case <-timer.C:
			zf, err := LoadZones(w.path)
			if err != nil {
				slog.Warn("zones file reload skipped, keeping previous zones", "path", w.path, "err", err)
				continue
			}
			slog.Info("zones file changed", "path", w.path, "zones", len(zf.Zones))
			w.onChange(zf)
		}
	}
}
