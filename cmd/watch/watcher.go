package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LegacyCodeHQ/tsout/internal/buildlog"
	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
}

func watchAndRebuild(ctx context.Context, root, outputRoot string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root, outputRoot); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	var debounceTimer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevantChange(event, outputRoot) {
				continue
			}
			buildlog.Debug("file changed", map[string]any{"path": event.Name, "op": event.Op.String()})

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name, outputRoot)
			}

		case <-pending:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			buildlog.Error("watcher error", map[string]any{"error": err.Error()})
		}
	}
}

func isRelevantChange(event fsnotify.Event, outputRoot string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if isWithin(event.Name, outputRoot) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(event.Name), "/") {
		if skippedDirs[part] {
			return false
		}
	}
	return true
}

func addWatchDirs(watcher *fsnotify.Watcher, root, outputRoot string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] || path == outputRoot {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path, outputRoot string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path, outputRoot)
	}
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
