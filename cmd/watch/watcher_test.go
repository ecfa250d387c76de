package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRelevantChange(t *testing.T) {
	out := filepath.Join("/project", "dist")
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write source", fsnotify.Event{Name: "/project/src/a.ts", Op: fsnotify.Write}, true},
		{"create asset", fsnotify.Event{Name: "/project/src/logo.svg", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/project/src/a.ts", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/project/src/a.ts", Op: fsnotify.Chmod}, false},
		{"output file", fsnotify.Event{Name: "/project/dist/a.js", Op: fsnotify.Write}, false},
		{"node_modules", fsnotify.Event{Name: "/project/node_modules/x/index.js", Op: fsnotify.Write}, false},
		{"git", fsnotify.Event{Name: "/project/.git/index", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRelevantChange(tt.event, out))
		})
	}
}

func TestAddWatchDirs_SkipsOutputAndPackages(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src/lib", "dist/lib", "node_modules/pkg", ".git"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, addWatchDirs(watcher, root, filepath.Join(root, "dist")))

	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "lib"),
	}, watcher.WatchList())
}

func TestWatchAndRebuild_RebuildsAfterChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	var rebuilds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchAndRebuild(ctx, root, filepath.Join(root, "dist"), func() { rebuilds.Add(1) })
	}()

	file := filepath.Join(src, "a.ts")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(file, []byte("export const a = 1;\n"), 0o644)
		return rebuilds.Load() > 0
	}, 10*time.Second, 500*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
