package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/pkgstatus/internal/watcher"
)

func notifier() (watcher.SyncFunc, <-chan struct{}) {
	ch := make(chan struct{}, 16)
	return func(_ context.Context) error {
		ch <- struct{}{}
		return nil
	}, ch
}

func TestWatcher_SyncsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	fn, synced := notifier()
	w, err := watcher.New(watcher.DefaultConfig(path), fn, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(path, []byte(`{"package-data":{}}`), 0644))

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		require.Fail(t, "timeout waiting for sync after write")
	}
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	fn, synced := notifier()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 150 * time.Millisecond}, fn, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start())

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("{%d}", i)), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	var count int
	deadline := time.After(600 * time.Millisecond)
countLoop:
	for {
		select {
		case <-synced:
			count++
		case <-deadline:
			break countLoop
		}
	}

	require.GreaterOrEqual(t, count, 1, "expected at least one sync")
	require.LessOrEqual(t, count, 3, "expected debouncing to coalesce writes (got %d)", count)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0644))

	fn, synced := notifier()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond}, fn, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0644))

	select {
	case <-synced:
		require.Fail(t, "sync triggered by unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	fn, synced := notifier()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond}, fn, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	require.NoError(t, w.Start())

	tmp := filepath.Join(dir, ".db.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"package-data":{}}`), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		require.Fail(t, "timeout waiting for sync after rename")
	}
}

func TestWatcher_Validation(t *testing.T) {
	fn, _ := notifier()

	_, err := watcher.New(watcher.Config{}, fn, nil)
	require.Error(t, err)

	_, err = watcher.New(watcher.DefaultConfig("/tmp/db.json"), nil, nil)
	require.Error(t, err)

	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing", "db.json")), fn, nil)
	require.NoError(t, err)
	require.Error(t, w.Start())
	require.NoError(t, w.Stop())
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	fn, _ := notifier()
	w, err := watcher.New(watcher.DefaultConfig(path), fn, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "Run did not return after cancel")
	}
}
