package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/logging"
	"github.com/quantmind-br/pkgstatus/internal/pkginfo"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/quantmind-br/pkgstatus/internal/watcher"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatchCmd(t *testing.T) {
	t.Parallel()
	logger := zerolog.New(io.Discard)

	cmd := NewWatchCmd(testConfig(t), &logger)

	assert.Contains(t, cmd.Use, "watch")
	assert.NotNil(t, cmd.Flags().Lookup("dump"))
}

func TestRunWatch_FollowsDumpChanges(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	writeDump(t, cfg.Paths.DumpFile, samplePackages()...)

	st, err := store.New(context.Background(), cfg.Paths.DBFile)
	require.NoError(t, err)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, &out, st, watcher.Config{
			Path:     cfg.Paths.DumpFile,
			Debounce: cfg.Watch.Debounce,
		}, "", logging.NewTestLogger(io.Discard))
	}()

	// initial sync reports every package
	assert.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "bitcoind Running") &&
			strings.Contains(s, "electrs Installing") &&
			strings.Contains(s, "lnd Running")
	}, 5*time.Second, 20*time.Millisecond)

	pkgs := samplePackages()
	pkgs[0].Installed.Status.Main.Status = core.MainStopped
	writeDump(t, cfg.Paths.DumpFile, pkgs...)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "bitcoind Stopped")
	}, 5*time.Second, 20*time.Millisecond)

	writeDump(t, cfg.Paths.DumpFile, pkgs[:2]...)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "electrs removed")
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotContains(t, out.String(), "Warning:")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Equal(t, 0, st.Subscribers())
}

func TestRunWatch_MissingDirectory(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	st, err := store.New(context.Background(), cfg.Paths.DBFile)
	require.NoError(t, err)
	defer st.Close()

	err = runWatch(context.Background(), io.Discard, st, watcher.Config{
		Path: filepath.Join(cfg.Paths.DataDir, "missing", "dump.json"),
	}, "", logging.NewTestLogger(io.Discard))
	assert.Error(t, err)
	assert.Equal(t, 0, st.Subscribers())
}

func TestWatchPrinter(t *testing.T) {
	t.Parallel()
	pkgs := samplePackages()

	var buf bytes.Buffer
	p := &watchPrinter{out: &buf}
	p.print(store.Event{Type: store.EventPut, ID: "electrs", Entry: pkgs[2]})
	p.print(store.Event{Type: store.EventDelete, ID: "lnd"})

	out := buf.String()
	assert.Contains(t, out, "electrs Installing")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "lnd")
	assert.Contains(t, out, "removed")
}

func TestWatchPrinter_SinglePackageProgress(t *testing.T) {
	t.Parallel()
	entry := samplePackages()[2]

	var buf bytes.Buffer
	p := &watchPrinter{out: &buf, id: "electrs"}
	p.print(store.Event{Type: store.EventPut, ID: "electrs", Entry: entry})
	require.NotNil(t, p.bar)

	done := *entry
	done.InstallProgress = &core.InstallProgress{
		Size: 100, Downloaded: 100, DownloadComplete: true,
		Validated: 100, ValidationComplete: true,
		Unpacked: 100, UnpackComplete: true,
	}
	require.True(t, pkginfo.GetPackageInfo(&done).InstallProgress.IsComplete)

	p.print(store.Event{Type: store.EventPut, ID: "electrs", Entry: &done})
	assert.Nil(t, p.bar)
	assert.Contains(t, buf.String(), "electrs Installing")
}
