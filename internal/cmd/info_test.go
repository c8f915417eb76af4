package cmd

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/logging"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInfoCmd(t *testing.T) {
	t.Parallel()
	logger := zerolog.New(io.Discard)

	cmd := NewInfoCmd(testConfig(t), &logger)

	assert.Contains(t, cmd.Use, "info")
	assert.Equal(t, "Show package information", cmd.Short)
}

func TestInfoCmd_InstalledPackage(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg, checkedPackages()...)

	logger := zerolog.New(io.Discard)
	cmd := NewInfoCmd(cfg, &logger)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"lnd"})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.NoError(t, err)

	assert.Contains(t, out, "Lightning Network Daemon")
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "Issue")
	assert.Contains(t, out, "RPC: ✓ success")
	assert.Contains(t, out, "Issues: ✗ yes")
	assert.NotContains(t, out, "Error:")
	assert.Contains(t, out, "Incorrect Version: Expected >=0.21.0, Received 0.20.0")
}

func TestInfoCmd_ByTitle(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg, checkedPackages()...)

	logger := zerolog.New(io.Discard)
	cmd := NewInfoCmd(cfg, &logger)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"bitcoin core"})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoind")
}

func TestInfoCmd_InstallProgress(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg, checkedPackages()...)

	logger := zerolog.New(io.Discard)
	cmd := NewInfoCmd(cfg, &logger)

	var bars bytes.Buffer
	cmd.SetOut(&bars)
	cmd.SetArgs([]string{"electrs"})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.NoError(t, err)

	assert.Contains(t, out, "Install Progress")
	assert.Contains(t, bars.String(), "Download")
	assert.Contains(t, bars.String(), "Total")
}

func TestInfoCmd_NotFound(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg, checkedPackages()...)

	logger := zerolog.New(io.Discard)
	cmd := NewInfoCmd(cfg, &logger)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"nonexistent"})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, core.ExitNotFound, ExitCode(err))
	assert.Contains(t, out, "pkgstatus list")
}

func TestFindRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testConfig(t)
	seedStore(t, cfg, samplePackages()...)

	st, err := store.New(ctx, cfg.Paths.DBFile)
	require.NoError(t, err)
	defer st.Close()

	log := logging.NewTestLogger(io.Discard)

	rec, err := findRecord(ctx, st, "electrs", log)
	require.NoError(t, err)
	assert.Equal(t, "electrs", rec.ID)

	rec, err = findRecord(ctx, st, "ELECTRS", log)
	require.NoError(t, err)
	assert.Equal(t, "electrs", rec.ID)

	_, err = findRecord(ctx, st, "missing", log)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSelectPackage_EmptyStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := store.New(ctx, testConfig(t).Paths.DBFile)
	require.NoError(t, err)
	defer st.Close()

	_, err = selectPackage(ctx, st)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
