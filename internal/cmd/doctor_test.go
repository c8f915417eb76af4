package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDoctorCmd(t *testing.T) {
	t.Parallel()
	logger := zerolog.New(io.Discard)

	cmd := NewDoctorCmd(testConfig(t), &logger)

	assert.Equal(t, "doctor", cmd.Use)
}

func TestDoctorCmd_Healthy(t *testing.T) {
	cfg := testConfig(t)
	writeDump(t, cfg.Paths.DumpFile, samplePackages()...)
	seedStore(t, cfg, checkedPackages()...)

	logger := zerolog.New(io.Discard)
	cmd := NewDoctorCmd(cfg, &logger)
	cmd.SetArgs([]string{})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.NoError(t, err)

	assert.Contains(t, out, "Store: accessible ("+cfg.Paths.DBFile+")")
	assert.Contains(t, out, "Packages: 3")
	assert.Contains(t, out, "1 package(s) report failing health checks")
	assert.Contains(t, out, "(3 packages)")
	assert.Contains(t, out, "All critical checks passed!")
}

func TestDoctorCmd_MissingDumpIsWarning(t *testing.T) {
	cfg := testConfig(t)

	logger := zerolog.New(io.Discard)
	cmd := NewDoctorCmd(cfg, &logger)
	cmd.SetArgs([]string{})

	var err error
	out := captureStdout(t, func() { err = cmd.Execute() })
	require.NoError(t, err)
	assert.Contains(t, out, "Dump file not found")
}

func TestDoctorCmd_InvalidDump(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Paths.DumpFile, []byte("{not json"), 0644))

	logger := zerolog.New(io.Discard)
	cmd := NewDoctorCmd(cfg, &logger)
	cmd.SetArgs([]string{})
	cmd.SetErr(io.Discard)

	var err error
	captureStdout(t, func() { err = cmd.Execute() })
	assert.Error(t, err)
}

func TestCheckDirectory(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()

	assert.Error(t, checkDirectory(fs, ""))
	assert.NoError(t, checkDirectory(fs, "/data/pkgstatus"))
	assert.True(t, func() bool { ok, _ := afero.DirExists(fs, "/data/pkgstatus"); return ok }())

	require.NoError(t, afero.WriteFile(fs, "/data/file", []byte("x"), 0644))
	assert.Error(t, checkDirectory(fs, "/data/file"))

	assert.Error(t, checkDirectory(afero.NewReadOnlyFs(afero.NewMemMapFs()), filepath.Join("/", "ro")))
}
