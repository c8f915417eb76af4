package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/fsops"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pkgstatus",
		Short:        "Package status inspector",
		Long:         `Inspect the status, health, dependencies and install progress of packages from a package-data dump.`,
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewImportCmd(cfg, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewInfoCmd(cfg, log))
	cmd.AddCommand(NewCheckCmd(cfg, log))
	cmd.AddCommand(NewWatchCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(cfg, log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

// exitError carries the process exit code for an error
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by a command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return core.ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, context.Canceled):
		return core.ExitInterrupted
	case errors.Is(err, store.ErrNotFound):
		return core.ExitNotFound
	default:
		return core.ExitGeneral
	}
}

// openStore opens the configured store, creating its directory if needed
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if err := fsops.EnsureDir(afero.NewOsFs(), filepath.Dir(cfg.Paths.DBFile), 0755); err != nil {
		return nil, withExit(core.ExitDatabase, err)
	}

	st, err := store.New(ctx, cfg.Paths.DBFile)
	if err != nil {
		return nil, withExit(core.ExitDatabase, fmt.Errorf("open store: %w", err))
	}
	return st, nil
}
