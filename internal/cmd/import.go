package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/deps"
	"github.com/quantmind-br/pkgstatus/internal/dump"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/quantmind-br/pkgstatus/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewImportCmd creates the import command
func NewImportCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		skipCheck bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "import [dump-file]",
		Short: "Import a package-data dump",
		Long: `Import a package-data dump (JSON or YAML, optionally xz-compressed) into the store.
Packages missing from the dump are removed after confirmation (skip it with --yes).
Defaults to paths.dump_file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Paths.DumpFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				ui.PrintError("no dump file given and paths.dump_file is not set")
				return withExit(core.ExitInvalidArgs, fmt.Errorf("dump file required"))
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				ui.PrintError("failed to open store: %v", err)
				return err
			}
			defer func() { _ = st.Close() }()

			var confirm confirmRemoval
			if !yes {
				confirm = promptRemoval
			}

			result, err := importDump(cmd.Context(), afero.NewOsFs(), st, path, !skipCheck, confirm, log)
			if errors.Is(err, errRemovalDeclined) || errors.Is(err, ui.ErrCancelled) {
				ui.PrintWarning("Import cancelled. No packages were changed.")
				return nil
			}
			if err != nil {
				ui.PrintError("import failed: %v", err)
				return err
			}

			if !result.Changed() {
				ui.PrintInfo("Store already up to date (%s)", path)
				return nil
			}

			ui.PrintSuccess("Imported %s", path)
			ui.PrintKeyValue("Updated", fmt.Sprintf("%d", len(result.Updated)))
			ui.PrintKeyValue("Removed", fmt.Sprintf("%d", len(result.Deleted)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "keep dependency errors from the dump instead of recomputing them")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "remove packages missing from the dump without asking")

	return cmd
}

var errRemovalDeclined = errors.New("package removal declined")

// confirmRemoval is asked before a sync removes the stored packages ids
type confirmRemoval func(ids []string) (bool, error)

func promptRemoval(ids []string) (bool, error) {
	ui.PrintWarning("%d stored package(s) are missing from the dump: %s", len(ids), strings.Join(ids, ", "))
	return ui.ConfirmPrompt("Remove them from the store")
}

// importDump loads the dump at path and syncs it into st. A nil confirm
// removes missing packages without asking.
func importDump(ctx context.Context, fs afero.Fs, st *store.Store, path string, check bool, confirm confirmRemoval, log *zerolog.Logger) (store.SyncResult, error) {
	db, err := dump.Load(fs, path)
	if err != nil {
		return store.SyncResult{}, fmt.Errorf("load dump: %w", err)
	}

	entries := dump.Entries(db)
	if check {
		deps.Apply(entries, log)
	}

	if confirm != nil {
		missing, err := missingIDs(ctx, st, entries)
		if err != nil {
			return store.SyncResult{}, err
		}
		if len(missing) > 0 {
			ok, err := confirm(missing)
			if err != nil {
				return store.SyncResult{}, err
			}
			if !ok {
				return store.SyncResult{}, errRemovalDeclined
			}
		}
	}

	result, err := st.Sync(ctx, entries)
	if err != nil {
		return result, withExit(core.ExitDatabase, fmt.Errorf("sync store: %w", err))
	}

	log.Info().
		Str("path", path).
		Int("packages", len(entries)).
		Int("updated", len(result.Updated)).
		Int("deleted", len(result.Deleted)).
		Msg("imported dump")

	return result, nil
}

// missingIDs lists stored packages absent from entries, sorted
func missingIDs(ctx context.Context, st *store.Store, entries []*core.PackageDataEntry) ([]string, error) {
	records, err := st.List(ctx)
	if err != nil {
		return nil, withExit(core.ExitDatabase, err)
	}

	wanted := make(map[string]bool, len(entries))
	for _, entry := range entries {
		wanted[entry.ID()] = true
	}

	var missing []string
	for _, rec := range records {
		if !wanted[rec.ID] {
			missing = append(missing, rec.ID)
		}
	}
	return missing, nil
}
