package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/dump"
	"github.com/quantmind-br/pkgstatus/internal/fsops"
	"github.com/quantmind-br/pkgstatus/internal/pkginfo"
	"github.com/quantmind-br/pkgstatus/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, store and dump file",
		Long:  `Check that the configured directories are writable, the store opens and the dump file parses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			ui.PrintHeader("System Diagnostics")
			fmt.Println()

			var issues []string
			var warnings []string

			// 1. Directories
			ui.PrintSubheader("Directory Structure")
			dirs := []struct {
				path string
				name string
			}{
				{cfg.Paths.DataDir, "Data directory"},
				{filepath.Dir(cfg.Paths.DBFile), "Database directory"},
				{filepath.Dir(cfg.Paths.LogFile), "Log directory"},
			}

			for _, dir := range dirs {
				if err := checkDirectory(fs, dir.path); err != nil {
					ui.PrintError("%s: NOT ACCESSIBLE (%s)", dir.name, dir.path)
					issues = append(issues, fmt.Sprintf("Directory not accessible: %s (%v)", dir.path, err))
				} else {
					ui.PrintSuccess("%s: %s", dir.name, dir.path)
				}
			}

			fmt.Println()

			// 2. Store
			ui.PrintSubheader("Store")
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				ui.PrintError("Store: NOT ACCESSIBLE")
				issues = append(issues, fmt.Sprintf("Cannot open store: %v", err))
			} else {
				defer func() { _ = st.Close() }()
				ui.PrintSuccess("Store: accessible (%s)", st.Path())

				entries, err := st.Entries(ctx)
				if err != nil {
					ui.PrintWarning("Cannot list packages: %v", err)
					warnings = append(warnings, "Cannot list packages")
				} else {
					failing := 0
					for _, info := range pkginfo.GetAll(entries) {
						if info.Error {
							failing++
						}
					}
					ui.PrintInfo("Packages: %d", len(entries))
					if failing > 0 {
						ui.PrintWarning("Packages with issues: %d", failing)
						warnings = append(warnings, fmt.Sprintf("%d package(s) report failing health checks or dependency issues", failing))
					}
				}
			}

			fmt.Println()

			// 3. Dump file
			ui.PrintSubheader("Dump File")
			switch {
			case cfg.Paths.DumpFile == "":
				ui.PrintWarning("paths.dump_file is not set")
				warnings = append(warnings, "No dump file configured")
			case !fsops.Exists(fs, cfg.Paths.DumpFile):
				ui.PrintWarning("Dump file: not found (%s)", cfg.Paths.DumpFile)
				warnings = append(warnings, fmt.Sprintf("Dump file not found: %s", cfg.Paths.DumpFile))
			default:
				db, err := dump.Load(fs, cfg.Paths.DumpFile)
				if err != nil {
					ui.PrintError("Dump file: INVALID (%s)", cfg.Paths.DumpFile)
					issues = append(issues, fmt.Sprintf("Cannot parse dump file: %v", err))
				} else {
					ui.PrintSuccess("Dump file: %s (%d packages)", cfg.Paths.DumpFile, len(db.PackageData))
				}
			}

			fmt.Println()

			// 4. Configuration
			ui.PrintSubheader("Configuration")
			ui.PrintKeyValue("Log level", cfg.Logging.Level)
			ui.PrintKeyValue("Color", cfg.Logging.Color)
			ui.PrintKeyValue("Watch debounce", cfg.Watch.Debounce.String())
			if v := os.Getenv("NO_COLOR"); v != "" {
				ui.PrintInfo("NO_COLOR is set; colors disabled")
			}

			fmt.Println()

			// Summary
			ui.PrintHeader("Summary")
			fmt.Println()

			if len(issues) == 0 {
				ui.PrintSuccess("All critical checks passed!")
			} else {
				ui.PrintError("Found %d issue(s):", len(issues))
				ui.PrintList(issues)
				fmt.Println()
			}

			if len(warnings) > 0 {
				ui.PrintWarning("Found %d warning(s):", len(warnings))
				ui.PrintList(warnings)
			}

			fmt.Println()

			log.Debug().Int("issues", len(issues)).Int("warnings", len(warnings)).Msg("doctor finished")

			if len(issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(issues))
			}

			return nil
		},
	}

	return cmd
}

// checkDirectory creates path if missing and checks it is a writable directory
func checkDirectory(fs afero.Fs, path string) error {
	if path == "" {
		return fmt.Errorf("path not set")
	}
	if !fsops.Exists(fs, path) {
		if err := fsops.EnsureDir(fs, path, 0755); err != nil {
			return err
		}
	}
	if !fsops.IsDir(fs, path) {
		return fmt.Errorf("not a directory")
	}
	return fsops.CheckWritable(fs, path)
}
