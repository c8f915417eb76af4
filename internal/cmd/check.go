package cmd

import (
	"fmt"
	"sort"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/deps"
	"github.com/quantmind-br/pkgstatus/internal/security"
	"github.com/quantmind-br/pkgstatus/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Recompute dependency errors",
		Long:  `Recompute the dependency errors of every installed package from the current store contents and save the ones that changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open store: %v", err)
				return err
			}
			defer func() { _ = st.Close() }()

			entries, err := st.Entries(ctx)
			if err != nil {
				ui.PrintError("failed to list packages: %v", err)
				return withExit(core.ExitDatabase, fmt.Errorf("list packages: %w", err))
			}

			changed := deps.Apply(entries, log)
			for _, entry := range changed {
				if _, err := st.Put(ctx, entry); err != nil {
					ui.PrintError("failed to save %s: %v", entry.ID(), err)
					return withExit(core.ExitDatabase, err)
				}
			}

			issues := dependencyIssues(entries)

			ui.PrintHeader("Dependency Check")
			fmt.Println()
			ui.PrintKeyValue("Packages", fmt.Sprintf("%d", len(entries)))
			ui.PrintKeyValue("Updated", fmt.Sprintf("%d", len(changed)))
			fmt.Println()

			if len(issues) == 0 {
				ui.PrintSuccess("All dependencies satisfied")
				return nil
			}

			ui.PrintWarning("Found %d dependency issue(s):", len(issues))
			ui.PrintList(issues)

			if strict {
				return fmt.Errorf("%d dependency issue(s)", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any dependency issue remains")

	return cmd
}

// dependencyIssues describes every non-nil dependency error, sorted
func dependencyIssues(entries []*core.PackageDataEntry) []string {
	var issues []string
	for _, entry := range entries {
		if entry.Installed == nil {
			continue
		}
		for depID, depErr := range entry.Installed.Status.DependencyErrors {
			if depErr == nil {
				continue
			}
			issues = append(issues, fmt.Sprintf("%s %s %s: %s", entry.ID(), ui.Arrow, depID, security.CleanText(depErr.String())))
		}
	}
	sort.Strings(issues)
	return issues
}
