package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/pkginfo"
	"github.com/quantmind-br/pkgstatus/internal/progress"
	"github.com/quantmind-br/pkgstatus/internal/security"
	"github.com/quantmind-br/pkgstatus/internal/status"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/quantmind-br/pkgstatus/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command
func NewInfoCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [package-id]",
		Short: "Show package information",
		Long: `Show status, health checks, dependency errors and install progress of a package.
Without an id, select the package interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open store: %v", err)
				return err
			}
			defer func() { _ = st.Close() }()

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = selectPackage(ctx, st)
				if err != nil {
					if errors.Is(err, ui.ErrCancelled) {
						return withExit(core.ExitInterrupted, err)
					}
					ui.PrintError("%v", err)
					return err
				}
			}

			rec, err := findRecord(ctx, st, id, log)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ui.PrintError("package not found: %s", id)
					ui.PrintInfo("Use 'pkgstatus list' to see known packages")
					return err
				}
				ui.PrintError("failed to query store: %v", err)
				return withExit(core.ExitDatabase, err)
			}

			printPackageInfo(cmd.OutOrStdout(), rec)

			log.Debug().
				Str("package", rec.ID).
				Int64("revision", rec.Revision).
				Msg("displayed package info")

			return nil
		},
	}

	return cmd
}

// selectPackage prompts for a package with fuzzy search
func selectPackage(ctx context.Context, st *store.Store) (string, error) {
	records, err := st.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list packages: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: store is empty", store.ErrNotFound)
	}

	options := make([]ui.SelectOption, 0, len(records))
	for _, rec := range records {
		info := pkginfo.GetPackageInfo(rec.Entry)
		options = append(options, ui.SelectOption{
			Label:  titleOf(rec.Entry),
			Detail: info.PrimaryRendering.Display,
			Value:  rec.ID,
		})
	}

	_, opt, err := ui.SelectPromptDetailed("Select package", options)
	if err != nil {
		return "", err
	}
	return opt.Value, nil
}

// findRecord looks a package up by id, then by title (case-insensitive)
func findRecord(ctx context.Context, st *store.Store, identifier string, log *zerolog.Logger) (*store.Record, error) {
	rec, err := st.Get(ctx, identifier)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	log.Debug().
		Str("identifier", identifier).
		Msg("not found by id, trying by title")

	records, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	for i := range records {
		if strings.EqualFold(records[i].Entry.Manifest.Title, identifier) {
			return &records[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", store.ErrNotFound, identifier)
}

// printPackageInfo displays detailed package information
func printPackageInfo(w io.Writer, rec *store.Record) {
	entry := rec.Entry
	info := pkginfo.GetPackageInfo(entry)
	statuses := status.Render(entry)

	ui.PrintHeader(fmt.Sprintf("Package Information: %s", titleOf(entry)))
	fmt.Println()

	ui.PrintKeyValue("ID", rec.ID)
	ui.PrintKeyValue("Version", orDash(entry.Manifest.Version))
	ui.PrintKeyValue("State", string(entry.State))
	ui.PrintKeyValue("Status", ui.ColorizeRendering(info.PrimaryRendering))
	ui.PrintKeyValue("Health", healthCell(statuses.Health))
	ui.PrintKeyValue("Dependencies", dependencyCell(statuses.Dependency))
	if info.Error {
		ui.PrintKeyValue("Issues", ui.CrossMark+" "+ui.Error.Sprint("yes"))
	}
	ui.PrintKeyValue("Revision", fmt.Sprintf("%d", rec.Revision))
	ui.PrintKeyValue("Updated", rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if entry.Installed != nil {
		if started := entry.Installed.Status.Main.Started; started != nil {
			ui.PrintKeyValue("Started", started.Local().Format(time.RFC3339))
		}
		printHealthChecks(entry)
		printDependencies(entry)
	}

	if info.InstallProgress != nil {
		printInstallProgress(w, info.InstallProgress)
	}

	fmt.Println()
}

func printHealthChecks(entry *core.PackageDataEntry) {
	health := entry.Installed.Status.Main.Health
	if len(health) == 0 {
		return
	}

	fmt.Println()
	ui.PrintSubheader("Health Checks")

	ids := make([]string, 0, len(health))
	for id := range health {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		res := health[id]
		name := res.Name
		if hc, ok := entry.Manifest.HealthChecks[id]; ok && name == "" {
			name = hc.Name
		}
		if name == "" {
			name = id
		}

		line := fmt.Sprintf("%s: %s", security.CleanText(name), colorizeResult(res.Result))
		if res.Message != "" {
			line += " " + ui.Muted.Sprint(security.CleanText(res.Message))
		} else if hc, ok := entry.Manifest.HealthChecks[id]; ok && res.Result == core.HealthResultSuccess && hc.SuccessMessage != "" {
			line += " " + ui.Muted.Sprint(security.CleanText(hc.SuccessMessage))
		}
		lines = append(lines, line)
	}
	ui.PrintList(lines)
}

func colorizeResult(r core.HealthResult) string {
	switch r {
	case core.HealthResultSuccess:
		return ui.SprintSuccess("%s", r)
	case core.HealthResultFailure:
		return ui.CrossMark + " " + ui.Error.Sprint(string(r))
	case core.HealthResultStarting, core.HealthResultLoading:
		return ui.Warning.Sprint(string(r))
	default:
		return ui.Muted.Sprint(string(r))
	}
}

func printDependencies(entry *core.PackageDataEntry) {
	reqs := entry.Installed.Manifest.Dependencies
	if len(reqs) == 0 {
		reqs = entry.Manifest.Dependencies
	}
	if len(reqs) == 0 {
		return
	}

	fmt.Println()
	ui.PrintSubheader("Dependencies")

	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	errs := entry.Installed.Status.DependencyErrors
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		req := reqs[id]
		line := id
		if req.Version != "" {
			line += " " + ui.Muted.Sprint(security.CleanText(req.Version))
		}
		if req.Optional != "" {
			line += " " + ui.Muted.Sprint("(optional)")
		}

		if depErr := errs[id]; depErr != nil {
			line += ": " + ui.CrossMark + " " + ui.Error.Sprint(security.CleanText(depErr.String()))
		} else {
			line += ": " + ui.SprintSuccess("satisfied")
		}
		lines = append(lines, line)
	}
	ui.PrintList(lines)
}

func printInstallProgress(w io.Writer, data *progress.ProgressData) {
	fmt.Println()
	ui.PrintSubheader("Install Progress")

	phases := []struct {
		name    string
		percent int
	}{
		{"Download", data.DownloadProgress},
		{"Validate", data.ValidateProgress},
		{"Unpack", data.UnpackProgress},
		{"Total", data.TotalProgress},
	}

	for _, phase := range phases {
		bar := ui.NewProgressBar(w, fmt.Sprintf("%-8s", phase.name))
		_ = bar.Set(phase.percent)
		fmt.Fprintln(w)
	}
}
