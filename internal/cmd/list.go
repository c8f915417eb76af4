package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
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
	"gopkg.in/yaml.v3"
)

// listItem is one row of list output
type listItem struct {
	ID         string                  `json:"id" yaml:"id"`
	Title      string                  `json:"title" yaml:"title"`
	Version    string                  `json:"version" yaml:"version"`
	State      core.PackageState       `json:"state" yaml:"state"`
	Status     status.PrimaryStatus    `json:"status" yaml:"status"`
	Display    string                  `json:"display" yaml:"display"`
	Health     status.HealthStatus     `json:"health,omitempty" yaml:"health,omitempty"`
	Dependency status.DependencyStatus `json:"dependency,omitempty" yaml:"dependency,omitempty"`
	Error      bool                    `json:"error" yaml:"error"`
	Progress   *progress.ProgressData  `json:"progress,omitempty" yaml:"progress,omitempty"`
	Revision   int64                   `json:"revision" yaml:"revision"`

	rendering status.StatusRendering
	record    store.Record
}

// NewListCmd creates the list command
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput  bool
		yamlOutput  bool
		filterName  string
		errorsOnly  bool
		sortBy      string
		showDetails bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages",
		Long:  `List packages with their status, health, dependency state and install progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput && yamlOutput {
				return withExit(core.ExitInvalidArgs, fmt.Errorf("--json and --yaml are mutually exclusive"))
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open store: %v", err)
				return err
			}
			defer func() { _ = st.Close() }()

			records, err := st.List(ctx)
			if err != nil {
				ui.PrintError("failed to list packages: %v", err)
				return withExit(core.ExitDatabase, fmt.Errorf("list packages: %w", err))
			}

			items := buildListItems(records, log)
			filtered := filterItems(items, filterName, errorsOnly)
			sortItems(filtered, sortBy)

			out := cmd.OutOrStdout()
			switch {
			case jsonOutput:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			case yamlOutput:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(filtered); err != nil {
					return err
				}
				return enc.Close()
			}

			if len(filtered) == 0 {
				if filterName != "" || errorsOnly {
					ui.PrintWarning("No packages found matching filters")
				} else {
					ui.PrintInfo("No packages in store; run 'pkgstatus import' first")
				}
				return nil
			}

			printSummary(items, filtered)

			if showDetails {
				printDetailedTable(cmd, filtered)
			} else {
				printCompactTable(cmd, filtered)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "output in YAML format")
	cmd.Flags().StringVar(&filterName, "name", "", "filter by package id or title (fuzzy match)")
	cmd.Flags().BoolVar(&errorsOnly, "errors", false, "only show packages with failing health checks or dependency issues")
	cmd.Flags().StringVar(&sortBy, "sort", "name", "sort by: name, id, status, progress")
	cmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show detailed information")

	return cmd
}

func buildListItems(records []store.Record, log *zerolog.Logger) []listItem {
	items := make([]listItem, 0, len(records))
	for _, rec := range records {
		info := pkginfo.GetPackageInfo(rec.Entry)
		statuses := status.Render(rec.Entry)

		if _, ok := status.LookupPrimaryRendering(statuses.Primary); !ok {
			log.Warn().
				Str("package", rec.ID).
				Str("status", string(statuses.Primary)).
				Msg("no rendering for primary status")
		}

		items = append(items, listItem{
			ID:         rec.ID,
			Title:      titleOf(rec.Entry),
			Version:    rec.Entry.Manifest.Version,
			State:      rec.Entry.State,
			Status:     statuses.Primary,
			Display:    info.PrimaryRendering.Display,
			Health:     statuses.Health,
			Dependency: statuses.Dependency,
			Error:      info.Error,
			Progress:   info.InstallProgress,
			Revision:   rec.Revision,
			rendering:  info.PrimaryRendering,
			record:     rec,
		})
	}
	return items
}

// titleOf returns the printable title of entry, falling back to its id
func titleOf(entry *core.PackageDataEntry) string {
	if title := security.CleanText(entry.Manifest.Title); title != "" {
		return title
	}
	return entry.ID()
}

// filterItems filters by fuzzy name and error state
func filterItems(items []listItem, filterName string, errorsOnly bool) []listItem {
	filtered := make([]listItem, 0, len(items))
	name := strings.TrimSpace(filterName)

	for _, item := range items {
		if errorsOnly && !item.Error {
			continue
		}
		if name != "" &&
			!fuzzy.MatchNormalizedFold(name, item.ID) &&
			!fuzzy.MatchNormalizedFold(name, item.Title) {
			continue
		}
		filtered = append(filtered, item)
	}

	return filtered
}

// sortItems sorts items by the specified field, falling back to title
func sortItems(items []listItem, sortBy string) {
	byTitle := func(i, j int) bool {
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	}

	switch strings.ToLower(sortBy) {
	case "id":
		sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	case "status":
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Status == items[j].Status {
				return byTitle(i, j)
			}
			return items[i].Status < items[j].Status
		})
	case "progress":
		sort.SliceStable(items, func(i, j int) bool {
			pi, pj := progressOf(items[i]), progressOf(items[j])
			if pi == pj {
				return byTitle(i, j)
			}
			return pi < pj
		})
	default:
		sort.SliceStable(items, byTitle)
	}
}

// progressOf orders packages without progress data after all others
func progressOf(item listItem) int {
	if item.Progress == nil {
		return 101
	}
	return item.Progress.TotalProgress
}

// printSummary prints counts by primary status in display order
func printSummary(all, filtered []listItem) {
	counts := make(map[status.PrimaryStatus]int)
	unknown := 0
	errCount := 0
	for _, item := range all {
		if _, ok := status.LookupPrimaryRendering(item.Status); ok {
			counts[item.Status]++
		} else {
			unknown++
		}
		if item.Error {
			errCount++
		}
	}

	ui.PrintHeader("Packages")

	fmt.Printf("Total: %d packages", len(all))
	if len(filtered) != len(all) {
		fmt.Printf(" (showing %d filtered)", len(filtered))
	}
	if errCount > 0 {
		fmt.Printf(", %s", ui.Error.Sprintf("%d with issues", errCount))
	}
	fmt.Println()

	var parts []string
	for _, p := range status.PrimaryStatuses() {
		if n := counts[p]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", status.PrimaryRendering(p).Display, n))
		}
	}
	if unknown > 0 {
		parts = append(parts, fmt.Sprintf("%s: %d", status.UnknownRendering.Display, unknown))
	}
	if len(parts) > 0 {
		fmt.Printf("  %s\n", strings.Join(parts, " | "))
	}

	fmt.Println()
}

func healthCell(h status.HealthStatus) string {
	r, ok := status.HealthRendering(h)
	return ui.Badge(r, ok)
}

func dependencyCell(d status.DependencyStatus) string {
	r, ok := status.DependencyRendering(d)
	return ui.Badge(r, ok)
}

// printCompactTable prints a compact table view
func printCompactTable(cmd *cobra.Command, items []listItem) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Name", "Version", "Status", "Health", "Dependencies", "Progress"}),
		tablewriter.WithAlignment(tw.MakeAlign(6, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, item := range items {
		table.Append(
			item.Title,
			orDash(item.Version),
			ui.ColorizeRendering(item.rendering),
			healthCell(item.Health),
			dependencyCell(item.Dependency),
			ui.ProgressSummary(item.Progress),
		)
	}

	table.Render()
}

// printDetailedTable prints a detailed table view
func printDetailedTable(cmd *cobra.Command, items []listItem) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"ID", "Name", "Version", "State", "Status", "Health", "Dependencies", "Progress", "Revision", "Updated"}),
		tablewriter.WithAlignment(tw.MakeAlign(10, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)

	for _, item := range items {
		table.Append(
			item.ID,
			item.Title,
			orDash(item.Version),
			string(item.State),
			ui.ColorizeRendering(item.rendering),
			healthCell(item.Health),
			dependencyCell(item.Dependency),
			ui.ProgressSummary(item.Progress),
			fmt.Sprintf("%d", item.Revision),
			item.record.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}

	table.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
