package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/quantmind-br/pkgstatus/internal/config"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/logging"
	"github.com/quantmind-br/pkgstatus/internal/pkginfo"
	"github.com/quantmind-br/pkgstatus/internal/store"
	"github.com/quantmind-br/pkgstatus/internal/ui"
	"github.com/quantmind-br/pkgstatus/internal/watcher"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var dumpPath string

	cmd := &cobra.Command{
		Use:   "watch [package-id]",
		Short: "Follow package status changes",
		Long: `Watch the dump file, sync it into the store whenever it changes and print
status updates for every package, or only for the given one. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := dumpPath
			if path == "" {
				path = cfg.Paths.DumpFile
			}
			if path == "" {
				ui.PrintError("no dump file given and paths.dump_file is not set")
				return withExit(core.ExitInvalidArgs, fmt.Errorf("dump file required"))
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve dump path: %w", err)
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				ui.PrintError("failed to open store: %v", err)
				return err
			}
			defer func() { _ = st.Close() }()

			return runWatch(ctx, cmd.OutOrStdout(), st, watcher.Config{
				Path:     abs,
				Debounce: cfg.Watch.Debounce,
			}, id, logging.Component(log, "watch"))
		},
	}

	cmd.Flags().StringVar(&dumpPath, "dump", "", "dump file to watch (default paths.dump_file)")

	return cmd
}

// runWatch prints changes to id (all packages when empty) until ctx is done
func runWatch(ctx context.Context, out io.Writer, st *store.Store, wcfg watcher.Config, id string, log *zerolog.Logger) error {
	sub := st.Subscribe(ctx, id)
	defer sub.Close()
	log.Debug().
		Str("subscription", sub.ID).
		Str("package", id).
		Int("subscribers", st.Subscribers()).
		Msg("subscribed to store changes")

	fs := afero.NewOsFs()
	syncDump := func(ctx context.Context) error {
		_, err := importDump(ctx, fs, st, wcfg.Path, true, nil, log)
		return err
	}

	w, err := watcher.New(wcfg, syncDump, log)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	if err := syncDump(ctx); err != nil {
		// the dump may not exist yet; the watcher picks it up once written
		log.Warn().Err(err).Str("path", wcfg.Path).Msg("initial sync failed")
	}

	printer := &watchPrinter{out: out, id: id}
	defer printer.finish()

	// C is closed once ctx is done
	for evt := range sub.C {
		printer.print(evt)
	}
	return nil
}

// watchPrinter renders store events as status lines. When following a
// single package it draws a progress bar while that package installs.
type watchPrinter struct {
	out io.Writer
	id  string
	bar *ui.InstallProgressBar
}

func (p *watchPrinter) print(evt store.Event) {
	stamp := ui.Muted.Sprint(time.Now().Format("15:04:05"))

	if evt.Type == store.EventDelete {
		p.finish()
		fmt.Fprintf(p.out, "%s %s %s\n", stamp, evt.ID, ui.Warning.Sprint("removed"))
		return
	}

	info := pkginfo.GetPackageInfo(evt.Entry)

	if p.id != "" && info.InstallProgress != nil {
		if p.bar == nil {
			p.bar = ui.NewInstallProgressBar(p.out, evt.ID)
		}
		_ = p.bar.Update(info.InstallProgress)
		if !info.InstallProgress.IsComplete {
			return
		}
		p.bar = nil
	} else {
		p.finish()
	}

	line := fmt.Sprintf("%s %s %s", stamp, evt.ID, ui.ColorizeRendering(info.PrimaryRendering))
	if info.InstallProgress != nil && p.id == "" {
		line += " " + ui.ProgressSummary(info.InstallProgress)
	}
	if info.Error {
		line += " " + ui.CrossMark
	}
	fmt.Fprintln(p.out, line)
}

// finish leaves an unfinished bar on its own line
func (p *watchPrinter) finish() {
	if p.bar != nil {
		fmt.Fprintln(p.out)
		p.bar = nil
	}
}
