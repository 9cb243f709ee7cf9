package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/cleanup"
	"github.com/takumiyoshikawa/agentic/internal/command"
)

func newCleanupCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "cleanup",
		Summary: "Remove stale files and orphaned environments",
		Subcommands: []*command.Subcommand{
			app.subcommand("cleanup", app.newCleanupTmpCmd),
			app.subcommand("cleanup", app.newCleanupOrphansCmd),
			app.subcommand("cleanup", app.newCleanupDiskUsageCmd),
		},
	}, nil
}

func (a *App) newCleanupTmpCmd() *cobra.Command {
	var days int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "tmp",
		Short: "Delete temporary files older than N days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				return command.ArgErrorf("--days must not be negative")
			}
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			cutoff := a.now().Add(-time.Duration(days) * 24 * time.Hour)
			report, err := cleanup.Tmp(cfg.Paths.Tmp, cutoff, dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			for _, f := range report.Files {
				fmt.Fprintf(out, "%s: %s (%s)\n", verb, f.Path, humanize.Bytes(uint64(f.Size)))
			}
			for _, d := range report.RemovedDirs {
				fmt.Fprintf(out, "Removed empty directory: %s\n", d)
			}
			for _, e := range report.Errors {
				a.Log.Warn("cleanup error", "err", e)
			}
			fmt.Fprintln(out, report.Summary())
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Age threshold in days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be deleted")
	return cmd
}

func (a *App) newCleanupOrphansCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "check-orphaned-venvs",
		Short: "Find virtual environments missing from the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			registered := make(map[string]bool, len(reg.Environments))
			for _, e := range reg.Environments {
				registered[filepath.Clean(e.Path)] = true
			}
			orphans, err := cleanup.Orphans(cfg.Paths.Projects, cfg.Python.VenvDir, registered)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(orphans) == 0 {
				fmt.Fprintln(out, "No orphaned virtual environments found.")
				return nil
			}
			var total int64
			fmt.Fprintf(out, "Found %d orphaned virtual environments:\n", len(orphans))
			for _, o := range orphans {
				total += o.Size
				fmt.Fprintf(out, "  %s (%s)\n", o.Path, humanize.Bytes(uint64(o.Size)))
			}
			fmt.Fprintf(out, "Total size: %s\n", humanize.Bytes(uint64(total)))
			if !remove {
				return nil
			}
			failed := cleanup.Remove(orphans)
			for path, err := range failed {
				a.Log.Error("remove orphaned venv", "path", path, "err", err)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d environments could not be removed", len(failed), len(orphans))
			}
			fmt.Fprintln(out, "Removal complete.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Delete the orphaned environments")
	return cmd
}

func (a *App) newCleanupDiskUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disk-usage",
		Short: "Show disk usage of the Agentic directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			usage := cleanup.DiskUsage([]cleanup.Target{
				{Label: "Temporary files", Path: cfg.Paths.Tmp},
				{Label: "Projects", Path: cfg.Paths.Projects, Breakdown: true},
				{Label: "Cache", Path: cfg.Paths.Cache},
				{Label: "Logs", Path: cfg.Paths.Logs},
				{Label: "Backups", Path: cfg.Paths.Backups},
			})
			out := cmd.OutOrStdout()
			for _, u := range usage {
				fmt.Fprintf(out, "%-16s %s\n", u.Label+":", u.Human())
				for _, c := range u.Children {
					fmt.Fprintf(out, "  %-14s %s\n", c.Label, c.Human())
				}
			}
			return nil
		},
	}
}
