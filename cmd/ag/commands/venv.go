package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/executor"
	"github.com/takumiyoshikawa/agentic/internal/venv"
)

func newVenvCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "venv",
		Summary: "Manage registered Python virtual environments",
		Subcommands: []*command.Subcommand{
			app.subcommand("venv", app.newVenvListCmd),
			app.subcommand("venv", app.newVenvCreateCmd),
			app.subcommand("venv", app.newVenvAddCmd),
			app.subcommand("venv", app.newVenvRemoveCmd),
			app.subcommand("venv", app.newVenvCheckCmd),
			app.subcommand("venv", app.newVenvCleanupCmd),
		},
	}, nil
}

func (a *App) openRegistry() (*config.Config, *venv.Store, *venv.Registry, error) {
	cfg, err := a.Store.Config()
	if err != nil {
		return nil, nil, nil, err
	}
	store := a.venvStore(cfg)
	reg, err := store.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, reg, nil
}

func (a *App) newVenvListCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered virtual environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reg.Environments) == 0 {
				fmt.Fprintln(out, "No virtual environments registered.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if verbose {
				fmt.Fprintln(w, "PROJECT\tPATH\tPYTHON\tCREATED\tSTATUS\tDESCRIPTION")
			} else {
				fmt.Fprintln(w, "PROJECT\tPATH\tPYTHON\tCREATED")
			}
			for _, e := range reg.Sorted() {
				created := humanize.RelTime(e.CreatedAt, a.now(), "ago", "from now")
				if !verbose {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Project, e.Path, orDash(e.PythonVersion), created)
					continue
				}
				status := "ok"
				if err := venv.Verify(e.Path); err != nil {
					status = "broken"
					if _, statErr := os.Stat(e.Path); errors.Is(statErr, os.ErrNotExist) {
						status = "missing"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Project, e.Path, orDash(e.PythonVersion), created, status, orDash(e.Description))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show status and description")
	return cmd
}

func (a *App) newVenvCreateCmd() *cobra.Command {
	var python, path, description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a virtual environment and register it",
		Long: `Create a virtual environment with uv (or python3 -m venv when uv is
missing or the package manager is pip) and add it to the registry. The default
location is <projects_dir>/<name>/<virtual_env_location>.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg, store, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			if python == "" {
				python = cfg.Python.DefaultVersion
			}
			if path == "" {
				path = filepath.Join(cfg.Paths.Projects, name, cfg.Python.VenvDir)
			}
			path, err = filepath.Abs(config.ExpandPath(path))
			if err != nil {
				return err
			}
			if _, ok := reg.Find(path); ok {
				return fmt.Errorf("%w: %s", venv.ErrExists, path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("create parent directory: %w", err)
			}

			if err := a.createVenv(cmd.Context(), cfg, path, python); err != nil {
				return err
			}

			env := venv.Environment{
				Path:          path,
				Project:       name,
				PythonVersion: firstNonEmpty(venv.PythonVersion(path), python),
				Description:   description,
				CreatedAt:     a.now().UTC(),
			}
			if err := reg.Add(env); err != nil {
				return err
			}
			if err := store.Save(reg); err != nil {
				return err
			}
			a.Log.Info("virtual environment created", "path", path, "project", name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created virtual environment %s for %s\n", path, name)
			return nil
		},
	}
	cmd.Flags().StringVar(&python, "python", "", "Python version (default from config)")
	cmd.Flags().StringVar(&path, "path", "", "Location of the environment")
	cmd.Flags().StringVar(&description, "description", "", "Description stored in the registry")
	return cmd
}

func (a *App) createVenv(ctx context.Context, cfg *config.Config, path, python string) error {
	name, args := "python3", []string{"-m", "venv", path}
	if cfg.Python.PackageManager == "uv" {
		if _, err := a.Runner.LookPath("uv"); err == nil {
			name, args = "uv", []string{"venv", path, "--python", python}
		} else {
			a.Log.Warn("uv not found, falling back to python3 -m venv", "err", err)
		}
	}
	if _, err := a.Runner.LookPath(name); err != nil {
		return fmt.Errorf("%s is not installed: %w", name, err)
	}
	a.Log.Debug("running", "cmd", executor.Quote(name, args...))
	res, err := a.Runner.Capture(ctx, name, args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s exited with status %d: %s", name, res.ExitCode, executor.FirstLine(res.Stderr))
	}
	return nil
}

func (a *App) newVenvAddCmd() *cobra.Command {
	var project, description string
	var noVerify bool
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register an existing virtual environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(project) == "" {
				return command.ArgErrorf("--project is required")
			}
			path, err := filepath.Abs(config.ExpandPath(args[0]))
			if err != nil {
				return err
			}
			if !noVerify {
				if err := venv.Verify(path); err != nil {
					return err
				}
			}
			_, store, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			env := venv.Environment{
				Path:          path,
				Project:       project,
				PythonVersion: venv.PythonVersion(path),
				Description:   description,
				CreatedAt:     a.now().UTC(),
			}
			if err := reg.Add(env); err != nil {
				return err
			}
			if err := store.Save(reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s for %s\n", path, project)
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project the environment belongs to (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description stored in the registry")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking that the path is a virtual environment")
	return cmd
}

func (a *App) newVenvRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path|project>",
		Short: "Remove an environment from the registry (files are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			removed, err := reg.Remove(resolveTarget(args[0]))
			if err != nil {
				return err
			}
			if err := store.Save(reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s) from the registry\n", removed.Path, removed.Project)
			return nil
		},
	}
}

func (a *App) newVenvCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path|project>",
		Short: "Verify that a registered environment is usable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			env, ok := reg.Find(resolveTarget(args[0]))
			if !ok {
				return fmt.Errorf("%w: %s", venv.ErrNotFound, args[0])
			}
			if err := venv.Verify(env.Path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) python %s\n", env.Path, env.Project, orDash(venv.PythonVersion(env.Path)))
			return nil
		},
	}
}

func (a *App) newVenvCleanupCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Drop registry entries whose directory no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				missing := reg.Missing()
				for _, e := range missing {
					fmt.Fprintf(out, "Would remove %s (%s)\n", e.Path, e.Project)
				}
				fmt.Fprintf(out, "%d stale entries\n", len(missing))
				return nil
			}
			pruned := reg.Prune()
			for _, e := range pruned {
				fmt.Fprintf(out, "Removed %s (%s)\n", e.Path, e.Project)
			}
			if len(pruned) > 0 {
				if err := store.Save(reg); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%d stale entries removed\n", len(pruned))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report stale entries")
	return cmd
}

// resolveTarget makes path-looking arguments absolute; anything else is
// treated as a project name.
func resolveTarget(arg string) string {
	if !strings.ContainsRune(arg, filepath.Separator) && !strings.HasPrefix(arg, "~") && arg != "." {
		return arg
	}
	if abs, err := filepath.Abs(config.ExpandPath(arg)); err == nil {
		return abs
	}
	return arg
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
