package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/venv"
)

func newSetupCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "setup",
		Summary: "Prepare a fresh Agentic workspace",
		Subcommands: []*command.Subcommand{
			app.subcommand("setup", app.newSetupInstallDepsCmd),
			app.subcommand("setup", app.newSetupDirsCmd),
			app.subcommand("setup", app.newSetupRegistryCmd),
			app.subcommand("setup", app.newSetupAllCmd),
		},
	}, nil
}

func (a *App) newSetupInstallDepsCmd() *cobra.Command {
	var dryRun, update bool
	cmd := &cobra.Command{
		Use:   "install-dependencies",
		Short: "Install uv and report the status of every dependency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			m, err := a.dependencies()
			if err != nil {
				return err
			}
			switch v, ok := a.uvVersion(cmd.Context()); {
			case ok && update:
				fmt.Fprintf(out, "uv is already installed (%s); updating\n", orDash(v))
				if err := a.runStep(cmd, dryRun, "uv", "self", "update"); err != nil {
					return err
				}
			case ok:
				fmt.Fprintf(out, "✓ uv is already installed (%s)\n", orDash(v))
			default:
				script, err := m.InstallScript("uv")
				if err != nil {
					return err
				}
				if err := a.runStep(cmd, dryRun, "sh", "-c", script); err != nil {
					return err
				}
			}
			if dryRun {
				return nil
			}

			var problems int
			for _, st := range m.CheckAll(cmd.Context()) {
				mark := "✓"
				if !st.OK() {
					mark = "✗"
					problems++
				}
				fmt.Fprintf(out, "%s %s %s (%s)\n", mark, st.Name, orDash(st.Version), dependencyState(st))
			}
			if problems > 0 {
				return fmt.Errorf("%d dependency problem(s); see 'ag dependency list'", problems)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the commands instead of running them")
	cmd.Flags().BoolVar(&update, "update", false, "Update uv when it is already installed")
	return cmd
}

func (a *App) newSetupDirsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-directories",
		Short: "Create the workspace directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			return a.createDirectories(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *App) newSetupRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initialize-registry",
		Short: "Create an empty virtual environment registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			return a.initializeRegistry(cmd.OutOrStdout(), cfg)
		},
	}
}

func (a *App) newSetupAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Create directories, registry and configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			if err := a.createDirectories(out, cfg); err != nil {
				return err
			}
			if err := a.initializeRegistry(out, cfg); err != nil {
				return err
			}
			if _, err := os.Stat(a.Store.Path()); errors.Is(err, os.ErrNotExist) {
				if err := a.Store.Reset(); err != nil {
					return err
				}
				if err := a.Store.Save(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote configuration %s\n", a.Store.Path())
			}
			if v, ok := a.uvVersion(cmd.Context()); ok {
				fmt.Fprintf(out, "uv found (%s)\n", orDash(v))
			} else {
				fmt.Fprintln(out, "uv not found; run 'ag uv install'")
			}
			fmt.Fprintln(out, "Setup complete.")
			return nil
		},
	}
}

func (a *App) createDirectories(out io.Writer, cfg *config.Config) error {
	for _, d := range workspaceDirs(cfg) {
		if err := os.MkdirAll(d.path, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", d.path, err)
		}
		fmt.Fprintf(out, "✓ %s: %s\n", d.label, d.path)
	}
	return nil
}

func (a *App) initializeRegistry(out io.Writer, cfg *config.Config) error {
	store := a.venvStore(cfg)
	if _, err := os.Stat(store.Path); err == nil {
		reg, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Registry already exists: %s (%d environments)\n", store.Path, len(reg.Environments))
		return nil
	}
	if err := store.Save(&venv.Registry{Environments: []venv.Environment{}}); err != nil {
		return err
	}
	a.Log.Info("registry initialized", "path", store.Path)
	fmt.Fprintf(out, "Created registry %s\n", store.Path)
	return nil
}
