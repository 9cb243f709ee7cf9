package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/dependency"
)

func newDependencyCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "dependency",
		Summary: "Check and install the external tools ag relies on",
		Subcommands: []*command.Subcommand{
			app.subcommand("dependency", app.newDependencyCheckCmd),
			app.subcommand("dependency", app.newDependencyInstallCmd),
			app.subcommand("dependency", app.newDependencyUpdateCmd),
			app.subcommand("dependency", app.newDependencyListCmd),
			app.subcommand("dependency", app.newDependencyFallbackCmd),
		},
	}, nil
}

func (a *App) dependencies() (*dependency.Manager, error) {
	cfg, err := a.Store.Config()
	if err != nil {
		return nil, err
	}
	return dependency.NewManager(cfg.Dependencies, a.Runner), nil
}

// unknownDependency turns a lookup miss into a bad-arguments error.
func unknownDependency(err error) error {
	if errors.Is(err, dependency.ErrUnknown) {
		return &command.ArgumentError{Err: err}
	}
	return err
}

func (a *App) newDependencyCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <dependency>",
		Short: "Check that a dependency is installed and new enough",
		Long: `Check that a dependency is installed and meets its minimum version. The
result is printed as JSON; the exit status is 1 when the check fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.dependencies()
			if err != nil {
				return err
			}
			if _, ok := m.Specs[args[0]]; !ok {
				return command.ArgErrorf("unknown dependency %q (known: %v)", args[0], m.Names())
			}
			st := m.Check(cmd.Context(), args[0])
			if err := writeJSON(cmd.OutOrStdout(), st); err != nil {
				return err
			}
			if !st.OK() {
				a.Log.Warn("dependency check failed", "name", st.Name, "version", st.Version, "min", st.MinVersion)
				return command.Exit(int(command.ExitFailure))
			}
			return nil
		},
	}
}

func (a *App) installDependency(cmd *cobra.Command, name string, dryRun bool) error {
	m, err := a.dependencies()
	if err != nil {
		return err
	}
	script, err := m.InstallScript(name)
	if err != nil {
		return unknownDependency(err)
	}
	return a.runStep(cmd, dryRun, "sh", "-c", script)
}

func (a *App) newDependencyInstallCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install <dependency>",
		Short: "Install a dependency with its configured command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.installDependency(cmd, args[0], dryRun); err != nil {
				return err
			}
			if !dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newDependencyUpdateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "update <dependency>",
		Short: "Update a dependency to the recommended version",
		Long: `Update a dependency by running its install command again; the installers
fetch the latest release.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.installDependency(cmd, args[0], dryRun); err != nil {
				return err
			}
			if !dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newDependencyListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dependencies and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.dependencies()
			if err != nil {
				return err
			}
			statuses := m.CheckAll(cmd.Context())
			if asJSON {
				byName := make(map[string]dependency.Status, len(statuses))
				for _, st := range statuses {
					byName[st.Name] = st
				}
				return writeJSON(cmd.OutOrStdout(), byName)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tMIN\tRECOMMENDED\tSTATUS")
			for _, st := range statuses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					st.Name, orDash(st.Version), orDash(st.MinVersion), orDash(st.RecommendedVersion), dependencyState(st))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statuses as JSON")
	return cmd
}

func dependencyState(st dependency.Status) string {
	switch {
	case st.Error != "":
		return "error: " + st.Error
	case !st.Installed:
		return "missing"
	case !st.MeetsMin:
		return "too old"
	case !st.IsRecommended && st.RecommendedVersion != "":
		return "ok (update recommended)"
	}
	return "ok"
}

func (a *App) newDependencyFallbackCmd() *cobra.Command {
	var fa dependency.FallbackArgs
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fallback <dependency> <action>",
		Short: "Perform an action without a missing dependency",
		Long: `Perform an action with a stand-in for a missing dependency. For uv:

  install-package  pip install --package into --venv (or the active pip)
  create-venv      python -m venv at --venv, preferring python<--python>`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.dependencies()
			if err != nil {
				return err
			}
			inv, err := m.Fallback(args[0], args[1], fa)
			if err != nil {
				return &command.ArgumentError{Err: err}
			}
			a.Log.Info("using fallback", "dependency", args[0], "action", args[1])
			if err := a.runStep(cmd, dryRun, inv.Name, inv.Args...); err != nil {
				return err
			}
			if !dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s done using the %s fallback\n", args[1], args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fa.Package, "package", "", "Package to install (install-package)")
	cmd.Flags().StringVar(&fa.VenvPath, "venv", "", "Virtual environment path")
	cmd.Flags().StringVar(&fa.PythonVersion, "python", "", "Python version (create-venv)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}
