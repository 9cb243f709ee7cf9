package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/executor"
)

const uvInstallScript = "curl -LsSf https://astral.sh/uv/install.sh | sh"

func newUVCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "uv",
		Summary: "Install and maintain the uv package manager",
		Subcommands: []*command.Subcommand{
			app.subcommand("uv", app.newUVInstallCmd),
			app.subcommand("uv", app.newUVUpdateCmd),
			app.subcommand("uv", app.newUVListPythonCmd),
			app.subcommand("uv", app.newUVInstallPythonCmd),
			app.subcommand("uv", app.newUVCleanCacheCmd),
		},
	}, nil
}

// runStep streams an external command, or only prints it when dryRun is set.
func (a *App) runStep(cmd *cobra.Command, dryRun bool, name string, args ...string) error {
	line := executor.Quote(name, args...)
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s\n", line)
		return nil
	}
	a.Log.Info("running", "cmd", line)
	stdio := executor.Stdio{In: a.Stdin, Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}
	code, err := a.Runner.Stream(cmd.Context(), stdio, name, args...)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s exited with status %d", name, code)
	}
	return nil
}

func (a *App) uvVersion(ctx context.Context) (string, bool) {
	path, err := a.Runner.LookPath("uv")
	if err != nil {
		return "", false
	}
	res, err := a.Runner.Capture(ctx, path, "--version")
	if err != nil || res.ExitCode != 0 {
		return "", true
	}
	return executor.FirstLine(res.Stdout), true
}

func (a *App) newUVInstallCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install uv if it is not already on PATH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v, ok := a.uvVersion(cmd.Context()); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "uv is already installed (%s)\n", orDash(v))
				return nil
			}
			return a.runStep(cmd, dryRun, "sh", "-c", uvInstallScript)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newUVUpdateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update uv to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := a.uvVersion(cmd.Context()); !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "uv is not installed; installing instead.")
				return a.runStep(cmd, dryRun, "sh", "-c", uvInstallScript)
			}
			return a.runStep(cmd, dryRun, "uv", "self", "update")
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newUVListPythonCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "list-python",
		Short: "List Python versions known to uv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStep(cmd, dryRun, "uv", "python", "list")
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newUVInstallPythonCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "install-python <version>",
		Short: "Install a Python version with uv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStep(cmd, dryRun, "uv", "python", "install", args[0])
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}

func (a *App) newUVCleanCacheCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clean-cache",
		Short: "Clear the uv cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStep(cmd, dryRun, "uv", "cache", "clean")
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}
