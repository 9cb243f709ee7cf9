package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/executor"
)

var requiredTools = []string{"uv", "python3", "git"}

func newEnvCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "env",
		Summary: "Check and repair the Agentic environment",
		Subcommands: []*command.Subcommand{
			app.subcommand("env", app.newEnvCheckCmd),
			app.subcommand("env", app.newEnvFixCmd),
		},
	}, nil
}

func (a *App) newEnvCheckCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify tools, directories and the venv registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.checkEnv(cmd.Context(), cmd.OutOrStdout(), fix)
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Create missing directories")
	return cmd
}

func (a *App) newEnvFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Create missing directories (same as check --fix)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.checkEnv(cmd.Context(), cmd.OutOrStdout(), true)
		},
	}
}

func workspaceDirs(cfg *config.Config) []struct{ label, path string } {
	return []struct{ label, path string }{
		{"Agentic root", cfg.Paths.Root},
		{"Projects", cfg.Paths.Projects},
		{"Temporary files", cfg.Paths.Tmp},
		{"Logs", cfg.Paths.Logs},
		{"Cache", cfg.Paths.Cache},
		{"Backups", cfg.Paths.Backups},
	}
}

func (a *App) checkEnv(ctx context.Context, out io.Writer, fix bool) error {
	cfg, err := a.Store.Config()
	if err != nil {
		return err
	}

	problems := 0
	fmt.Fprintln(out, "Tools:")
	for _, tool := range requiredTools {
		path, err := a.Runner.LookPath(tool)
		if err != nil {
			fmt.Fprintf(out, "  ✗ %s not found on PATH\n", tool)
			problems++
			continue
		}
		ver := ""
		if res, err := a.Runner.Capture(ctx, path, "--version"); err == nil && res.ExitCode == 0 {
			ver = executor.FirstLine(res.Stdout + "\n" + res.Stderr)
		}
		fmt.Fprintf(out, "  ✓ %s %s\n", tool, ver)
	}

	fmt.Fprintln(out, "Directories:")
	for _, d := range workspaceDirs(cfg) {
		info, err := os.Stat(d.path)
		switch {
		case err == nil && info.IsDir():
			fmt.Fprintf(out, "  ✓ %s: %s\n", d.label, d.path)
		case fix && errors.Is(err, os.ErrNotExist):
			if err := os.MkdirAll(d.path, 0o750); err != nil {
				return fmt.Errorf("create %s: %w", d.path, err)
			}
			a.Log.Info("created directory", "path", d.path)
			fmt.Fprintf(out, "  + %s: created %s\n", d.label, d.path)
		default:
			fmt.Fprintf(out, "  ✗ %s missing: %s\n", d.label, d.path)
			problems++
		}
	}

	fmt.Fprintln(out, "Registry:")
	reg, err := a.venvStore(cfg).Load()
	if err != nil {
		fmt.Fprintf(out, "  ✗ %v\n", err)
		problems++
	} else {
		fmt.Fprintf(out, "  ✓ %s (%d environments)\n", cfg.Paths.Registry, len(reg.Environments))
	}

	if problems > 0 {
		return fmt.Errorf("environment check found %d problem(s)", problems)
	}
	fmt.Fprintln(out, "Environment OK")
	return nil
}
