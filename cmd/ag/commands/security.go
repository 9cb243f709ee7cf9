package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/security"
)

func newSecurityCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "security",
		Summary: "Check paths, commands and files against security policy",
		Subcommands: []*command.Subcommand{
			app.subcommand("security", app.newSecurityCheckPathCmd),
			app.subcommand("security", app.newSecurityValidateCommandCmd),
			app.subcommand("security", app.newSecurityScanFileCmd),
			app.subcommand("security", app.newSecurityHashFileCmd),
			app.subcommand("security", app.newSecurityVerifyIntegrityCmd),
		},
	}, nil
}

func (a *App) checker() (*security.Checker, error) {
	cfg, err := a.Store.Config()
	if err != nil {
		return nil, err
	}
	return security.New(cfg, a.Log), nil
}

func (a *App) newSecurityCheckPathCmd() *cobra.Command {
	var operation string
	cmd := &cobra.Command{
		Use:   "check-path <path>",
		Short: "Check whether a path lies inside an allowed area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.checker()
			if err != nil {
				return err
			}
			if err := c.ValidatePath(args[0], operation); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Path is allowed: %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&operation, "operation", "access", "Operation recorded in the event log")
	return cmd
}

func (a *App) newSecurityValidateCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-command <command...>",
		Short: "Check a shell command against the dangerous-command list",
		// The command under test is taken verbatim, flags included.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "--help" || args[0] == "-h") {
				return cmd.Help()
			}
			if len(args) == 0 {
				return command.ArgErrorf("validate-command needs a command to check")
			}
			c, err := a.checker()
			if err != nil {
				return err
			}
			line := strings.Join(args, " ")
			warnings, err := c.ValidateCommand(line)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "Warning: %s\n", w)
			}
			fmt.Fprintf(out, "Command is allowed: %s\n", line)
			return nil
		},
	}
}

func (a *App) newSecurityScanFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-file <path>",
		Short: "Report risky patterns in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.checker()
			if err != nil {
				return err
			}
			findings, err := c.ScanFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintf(out, "No issues found in %s\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Found %d potential issue(s) in %s:\n", len(findings), args[0])
			for _, f := range findings {
				fmt.Fprintf(out, "  - %s\n", f)
			}
			return command.Exit(int(command.ExitFailure))
		},
	}
}

func (a *App) newSecurityHashFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-file <path>",
		Short: "Print the SHA-256 of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.checker()
			if err != nil {
				return err
			}
			sum, err := c.HashFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, args[0])
			return nil
		},
	}
}

func (a *App) newSecurityVerifyIntegrityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-integrity <path> <sha256>",
		Short: "Compare a file against an expected SHA-256",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.checker()
			if err != nil {
				return err
			}
			ok, err := c.VerifyIntegrity(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("integrity check failed for %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Integrity verified: %s\n", args[0])
			return nil
		},
	}
}
