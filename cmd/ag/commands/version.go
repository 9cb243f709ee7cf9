package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/version"
)

func newVersionCommand(app *App) (*command.Descriptor, error) {
	build := app.newVersionCmd
	return &command.Descriptor{
		Name:    "version",
		Summary: build().Short,
		Handler: command.Cobra([]string{program}, app.Stdout, app.Stderr, build),
	}, nil
}

func (a *App) newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ag",
		Long:  `Print the version number of ag`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	return cmd
}
