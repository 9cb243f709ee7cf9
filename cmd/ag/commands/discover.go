package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/discover"
)

func newDiscoverCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "discover",
		Summary: "Describe the Agentic workspace to an agent",
		Subcommands: []*command.Subcommand{
			app.subcommand("discover", app.newDiscoverInfoCmd),
		},
	}, nil
}

func (a *App) newDiscoverInfoCmd() *cobra.Command {
	var path, output string
	var asJSON, check bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print where the workspace, its docs and its commands are",
		Long: `Print where the workspace, its documentation and its directories are, and
which ag commands operate on it. The root is --path, then $AGHOME, then
paths.root from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			root, err := discover.FindRoot(path, cfg.Paths.Root)
			if err != nil {
				return err
			}
			info, err := discover.Load(root, cfg.Paths.Registry)
			if err != nil {
				return err
			}
			if a.Registry != nil {
				for _, d := range a.Registry.List() {
					if _, ok := info.UtilityCommands[d.Name]; !ok {
						info.UtilityCommands[d.Name] = program + " " + d.Name
					}
				}
			}

			out := cmd.OutOrStdout()
			if check {
				for _, m := range discover.Check(root) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: missing %s\n", program, m)
				}
			}
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				if err := writeJSON(f, info); err != nil {
					return err
				}
				a.Log.Info("workspace info written", "file", output)
			}
			if asJSON {
				return writeJSON(out, info)
			}
			if home, err := os.UserHomeDir(); err == nil {
				info.ExpandHome(home)
			}
			printInfo(out, info)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Workspace root directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the information as JSON ($HOME left unexpanded)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the JSON to this file")
	cmd.Flags().BoolVar(&check, "check", false, "Warn about missing docs and directories")
	return cmd
}

func printInfo(w io.Writer, info *discover.Info) {
	fmt.Fprintf(w, "%s (v%s)\n", info.FrameworkName, info.Version)
	fmt.Fprintf(w, "Description: %s\n", info.Description)
	fmt.Fprintf(w, "Home directory: %s\n", info.HomeDirectory)
	sections := []struct {
		title string
		items map[string]string
	}{
		{"Documentation", info.Documentation},
		{"Directories", info.DirectoryStructure},
		{"Commands", info.UtilityCommands},
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s:\n", s.title)
		for _, k := range discover.SortedKeys(s.items) {
			fmt.Fprintf(w, "  - %s: %s\n", discover.Title(k), s.items[k])
		}
	}
	fmt.Fprintf(w, "\nRegistry:\n  - Path: %s\n  - Description: %s\n", info.Registry.Path, info.Registry.Description)
	if info.RecommendedEntryPrompt != "" {
		fmt.Fprintf(w, "\nRecommended entry prompt:\n  %s\n", info.RecommendedEntryPrompt)
	}
}
