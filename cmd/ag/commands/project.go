package commands

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/project"
	"github.com/takumiyoshikawa/agentic/internal/venv"
)

func newProjectCommand(app *App) (*command.Descriptor, error) {
	return &command.Descriptor{
		Name:    "project",
		Summary: "Create and list Python projects",
		Subcommands: []*command.Subcommand{
			app.subcommand("project", app.newProjectCreateCmd),
			app.subcommand("project", app.newProjectListCmd),
		},
	}, nil
}

func (a *App) newProjectCreateCmd() *cobra.Command {
	var description, license, python string
	var noVenv, noGit bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Scaffold a new project with the standard layout",
		Long: `Scaffold a new project under the projects directory. The name must be
kebab-case. Unless disabled, a virtual environment is created and registered
and a git repository is initialised.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !project.ValidName(name) {
				return command.ArgErrorf("invalid project name %q: use kebab-case (e.g. my-project)", name)
			}
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			if license == "" {
				license = cfg.Project.DefaultLicense
			}
			if python == "" {
				python = cfg.Python.DefaultVersion
			}

			p, err := project.Create(cfg.Paths.Projects, project.Options{
				Name:          name,
				Description:   description,
				License:       license,
				PythonVersion: python,
				Directories:   cfg.Project.Directories,
				Files:         cfg.Project.Files,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			a.Log.Info("project created", "name", name, "path", p.Path)
			fmt.Fprintf(out, "Created project %s at %s\n", name, p.Path)
			for _, c := range p.Created {
				fmt.Fprintf(out, "  %s\n", c)
			}

			if !noVenv {
				venvPath := filepath.Join(p.Path, cfg.Python.VenvDir)
				if err := a.createVenv(cmd.Context(), cfg, venvPath, python); err != nil {
					a.Log.Warn("virtual environment not created", "err", err)
					fmt.Fprintf(out, "Skipped virtual environment: %v\n", err)
				} else {
					store := a.venvStore(cfg)
					reg, err := store.Load()
					if err != nil {
						return err
					}
					if err := reg.Add(venv.Environment{
						Path:          venvPath,
						Project:       name,
						PythonVersion: firstNonEmpty(venv.PythonVersion(venvPath), python),
						Description:   description,
						CreatedAt:     a.now().UTC(),
					}); err != nil {
						return err
					}
					if err := store.Save(reg); err != nil {
						return err
					}
					fmt.Fprintf(out, "Created virtual environment %s\n", venvPath)
				}
			}

			if !noGit {
				res, err := a.Runner.Capture(cmd.Context(), "git", "-C", p.Path, "init")
				if err != nil || res.ExitCode != 0 {
					a.Log.Warn("git init failed", "path", p.Path, "err", err)
					fmt.Fprintln(out, "Skipped git repository: git init failed")
				} else {
					fmt.Fprintln(out, "Initialized git repository")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Short project description")
	cmd.Flags().StringVar(&license, "license", "", "License name (default from config)")
	cmd.Flags().StringVar(&python, "python", "", "Python version (default from config)")
	cmd.Flags().BoolVar(&noVenv, "no-venv", false, "Do not create a virtual environment")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "Do not initialise a git repository")
	return cmd
}

func (a *App) newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects in the projects directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Store.Config()
			if err != nil {
				return err
			}
			projects, err := project.List(cfg.Paths.Projects, cfg.Python.VenvDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tVENV\tDESCRIPTION")
			for _, p := range projects {
				hasVenv := "no"
				if p.HasVenv {
					hasVenv = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, orDash(p.Version), hasVenv, orDash(p.Description))
			}
			return w.Flush()
		},
	}
}
