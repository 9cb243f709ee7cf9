package commands

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/executor"
	"github.com/takumiyoshikawa/agentic/internal/registry"
	"github.com/takumiyoshikawa/agentic/internal/venv"
)

const program = "ag"

// App carries the collaborators every command shares.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Store  *config.Store
	Log    *log.Logger
	Runner executor.Runner
	Now    func() time.Time
	// Registry is set once discovery has finished.
	Registry *registry.Registry
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// subcommand wraps a cobra builder as a subcommand of parent. The builder is
// called once here to read its name and summary, then again per invocation.
func (a *App) subcommand(parent string, build func() *cobra.Command) *command.Subcommand {
	sample := build()
	return &command.Subcommand{
		Name:    sample.Name(),
		Summary: sample.Short,
		Handler: command.Cobra([]string{program, parent}, a.Stdout, a.Stderr, build),
	}
}

func (a *App) venvStore(cfg *config.Config) *venv.Store {
	return venv.NewStore(cfg.Paths.Registry, cfg.Paths.Backups, cfg.Backup.MaxBackups)
}
