package commands

import (
	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/registry"
)

// Providers is the manifest of built-in commands, in load order.
func Providers(app *App) []registry.Provider {
	builtin := []struct {
		name string
		new  func(*App) (*command.Descriptor, error)
	}{
		{"cleanup", newCleanupCommand},
		{"config", newConfigCommand},
		{"dependency", newDependencyCommand},
		{"discover", newDiscoverCommand},
		{"env", newEnvCommand},
		{"feedback", newFeedbackCommand},
		{"project", newProjectCommand},
		{"rule", newRuleCommand},
		{"security", newSecurityCommand},
		{"setup", newSetupCommand},
		{"uv", newUVCommand},
		{"venv", newVenvCommand},
		{"version", newVersionCommand},
	}

	out := make([]registry.Provider, 0, len(builtin))
	for _, b := range builtin {
		out = append(out, registry.Provider{
			Name: b.name,
			New:  func() (*command.Descriptor, error) { return b.new(app) },
		})
	}
	return out
}
