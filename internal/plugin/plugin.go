// Package plugin finds external "ag-<name>" executables on PATH and exposes
// them as commands. A plugin receives every argument after its name and
// parses them itself.
package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/executor"
	"github.com/takumiyoshikawa/agentic/internal/registry"
)

const Prefix = "ag-"

type Plugin struct {
	Name string
	Path string
}

// Scan lists plugins in the directories of pathList, in PATH order. The first
// executable with a given name wins; names that are not valid command names
// are ignored.
func Scan(pathList string) []Plugin {
	seen := make(map[string]bool)
	var out []Plugin
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name, ok := strings.CutPrefix(e.Name(), Prefix)
			if !ok || seen[name] || !command.ValidName(name) {
				continue
			}
			full := filepath.Join(dir, e.Name())
			info, err := os.Stat(full)
			if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
				continue
			}
			seen[name] = true
			out = append(out, Plugin{Name: name, Path: full})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Providers wraps each plugin in a registry provider whose handler runs the
// executable with stdio attached. A non-zero exit becomes the process status.
func Providers(plugins []Plugin, runner executor.Runner, stdio executor.Stdio) []registry.Provider {
	out := make([]registry.Provider, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, registry.Provider{
			Name: Prefix + p.Name,
			New: func() (*command.Descriptor, error) {
				return &command.Descriptor{
					Name:    p.Name,
					Summary: fmt.Sprintf("External command (%s)", p.Path),
					Handler: command.HandlerFunc(func(ctx context.Context, args []string) error {
						code, err := runner.Stream(ctx, stdio, p.Path, args...)
						if err != nil {
							return err
						}
						if code != 0 {
							return command.Exit(code)
						}
						return nil
					}),
				}, nil
			},
		})
	}
	return out
}
