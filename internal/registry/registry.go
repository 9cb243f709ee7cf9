// Package registry holds the catalog of commands known to ag. It is built once
// at startup by Discover and is only read afterwards.
package registry

import (
	"fmt"
	"sort"

	"github.com/takumiyoshikawa/agentic/internal/command"
)

// DuplicateCommandError is returned when a command name is registered twice.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q already registered", e.Name)
}

// Registry maps command names to descriptors.
type Registry struct {
	commands map[string]*command.Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{commands: make(map[string]*command.Descriptor)}
}

// Register validates d and adds a copy of it. A failed registration leaves the
// registry untouched.
func (r *Registry) Register(d *command.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.commands[d.Name]; exists {
		return &DuplicateCommandError{Name: d.Name}
	}
	r.commands[d.Name] = d.Clone()
	return nil
}

// Lookup returns the descriptor for name. A missing command is not an error;
// the caller decides what to do about it.
func (r *Registry) Lookup(name string) (*command.Descriptor, bool) {
	d, ok := r.commands[name]
	return d, ok
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []*command.Descriptor {
	out := make([]*command.Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int {
	return len(r.commands)
}
