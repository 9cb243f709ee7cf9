package command

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// ExitStatus is the process exit code produced by a dispatch.
type ExitStatus int

const (
	ExitOK             ExitStatus = 0
	ExitFailure        ExitStatus = 1
	ExitUnknownCommand ExitStatus = 2
	ExitBadArguments   ExitStatus = 3
)

// Handler is anything that can be invoked with the remaining argument vector.
// Handlers parse their own flags.
type Handler interface {
	Invoke(ctx context.Context, args []string) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, args []string) error

func (f HandlerFunc) Invoke(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// Subcommand is a verb nested under a command, e.g. "check" under "env".
type Subcommand struct {
	Name    string
	Summary string
	Handler Handler
}

func (s *Subcommand) Invoke(ctx context.Context, args []string) error {
	if s.Handler == nil {
		return fmt.Errorf("subcommand %q has no handler", s.Name)
	}
	return s.Handler.Invoke(ctx, args)
}

// Descriptor is the static metadata a command module registers. Subcommands
// keep the order the module declared them in; help output sorts them.
type Descriptor struct {
	Name        string
	Summary     string
	Handler     Handler
	Subcommands []*Subcommand
}

// Invoke runs the command-level handler. Commands with subcommands are
// normally dispatched through one of them instead.
func (d *Descriptor) Invoke(ctx context.Context, args []string) error {
	if d.Handler == nil {
		return fmt.Errorf("command %q has no handler", d.Name)
	}
	return d.Handler.Invoke(ctx, args)
}

func (d *Descriptor) HasSubcommands() bool {
	return len(d.Subcommands) > 0
}

// Subcommand looks up a subcommand by exact name.
func (d *Descriptor) Subcommand(name string) (*Subcommand, bool) {
	for _, s := range d.Subcommands {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// SortedSubcommands returns the subcommands ordered by name.
func (d *Descriptor) SortedSubcommands() []*Subcommand {
	out := append([]*Subcommand(nil), d.Subcommands...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidName reports whether name is usable as a command or subcommand name:
// lowercase, no whitespace, not starting with a dash.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Validate checks the descriptor shape required for registration.
func (d *Descriptor) Validate() error {
	if d == nil {
		return &InvalidDescriptorError{Reason: "descriptor is nil"}
	}
	if !ValidName(d.Name) {
		return &InvalidDescriptorError{Name: d.Name, Reason: "name must be lowercase letters, digits or dashes"}
	}
	if d.Summary == "" {
		return &InvalidDescriptorError{Name: d.Name, Reason: "summary is required"}
	}
	if !d.HasSubcommands() && d.Handler == nil {
		return &InvalidDescriptorError{Name: d.Name, Reason: "a command without subcommands needs a handler"}
	}

	seen := make(map[string]bool, len(d.Subcommands))
	for i, s := range d.Subcommands {
		if s == nil {
			return &InvalidDescriptorError{Name: d.Name, Reason: fmt.Sprintf("subcommand[%d] is nil", i)}
		}
		if !ValidName(s.Name) {
			return &InvalidDescriptorError{Name: d.Name, Reason: fmt.Sprintf("subcommand %q has an invalid name", s.Name)}
		}
		if seen[s.Name] {
			return &InvalidDescriptorError{Name: d.Name, Reason: fmt.Sprintf("subcommand %q declared twice", s.Name)}
		}
		seen[s.Name] = true
		if s.Handler == nil {
			return &InvalidDescriptorError{Name: d.Name, Reason: fmt.Sprintf("subcommand %q has no handler", s.Name)}
		}
	}
	return nil
}

// Clone returns a copy that shares handlers but not slices or subcommand
// structs, so the registry's copy cannot be changed behind its back.
func (d *Descriptor) Clone() *Descriptor {
	out := *d
	out.Subcommands = make([]*Subcommand, len(d.Subcommands))
	for i, s := range d.Subcommands {
		c := *s
		out.Subcommands[i] = &c
	}
	return &out
}
