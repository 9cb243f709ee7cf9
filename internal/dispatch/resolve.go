// Package dispatch turns an argument vector into a handler call. Resolve is a
// pure parse step; Dispatcher does the lookup, invocation, failure isolation
// and help fallback.
package dispatch

import (
	"strings"

	"github.com/takumiyoshikawa/agentic/internal/command"
)

// Catalog is the read-only view of the registry that resolution needs.
type Catalog interface {
	Lookup(name string) (*command.Descriptor, bool)
}

// Invocation is the parsed form of one argument vector. An empty Command or
// Subcommand means unset.
type Invocation struct {
	Command    string
	Subcommand string
	Args       []string
}

func isHelp(tok string) bool {
	return tok == "--help" || tok == "-h"
}

func isFlag(tok string) bool {
	return strings.HasPrefix(tok, "-")
}

// Resolve splits args into command, subcommand and remaining arguments.
// Command names are matched exactly. An unmatched first token is still
// returned as Command so the dispatcher can report it.
func Resolve(catalog Catalog, args []string) Invocation {
	if len(args) == 0 || isHelp(args[0]) {
		return Invocation{}
	}

	inv := Invocation{Command: args[0]}
	rest := args[1:]

	var desc *command.Descriptor
	if catalog != nil {
		desc, _ = catalog.Lookup(inv.Command)
	}
	if desc != nil && desc.HasSubcommands() && len(rest) > 0 && !isFlag(rest[0]) {
		inv.Subcommand = rest[0]
		rest = rest[1:]
	}

	inv.Args = append([]string{}, rest...)
	return inv
}
