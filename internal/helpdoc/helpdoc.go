// Package helpdoc renders usage text from command descriptors. Rendering is a
// pure function of its input so the output can be asserted on directly.
package helpdoc

import (
	"fmt"
	"strings"

	"github.com/takumiyoshikawa/agentic/internal/command"
)

// Lister enumerates registered commands sorted by name.
type Lister interface {
	List() []*command.Descriptor
}

// Minimum name column widths for the command and subcommand listings.
const (
	commandColumn    = 10
	subcommandColumn = 15
)

// Renderer formats help text for a program name such as "ag".
type Renderer struct {
	Program string
}

// Top renders the top-level help listing every command with its summary.
func (r Renderer) Top(l Lister) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s <command> <subcommand> [<args>]\n", r.Program)

	var cmds []*command.Descriptor
	if l != nil {
		cmds = l.List()
	}
	if len(cmds) == 0 {
		sb.WriteString("\nNo commands available.\n")
		return sb.String()
	}

	sb.WriteString("\nAvailable commands:\n")
	width := commandColumn
	for _, d := range cmds {
		width = max(width, len(d.Name)+1)
	}
	for _, d := range cmds {
		writeRow(&sb, width, d.Name, d.Summary)
	}
	fmt.Fprintf(&sb, "\nRun '%s <command> --help' for more information on a command.\n", r.Program)
	return sb.String()
}

// Command renders help for a single command and its subcommands.
func (r Renderer) Command(d *command.Descriptor) string {
	var sb strings.Builder
	if !d.HasSubcommands() {
		fmt.Fprintf(&sb, "Usage: %s %s [<args>]\n\n%s\n", r.Program, d.Name, d.Summary)
		return sb.String()
	}

	fmt.Fprintf(&sb, "Usage: %s %s <subcommand> [<args>]\n\n%s\n", r.Program, d.Name, d.Summary)
	fmt.Fprintf(&sb, "\nAvailable subcommands for '%s':\n", d.Name)

	subs := d.SortedSubcommands()
	width := subcommandColumn
	for _, s := range subs {
		width = max(width, len(s.Name)+1)
	}
	for _, s := range subs {
		writeRow(&sb, width, s.Name, s.Summary)
	}
	fmt.Fprintf(&sb, "\nRun '%s %s <subcommand> --help' for more information on a subcommand.\n", r.Program, d.Name)
	return sb.String()
}

func writeRow(sb *strings.Builder, width int, name, summary string) {
	if summary == "" {
		fmt.Fprintf(sb, "  %s\n", name)
		return
	}
	fmt.Fprintf(sb, "  %-*s %s\n", width, name, summary)
}
