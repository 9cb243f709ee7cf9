package helpdoc

import (
	"context"
	"strings"
	"testing"

	"github.com/takumiyoshikawa/agentic/internal/command"
)

type staticList []*command.Descriptor

func (s staticList) List() []*command.Descriptor { return s }

func nop() command.Handler {
	return command.HandlerFunc(func(context.Context, []string) error { return nil })
}

func TestTop(t *testing.T) {
	r := Renderer{Program: "ag"}
	got := r.Top(staticList{
		{Name: "config", Summary: "Configuration management commands", Handler: nop()},
		{Name: "env", Summary: "Environment management commands", Handler: nop()},
	})

	want := `Usage: ag <command> <subcommand> [<args>]

Available commands:
  config     Configuration management commands
  env        Environment management commands

Run 'ag <command> --help' for more information on a command.
`
	if got != want {
		t.Errorf("Top() =\n%s\nwant:\n%s", got, want)
	}
}

func TestTopEmpty(t *testing.T) {
	got := Renderer{Program: "ag"}.Top(staticList{})
	want := "Usage: ag <command> <subcommand> [<args>]\n\nNo commands available.\n"
	if got != want {
		t.Errorf("Top() = %q, want %q", got, want)
	}
}

func TestTopWidensForLongNames(t *testing.T) {
	got := Renderer{Program: "ag"}.Top(staticList{
		{Name: "a-very-long-command", Summary: "Long", Handler: nop()},
	})
	if want := "  a-very-long-command  Long\n"; !strings.Contains(got, want) {
		t.Errorf("Top() = %q, want line %q", got, want)
	}
}

func TestCommandSortsSubcommands(t *testing.T) {
	d := &command.Descriptor{
		Name:    "config",
		Summary: "Configuration management commands",
		Subcommands: []*command.Subcommand{
			{Name: "set", Summary: "Set a configuration value", Handler: nop()},
			{Name: "get", Summary: "Get a configuration value", Handler: nop()},
		},
	}

	got := Renderer{Program: "ag"}.Command(d)
	want := `Usage: ag config <subcommand> [<args>]

Configuration management commands

Available subcommands for 'config':
  get             Get a configuration value
  set             Set a configuration value

Run 'ag config <subcommand> --help' for more information on a subcommand.
`
	if got != want {
		t.Errorf("Command() =\n%s\nwant:\n%s", got, want)
	}
}

func TestCommandWithoutSubcommands(t *testing.T) {
	d := &command.Descriptor{Name: "version", Summary: "Print version information", Handler: nop()}
	got := Renderer{Program: "ag"}.Command(d)
	want := "Usage: ag version [<args>]\n\nPrint version information\n"
	if got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}
