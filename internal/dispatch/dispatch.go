package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/helpdoc"
)

// Lister is a catalog that can also enumerate its commands for help output.
type Lister interface {
	Catalog
	List() []*command.Descriptor
}

// Dispatcher invokes resolved handlers. Failures never escape Dispatch; they
// are logged and turned into an exit status with one diagnostic line.
type Dispatcher struct {
	Registry Lister
	Program  string
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *log.Logger
	// Verbose adds panic stacks to the diagnostic output.
	Verbose bool
}

func (d *Dispatcher) renderer() helpdoc.Renderer {
	return helpdoc.Renderer{Program: d.Program}
}

// Dispatch runs inv and returns the process exit status.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) command.ExitStatus {
	if inv.Command == "" {
		fmt.Fprint(d.Stdout, d.renderer().Top(d.Registry))
		return command.ExitOK
	}

	desc, ok := d.Registry.Lookup(inv.Command)
	if !ok {
		d.diagnose("unknown command %q (run '%s --help' for a list of commands)", inv.Command, d.Program)
		d.logger().Warn("unknown command", "command", inv.Command)
		return command.ExitUnknownCommand
	}

	var handler command.Handler = desc
	if desc.HasSubcommands() {
		if inv.Subcommand == "" {
			fmt.Fprint(d.Stdout, d.renderer().Command(desc))
			return command.ExitOK
		}
		sub, ok := desc.Subcommand(inv.Subcommand)
		if !ok {
			d.diagnose("unknown subcommand %q for %q (run '%s %s --help' for a list of subcommands)",
				inv.Subcommand, inv.Command, d.Program, inv.Command)
			d.logger().Warn("unknown subcommand", "command", inv.Command, "subcommand", inv.Subcommand)
			return command.ExitUnknownCommand
		}
		handler = sub
	}

	err := invoke(ctx, handler, inv.Args)
	return d.report(inv, err)
}

func invoke(ctx context.Context, h command.Handler, args []string) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &command.PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return h.Invoke(ctx, args)
}

func (d *Dispatcher) report(inv Invocation, err error) command.ExitStatus {
	status := command.StatusOf(err)
	if err == nil {
		return status
	}

	kv := []any{"command", inv.Command, "subcommand", inv.Subcommand, "args", inv.Args, "status", int(status), "err", err}

	var argErr *command.ArgumentError
	var exitErr *command.ExitError
	var panicErr *command.PanicError
	switch {
	case errors.As(err, &exitErr):
		d.logger().Debug("handler exited", kv...)
		if exitErr.Err != nil {
			d.diagnose("%s: %v", inv.path(), exitErr.Err)
		}
	case errors.As(err, &argErr):
		d.logger().Warn("bad arguments", kv...)
		d.diagnose("%s: %v", inv.path(), argErr)
	case errors.As(err, &panicErr):
		d.logger().Error("handler panicked", append(kv, "stack", string(panicErr.Stack))...)
		d.diagnose("%s: internal error: %v", inv.path(), panicErr.Value)
		if d.Verbose {
			fmt.Fprintf(d.Stderr, "%s", panicErr.Stack)
		}
	default:
		d.logger().Error("handler failed", kv...)
		d.diagnose("%s: %v", inv.path(), err)
	}
	return status
}

func (inv Invocation) path() string {
	parts := []string{inv.Command}
	if inv.Subcommand != "" {
		parts = append(parts, inv.Subcommand)
	}
	return strings.Join(parts, " ")
}

// diagnose writes exactly one line to stderr.
func (d *Dispatcher) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	msg = strings.ReplaceAll(strings.TrimSpace(msg), "\n", " ")
	fmt.Fprintf(d.Stderr, "%s: %s\n", d.Program, msg)
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}
