package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/dispatch"
	"github.com/takumiyoshikawa/agentic/internal/executor"
	"github.com/takumiyoshikawa/agentic/internal/logging"
	"github.com/takumiyoshikawa/agentic/internal/plugin"
	"github.com/takumiyoshikawa/agentic/internal/registry"
)

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(int(code))
}

type globalFlags struct {
	verbose   bool
	config    string
	noPlugins bool
	help      bool
}

func parseGlobalFlags(args []string) (*globalFlags, []string, error) {
	g := &globalFlags{}
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Mirror logs to stderr and show stack traces")
	fs.StringVarP(&g.config, "config", "c", "", "Configuration file (default ~/Agentic/agentic_config.yaml)")
	fs.BoolVar(&g.noPlugins, "no-plugins", false, "Do not load ag-* plugins from PATH")
	fs.BoolVarP(&g.help, "help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return g, []string{"--help"}, nil
		}
		return nil, nil, err
	}
	rest := fs.Args()
	if g.help {
		rest = append([]string{"--help"}, rest...)
	}
	if os.Getenv("AG_DEBUG") == "1" {
		g.verbose = true
	}
	return g, rest, nil
}

// Run executes one ag invocation and returns its exit status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) command.ExitStatus {
	return run(ctx, args, &App{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Runner: &executor.Exec{},
	})
}

// run fills in the configuration and logger of app and dispatches args.
func run(ctx context.Context, args []string, app *App) command.ExitStatus {
	stderr := app.Stderr
	flags, rest, err := parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return command.ExitBadArguments
	}

	store, err := config.Load(flags.config)
	if err != nil {
		fmt.Fprintf(stderr, "%s: warning: %v (using defaults)\n", program, err)
		store = config.Fallback(flags.config, err)
	}
	app.Store = store

	logOpts := logging.Options{Verbose: flags.verbose, Console: stderr, Prefix: program}
	if cfg, err := store.Config(); err == nil {
		logOpts.File = cfg.Logging.File
		logOpts.Level = cfg.Logging.Level
	}
	logger, closer := logging.New(logOpts)
	defer closer.Close()
	app.Log = logger

	providers := Providers(app)
	if !flags.noPlugins {
		found := plugin.Scan(os.Getenv("PATH"))
		stdio := executor.Stdio{In: app.Stdin, Out: app.Stdout, Err: stderr}
		providers = append(providers, plugin.Providers(found, app.Runner, stdio)...)
	}

	reg, problems := registry.Discover(providers, logger)
	app.Registry = reg
	for _, p := range problems {
		fmt.Fprintf(stderr, "%s: warning: %v\n", program, p)
	}

	d := &dispatch.Dispatcher{
		Registry: reg,
		Program:  program,
		Stdout:   app.Stdout,
		Stderr:   stderr,
		Logger:   logger,
		Verbose:  flags.verbose,
	}
	inv := dispatch.Resolve(reg, rest)
	logger.Debug("dispatch", "command", inv.Command, "subcommand", inv.Subcommand, "args", inv.Args)
	return d.Dispatch(ctx, inv)
}
