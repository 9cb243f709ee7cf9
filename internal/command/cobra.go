package command

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// CobraHandler runs a cobra command as a leaf handler. The command is built
// fresh for every invocation and mounted under synthetic parents named by
// Path, so its usage line reads "ag venv create <name>" and --help works the
// way cobra users expect.
type CobraHandler struct {
	Path []string
	New  func() *cobra.Command
	Out  io.Writer
	Err  io.Writer
}

// Cobra is a convenience constructor for CobraHandler.
func Cobra(path []string, out, errOut io.Writer, build func() *cobra.Command) *CobraHandler {
	return &CobraHandler{Path: path, New: build, Out: out, Err: errOut}
}

func (h *CobraHandler) Invoke(ctx context.Context, args []string) error {
	leaf := h.New()
	wrapArgs(leaf)

	root := leaf
	argv := append([]string(nil), args...)
	if len(h.Path) > 0 {
		root = &cobra.Command{Use: h.Path[0]}
		parent := root
		for _, name := range h.Path[1:] {
			child := &cobra.Command{Use: name}
			parent.AddCommand(child)
			parent = child
		}
		parent.AddCommand(leaf)

		route := append(append([]string(nil), h.Path[1:]...), leaf.Name())
		argv = append(route, argv...)
	}

	root.SilenceUsage = true
	root.SilenceErrors = true
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ArgumentError{Err: err}
	})
	if h.Out != nil {
		root.SetOut(h.Out)
	}
	if h.Err != nil {
		root.SetErr(h.Err)
	}
	root.SetArgs(argv)

	return root.ExecuteContext(ctx)
}

// wrapArgs turns positional-argument validation failures into ArgumentErrors.
func wrapArgs(cmd *cobra.Command) {
	validate := cmd.Args
	if validate == nil {
		return
	}
	cmd.Args = func(c *cobra.Command, args []string) error {
		if err := validate(c, args); err != nil {
			return &ArgumentError{Err: err}
		}
		return nil
	}
}
