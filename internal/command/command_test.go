package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nop() Handler {
	return HandlerFunc(func(context.Context, []string) error { return nil })
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		desc *Descriptor
		ok   bool
	}{
		{"plain command", &Descriptor{Name: "version", Summary: "Print version", Handler: nop()}, true},
		{"with subcommands", &Descriptor{Name: "env", Summary: "Env", Subcommands: []*Subcommand{{Name: "check", Summary: "Check", Handler: nop()}}}, true},
		{"dashed name", &Descriptor{Name: "list-python", Summary: "x", Handler: nop()}, true},
		{"nil", nil, false},
		{"uppercase", &Descriptor{Name: "Env", Summary: "x", Handler: nop()}, false},
		{"whitespace", &Descriptor{Name: "my env", Summary: "x", Handler: nop()}, false},
		{"leading dash", &Descriptor{Name: "-env", Summary: "x", Handler: nop()}, false},
		{"empty summary", &Descriptor{Name: "env", Handler: nop()}, false},
		{"no handler no subcommands", &Descriptor{Name: "env", Summary: "x"}, false},
		{"duplicate subcommand", &Descriptor{Name: "env", Summary: "x", Subcommands: []*Subcommand{
			{Name: "check", Summary: "a", Handler: nop()},
			{Name: "check", Summary: "b", Handler: nop()},
		}}, false},
		{"subcommand without handler", &Descriptor{Name: "env", Summary: "x", Subcommands: []*Subcommand{{Name: "check", Summary: "a"}}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var invalid *InvalidDescriptorError
			assert.True(t, errors.As(err, &invalid), "expected InvalidDescriptorError, got %v", err)
		})
	}
}

func TestSortedSubcommandsKeepsDeclarationOrder(t *testing.T) {
	d := &Descriptor{Name: "config", Summary: "x", Subcommands: []*Subcommand{
		{Name: "set", Handler: nop()},
		{Name: "get", Handler: nop()},
		{Name: "list", Handler: nop()},
	}}

	sorted := d.SortedSubcommands()
	assert.Equal(t, []string{"get", "list", "set"}, names(sorted))
	assert.Equal(t, []string{"set", "get", "list"}, names(d.Subcommands))
}

func TestCloneIsIndependent(t *testing.T) {
	d := &Descriptor{Name: "env", Summary: "x", Subcommands: []*Subcommand{{Name: "check", Summary: "a", Handler: nop()}}}
	c := d.Clone()

	d.Subcommands[0].Summary = "changed"
	d.Subcommands = append(d.Subcommands, &Subcommand{Name: "fix", Handler: nop()})

	assert.Len(t, c.Subcommands, 1)
	assert.Equal(t, "a", c.Subcommands[0].Summary)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want ExitStatus
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{ArgErrorf("missing name"), ExitBadArguments},
		{fmt.Errorf("wrapped: %w", ArgErrorf("x")), ExitBadArguments},
		{Exit(7), 7},
		{Exit(0), ExitOK},
		{Exit(300), ExitFailure},
		{&PanicError{Value: "x"}, ExitFailure},
	}

	for i, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("case %d: StatusOf(%v) = %d, want %d", i, tc.err, got, tc.want)
		}
	}
}

func TestCobraHandlerRunsLeaf(t *testing.T) {
	var out bytes.Buffer
	var gotName string
	var gotForce bool

	h := Cobra([]string{"ag", "venv"}, &out, &out, func() *cobra.Command {
		var force bool
		cmd := &cobra.Command{
			Use:  "create <name>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				gotName = args[0]
				gotForce = force
				fmt.Fprintln(cmd.OutOrStdout(), "created", args[0])
				return nil
			},
		}
		cmd.Flags().BoolVar(&force, "force", false, "")
		return cmd
	})

	require.NoError(t, h.Invoke(context.Background(), []string{"demo", "--force"}))
	assert.Equal(t, "demo", gotName)
	assert.True(t, gotForce)
	assert.Contains(t, out.String(), "created demo")
}

func TestCobraHandlerArgumentErrors(t *testing.T) {
	build := func() *cobra.Command {
		return &cobra.Command{
			Use:  "get <key>",
			Args: cobra.ExactArgs(1),
			RunE: func(*cobra.Command, []string) error { return nil },
		}
	}
	h := Cobra([]string{"ag", "config"}, &bytes.Buffer{}, &bytes.Buffer{}, build)

	err := h.Invoke(context.Background(), nil)
	assert.Equal(t, ExitBadArguments, StatusOf(err))

	err = h.Invoke(context.Background(), []string{"k", "--nope"})
	assert.Equal(t, ExitBadArguments, StatusOf(err))
}

func TestCobraHandlerHelpUsesFullPath(t *testing.T) {
	var out bytes.Buffer
	h := Cobra([]string{"ag", "venv"}, &out, &out, func() *cobra.Command {
		return &cobra.Command{
			Use:   "create <name>",
			Short: "Create a new virtual environment",
			RunE:  func(*cobra.Command, []string) error { return nil },
		}
	})

	require.NoError(t, h.Invoke(context.Background(), []string{"--help"}))
	assert.Contains(t, out.String(), "ag venv create <name>")
}

func names(subs []*Subcommand) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Name)
	}
	return out
}
