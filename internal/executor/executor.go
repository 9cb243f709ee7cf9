// Package executor runs external programs for command handlers: uv, python,
// git and ag-* plugins.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Result is the outcome of a program that started. A non-zero ExitCode is not
// an error; only failing to start is.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner abstracts process execution for testability.
type Runner interface {
	// Capture runs name and collects its output.
	Capture(ctx context.Context, name string, args ...string) (*Result, error)
	// Stream runs name with the given stdio attached and returns its exit code.
	Stream(ctx context.Context, stdio Stdio, name string, args ...string) (int, error)
	LookPath(name string) (string, error)
}

// Stdio is the set of streams handed to a streamed process.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Exec runs real processes.
type Exec struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

func (e *Exec) command(ctx context.Context, name string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	return cmd
}

func (e *Exec) Capture(ctx context.Context, name string, args ...string) (*Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, name, args)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if code, ok := exitCode(err); ok {
		res.ExitCode = code
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s command failed: %w", name, err)
	}
	return res, nil
}

func (e *Exec) Stream(ctx context.Context, stdio Stdio, name string, args ...string) (int, error) {
	cmd := e.command(ctx, name, args)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	err := cmd.Run()
	if code, ok := exitCode(err); ok {
		return code, nil
	}
	if err != nil {
		return -1, fmt.Errorf("%s command failed: %w", name, err)
	}
	return 0, nil
}

func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// FirstLine returns the first non-empty line of s, trimmed. Version commands
// like "uv --version" print their answer there.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Quote renders a command line for display in dry-run output.
func Quote(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		if a == "" || strings.ContainsAny(a, " \t\"'|&;<>$") {
			a = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
