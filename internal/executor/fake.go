package executor

import (
	"context"
	"fmt"
	"strings"
)

// Fake is an in-memory Runner for tests. Responses are keyed by the joined
// command line; unknown commands report exit code 127.
type Fake struct {
	Responses map[string]*Result
	Missing   map[string]bool
	Calls     []string
}

func (f *Fake) record(name string, args []string) string {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.Calls = append(f.Calls, line)
	return line
}

func (f *Fake) Capture(_ context.Context, name string, args ...string) (*Result, error) {
	line := f.record(name, args)
	if f.Missing[name] {
		return nil, fmt.Errorf("%s command failed: executable file not found in $PATH", name)
	}
	if res, ok := f.Responses[line]; ok {
		return res, nil
	}
	return &Result{ExitCode: 127}, nil
}

func (f *Fake) Stream(ctx context.Context, stdio Stdio, name string, args ...string) (int, error) {
	res, err := f.Capture(ctx, name, args...)
	if err != nil {
		return -1, err
	}
	if stdio.Out != nil && res.Stdout != "" {
		fmt.Fprint(stdio.Out, res.Stdout)
	}
	if stdio.Err != nil && res.Stderr != "" {
		fmt.Fprint(stdio.Err, res.Stderr)
	}
	return res.ExitCode, nil
}

func (f *Fake) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}
