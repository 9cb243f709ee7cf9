package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ag.log")

	logger, closer := New(Options{File: path})
	logger.Info("registered", "command", "env")
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "registered") || !strings.Contains(out, "command=env") {
		t.Errorf("log file missing entry; got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry written at info level; got: %s", out)
	}
}

func TestVerboseMirrorsToConsole(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "ag.log")

	logger, closer := New(Options{File: path, Verbose: true, Console: &console})
	defer closer.Close()
	logger.Debug("resolving", "args", 2)

	if !strings.Contains(console.String(), "resolving") {
		t.Errorf("console missing debug entry; got: %s", console.String())
	}
}

func TestQuietDoesNotTouchConsole(t *testing.T) {
	var console bytes.Buffer
	logger, closer := New(Options{Console: &console})
	defer closer.Close()
	logger.Error("boom")

	if console.Len() != 0 {
		t.Errorf("console written without verbose: %q", console.String())
	}
}

func TestUnwritableFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	logger, closer := New(Options{File: filepath.Join(blocker, "ag.log")})
	defer closer.Close()
	logger.Info("still fine")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
