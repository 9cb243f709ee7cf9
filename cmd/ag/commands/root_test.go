package commands

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takumiyoshikawa/agentic/internal/command"
	"github.com/takumiyoshikawa/agentic/internal/executor"
)

type harness struct {
	t       *testing.T
	root    string
	cfgPath string
	binDir  string
	fake    *executor.Fake
	stdin   string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "agentic_config.yaml")
	cfg := fmt.Sprintf(`paths:
  root: %[1]s
  projects_dir: %[1]s/projects
  tmp_dir: %[1]s/tmp
  logs_dir: %[1]s/logs
  cache_dir: %[1]s/cache
  backups_dir: %[1]s/backups
  registry_file: %[1]s/venv_registry.json
  feedback_db: %[1]s/feedback.db
  rules_file: %[1]s/rules.json
security:
  allowed_areas: [%[1]s]
logging:
  log_file: %[1]s/logs/ag.log
`, root)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	binDir := t.TempDir()
	t.Setenv("PATH", binDir)
	t.Setenv("AG_DEBUG", "")

	return &harness{
		t:       t,
		root:    root,
		cfgPath: cfgPath,
		binDir:  binDir,
		fake:    &executor.Fake{Responses: map[string]*executor.Result{}},
	}
}

func (h *harness) run(args ...string) command.ExitStatus {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	app := &App{
		Stdin:  strings.NewReader(h.stdin),
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Runner: h.fake,
		Now:    func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
	return run(context.Background(), append([]string{"--config", h.cfgPath}, args...), app)
}

func (h *harness) stderrLines() []string {
	return strings.Split(strings.TrimRight(h.stderr.String(), "\n"), "\n")
}

func makeVenvDir(t *testing.T, dir string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "python"), []byte("#!/bin/sh\n"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte("version = 3.11.9\n"), 0o600))
	return dir
}

func TestTopLevelHelp(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{{}, {"--help"}, {"-h"}} {
		require.Equal(t, command.ExitOK, h.run(args...), "args %v", args)
		out := h.stdout.String()
		assert.True(t, strings.HasPrefix(out, "Usage: ag <command> <subcommand> [<args>]\n"))
		assert.Empty(t, h.stderr.String())

		names := []string{"cleanup", "config", "dependency", "discover", "env", "feedback", "project", "rule", "security", "setup", "uv", "venv", "version"}
		last := -1
		for _, n := range names {
			idx := strings.Index(out, "\n  "+n+" ")
			require.Greater(t, idx, last, "command %s out of order", n)
			last = idx
		}
	}
}

func TestCommandHelp(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, command.ExitOK, h.run("env"))
	assert.Contains(t, h.stdout.String(), "Available subcommands for 'env':")
	assert.Contains(t, h.stdout.String(), "  check")
	assert.Contains(t, h.stdout.String(), "  fix")

	require.Equal(t, command.ExitOK, h.run("venv", "--help"))
	assert.Contains(t, h.stdout.String(), "Usage: ag venv <subcommand> [<args>]")
}

func TestUnknownCommandAndSubcommand(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, command.ExitUnknownCommand, h.run("frobnicate"))
	assert.Len(t, h.stderrLines(), 1)
	assert.Contains(t, h.stderr.String(), `"frobnicate"`)
	assert.Empty(t, h.stdout.String())

	assert.Equal(t, command.ExitUnknownCommand, h.run("venv", "explode"))
	assert.Len(t, h.stderrLines(), 1)
	assert.Contains(t, h.stderr.String(), `unknown subcommand "explode" for "venv"`)
}

func TestUnknownGlobalFlag(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, command.ExitBadArguments, h.run("--bogus", "version"))
	assert.Contains(t, h.stderr.String(), "unknown flag: --bogus")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, command.ExitOK, h.run("version"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "ag dev"))

	require.Equal(t, command.ExitOK, h.run("version", "--short"))
	assert.Equal(t, "dev\n", h.stdout.String())

	require.Equal(t, command.ExitOK, h.run("version", "--help"))
	assert.Contains(t, h.stdout.String(), "ag version [flags]")
	assert.Contains(t, h.stdout.String(), "--short")
	assert.NotContains(t, h.stdout.String(), "ag dev")

	assert.Equal(t, command.ExitBadArguments, h.run("version", "extra"))
}

func TestLeafHelpAndArgumentErrors(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, command.ExitOK, h.run("venv", "create", "--help"))
	assert.Contains(t, h.stdout.String(), "ag venv create <name>")
	assert.Contains(t, h.stdout.String(), "--python")

	assert.Equal(t, command.ExitBadArguments, h.run("venv", "create"))
	assert.Len(t, h.stderrLines(), 1)
	assert.True(t, strings.HasPrefix(h.stderr.String(), "ag: venv create: "))

	assert.Equal(t, command.ExitBadArguments, h.run("venv", "list", "--nope"))
	assert.Contains(t, h.stderr.String(), "unknown flag: --nope")
}

func TestConfigGetSet(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, command.ExitOK, h.run("config", "get", "paths.root"))
	assert.Equal(t, h.root+"\n", h.stdout.String())

	require.Equal(t, command.ExitOK, h.run("config", "set", "python.default_python_version", "3.10"))
	require.Equal(t, command.ExitOK, h.run("config", "get", "python.default_python_version"))
	assert.Equal(t, "3.10\n", h.stdout.String())

	assert.Equal(t, command.ExitBadArguments, h.run("config", "get", "no.such.key"))

	assert.Equal(t, command.ExitFailure, h.run("config", "set", "python.package_manager", "conda"))
	require.Equal(t, command.ExitOK, h.run("config", "get", "python.package_manager"))
	assert.Equal(t, "uv\n", h.stdout.String())

	require.Equal(t, command.ExitOK, h.run("config", "list"))
	assert.Contains(t, h.stdout.String(), "paths.root = "+h.root+"\n")
}

func TestConfigSetKeepsInvalidFile(t *testing.T) {
	h := newHarness(t)
	t.Setenv("HOME", h.root)
	f, err := os.OpenFile(h.cfgPath, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("python:\n  package_manager: conda\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	before, err := os.ReadFile(h.cfgPath)
	require.NoError(t, err)

	assert.Equal(t, command.ExitFailure, h.run("config", "set", "python.default_python_version", "3.12"))
	assert.Contains(t, h.stderr.String(), "warning: invalid config file")
	assert.Contains(t, h.stderr.String(), "refusing to overwrite "+h.cfgPath)

	after, err := os.ReadFile(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	require.Equal(t, command.ExitOK, h.run("config", "reset"), h.stderr.String())
	require.Equal(t, command.ExitOK, h.run("config", "get", "python.package_manager"))
	assert.Equal(t, "uv\n", h.stdout.String())
}

func TestConfigSchema(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.root, "schema", "config.schema.json")
	require.Equal(t, command.ExitOK, h.run("config", "schema", "-o", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "agentic", schema["title"])
}

func TestVenvLifecycle(t *testing.T) {
	h := newHarness(t)
	dir := makeVenvDir(t, filepath.Join(h.root, "projects", "demo", ".venv"))

	require.Equal(t, command.ExitOK, h.run("venv", "list"))
	assert.Equal(t, "No virtual environments registered.\n", h.stdout.String())

	assert.Equal(t, command.ExitBadArguments, h.run("venv", "add", dir))

	require.Equal(t, command.ExitOK, h.run("venv", "add", dir, "--project", "demo", "--description", "test env"))
	assert.Equal(t, command.ExitFailure, h.run("venv", "add", dir, "--project", "demo"))

	require.Equal(t, command.ExitOK, h.run("venv", "list", "--verbose"))
	assert.Contains(t, h.stdout.String(), "demo")
	assert.Contains(t, h.stdout.String(), "3.11.9")
	assert.Contains(t, h.stdout.String(), "ok")

	require.Equal(t, command.ExitOK, h.run("venv", "check", "demo"))
	assert.Contains(t, h.stdout.String(), "✓ "+dir)

	require.Equal(t, command.ExitOK, h.run("venv", "remove", "demo"))
	assert.Equal(t, command.ExitFailure, h.run("venv", "remove", "demo"))
}

func TestVenvCreateRunsUV(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.root, "projects", "svc", ".venv")
	h.fake.Responses["uv venv "+path+" --python 3.11"] = &executor.Result{}

	require.Equal(t, command.ExitOK, h.run("venv", "create", "svc"), h.stderr.String())
	assert.Contains(t, h.fake.Calls, "uv venv "+path+" --python 3.11")

	require.Equal(t, command.ExitOK, h.run("venv", "list"))
	assert.Contains(t, h.stdout.String(), path)

	other := filepath.Join(h.root, "projects", "other", ".venv")
	h.fake.Missing = map[string]bool{"uv": true}
	h.fake.Responses["python3 -m venv "+other] = &executor.Result{}
	require.Equal(t, command.ExitOK, h.run("venv", "create", "other"), h.stderr.String())
	assert.Contains(t, h.fake.Calls, "python3 -m venv "+other)

	h.fake.Missing["python3"] = true
	assert.Equal(t, command.ExitFailure, h.run("venv", "create", "third"))
	assert.Contains(t, h.stderr.String(), "python3 is not installed")
}

func TestVenvCleanup(t *testing.T) {
	h := newHarness(t)
	gone := makeVenvDir(t, filepath.Join(h.root, "projects", "gone", ".venv"))
	require.Equal(t, command.ExitOK, h.run("venv", "add", gone, "--project", "gone"))
	require.NoError(t, os.RemoveAll(gone))

	require.Equal(t, command.ExitOK, h.run("venv", "cleanup", "--dry-run"))
	assert.Contains(t, h.stdout.String(), "Would remove "+gone)

	require.Equal(t, command.ExitOK, h.run("venv", "cleanup"))
	assert.Contains(t, h.stdout.String(), "1 stale entries removed")

	require.Equal(t, command.ExitOK, h.run("venv", "list"))
	assert.Equal(t, "No virtual environments registered.\n", h.stdout.String())
}

func TestProjectCreateAndList(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, command.ExitBadArguments, h.run("project", "create", "Not_Kebab"))

	require.Equal(t, command.ExitOK, h.run("project", "create", "my-app", "--no-venv", "--no-git", "--description", "demo app"))
	assert.FileExists(t, filepath.Join(h.root, "projects", "my-app", "pyproject.toml"))
	assert.DirExists(t, filepath.Join(h.root, "projects", "my-app", "notebooks"))

	assert.Equal(t, command.ExitFailure, h.run("project", "create", "my-app", "--no-venv", "--no-git"))

	require.Equal(t, command.ExitOK, h.run("project", "list"))
	assert.Contains(t, h.stdout.String(), "my-app")
	assert.Contains(t, h.stdout.String(), "0.1.0")
	assert.Contains(t, h.stdout.String(), "demo app")
}

func TestFeedbackFlow(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, command.ExitBadArguments, h.run("feedback", "submit"))

	h.stdin = "details from stdin"
	require.Equal(t, command.ExitOK, h.run("feedback", "submit", "--title", "uv missing", "--type", "bug", "--tag", "uv"))
	id := strings.TrimSpace(h.stdout.String())
	assert.Len(t, id, 36)
	assert.Contains(t, h.stderr.String(), `unknown feedback type "bug"`)
	h.stdin = ""

	require.Equal(t, command.ExitOK, h.run("feedback", "get", id, "--json"))
	var item map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &item))
	assert.Equal(t, "other", item["type"])
	assert.Equal(t, "details from stdin", item["description"])

	assert.Equal(t, command.ExitBadArguments, h.run("feedback", "update", id, "--status", "done"))
	require.Equal(t, command.ExitOK, h.run("feedback", "update", id, "--status", "resolved"))
	require.Equal(t, command.ExitOK, h.run("feedback", "comment", id, "fixed by reinstall"))

	require.Equal(t, command.ExitOK, h.run("feedback", "list", "--status", "resolved", "--json"))
	var items []map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0]["id"])

	require.Equal(t, command.ExitOK, h.run("feedback", "stats"))
	assert.Contains(t, h.stdout.String(), "Total: 1")

	assert.Equal(t, command.ExitFailure, h.run("feedback", "get", "missing-id"))
}

func TestSecurityCommands(t *testing.T) {
	h := newHarness(t)
	file := filepath.Join(h.root, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("plain text\n"), 0o600))
	sum := sha256.Sum256([]byte("plain text\n"))
	digest := hex.EncodeToString(sum[:])

	require.Equal(t, command.ExitOK, h.run("security", "check-path", file))
	assert.Equal(t, command.ExitFailure, h.run("security", "check-path", "/etc/passwd"))
	assert.Len(t, h.stderrLines(), 1)

	assert.Equal(t, command.ExitFailure, h.run("security", "validate-command", "rm", "-rf", "/"))
	require.Equal(t, command.ExitOK, h.run("security", "validate-command", "sudo", "ls"))
	assert.Contains(t, h.stdout.String(), "Warning:")

	require.Equal(t, command.ExitOK, h.run("security", "hash-file", file))
	assert.Equal(t, digest+"  "+file+"\n", h.stdout.String())

	require.Equal(t, command.ExitOK, h.run("security", "verify-integrity", file, digest))
	assert.Equal(t, command.ExitFailure, h.run("security", "verify-integrity", file, strings.Repeat("0", 64)))

	require.Equal(t, command.ExitOK, h.run("security", "scan-file", file))
	assert.Contains(t, h.stdout.String(), "No issues found")

	assert.FileExists(t, filepath.Join(h.root, "logs", "security_events.jsonl"))
}

func TestCleanupCommands(t *testing.T) {
	h := newHarness(t)
	old := filepath.Join(h.root, "tmp", "old.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0o750))
	require.NoError(t, os.WriteFile(old, []byte("stale"), 0o600))
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, past, past))

	require.Equal(t, command.ExitOK, h.run("cleanup", "tmp", "--dry-run"))
	assert.Contains(t, h.stdout.String(), "Would delete: "+old)
	assert.FileExists(t, old)

	require.Equal(t, command.ExitOK, h.run("cleanup", "tmp", "--days", "30"))
	assert.NoFileExists(t, old)

	orphan := makeVenvDir(t, filepath.Join(h.root, "projects", "lost", ".venv"))
	require.Equal(t, command.ExitOK, h.run("cleanup", "check-orphaned-venvs"))
	assert.Contains(t, h.stdout.String(), orphan)
	require.Equal(t, command.ExitOK, h.run("cleanup", "check-orphaned-venvs", "--remove"))
	assert.NoDirExists(t, orphan)

	require.Equal(t, command.ExitOK, h.run("cleanup", "disk-usage"))
	assert.Contains(t, h.stdout.String(), "Projects:")
	assert.Contains(t, h.stdout.String(), "directory does not exist")
}

func TestUVDryRun(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, command.ExitOK, h.run("uv", "install-python", "3.12", "--dry-run"))
	assert.Equal(t, "Would run: uv python install 3.12\n", h.stdout.String())
	assert.Empty(t, h.fake.Calls)

	h.fake.Responses["uv cache clean"] = &executor.Result{ExitCode: 2, Stderr: "locked\n"}
	assert.Equal(t, command.ExitFailure, h.run("uv", "clean-cache"))
	assert.Contains(t, h.stderr.String(), "uv exited with status 2")

	h.fake.Responses["/usr/bin/uv --version"] = &executor.Result{Stdout: "uv 0.5.1\n"}
	require.Equal(t, command.ExitOK, h.run("uv", "install"))
	assert.Equal(t, "uv is already installed (uv 0.5.1)\n", h.stdout.String())
}

func TestDependencyCommands(t *testing.T) {
	h := newHarness(t)
	h.fake.Responses["/usr/bin/uv --version"] = &executor.Result{Stdout: "uv 0.5.1\n"}
	h.fake.Responses["/usr/bin/python3 --version"] = &executor.Result{Stdout: "Python 3.7.0\n"}

	require.Equal(t, command.ExitOK, h.run("dependency", "check", "uv"), h.stderr.String())
	var st map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &st))
	assert.Equal(t, "0.5.1", st["version"])
	assert.Equal(t, true, st["meets_min_requirements"])

	assert.Equal(t, command.ExitFailure, h.run("dependency", "check", "python"))
	assert.Contains(t, h.stdout.String(), `"meets_min_requirements": false`)
	assert.Equal(t, command.ExitBadArguments, h.run("dependency", "check", "nope"))

	require.Equal(t, command.ExitOK, h.run("dependency", "list"))
	assert.Contains(t, h.stdout.String(), "NAME")
	assert.Contains(t, h.stdout.String(), "too old")

	require.Equal(t, command.ExitOK, h.run("dependency", "list", "--json"))
	var all map[string]map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &all))
	assert.Contains(t, all, "uv")
	assert.Contains(t, all, "python")

	require.Equal(t, command.ExitOK, h.run("dependency", "install", "uv", "--dry-run"))
	assert.Equal(t, "Would run: sh -c 'curl -LsSf https://astral.sh/uv/install.sh | sh'\n", h.stdout.String())
	assert.Equal(t, command.ExitFailure, h.run("dependency", "update", "python"))
	assert.Contains(t, h.stderr.String(), "no install command configured")

	require.Equal(t, command.ExitOK, h.run("dependency", "fallback", "uv", "install-package", "--package", "requests", "--dry-run"))
	assert.Equal(t, "Would run: pip install requests\n", h.stdout.String())
	assert.Equal(t, command.ExitBadArguments, h.run("dependency", "fallback", "uv", "explode"))
}

func TestDependencyFromConfig(t *testing.T) {
	h := newHarness(t)
	h.fake.Responses["/usr/bin/node -v"] = &executor.Result{Stdout: "v20.11.0\n"}

	require.Equal(t, command.ExitOK, h.run("config", "set", "dependencies.node.version_command", "[node, -v]"), h.stderr.String())
	require.Equal(t, command.ExitOK, h.run("config", "set", "dependencies.node.min_version", "18.0.0"), h.stderr.String())

	require.Equal(t, command.ExitOK, h.run("dependency", "check", "node"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), `"version": "20.11.0"`)
}

func TestRuleCommands(t *testing.T) {
	h := newHarness(t)
	rulesPath := filepath.Join(h.root, "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`{"rules": {"python_environment": {"package_manager": "uv"}},
"utility_scripts": {"cleanup": {"purpose": "Remove temporary files"}}}`), 0o600))

	require.Equal(t, command.ExitOK, h.run("rule", "list"), h.stderr.String())
	assert.Equal(t, "Rule categories:\n  - python_environment\n", h.stdout.String())

	require.Equal(t, command.ExitOK, h.run("rule", "list", "--utility-scripts"))
	assert.Contains(t, h.stdout.String(), "  - cleanup: Remove temporary files")

	require.Equal(t, command.ExitOK, h.run("rule", "query", "python_environment", "--subcategory", "package_manager"))
	assert.Equal(t, "\"uv\"\n", h.stdout.String())
	assert.Equal(t, command.ExitFailure, h.run("rule", "query", "nope"))
	assert.Contains(t, h.stderr.String(), "no rule found")
	assert.Equal(t, command.ExitBadArguments, h.run("rule", "query", "python_environment", "--key", "x"))

	quizPath := filepath.Join(h.root, "quiz.yaml")
	require.NoError(t, os.WriteFile(quizPath, []byte("rules:\n  python_environment:\n    package_manager: uv\n"), 0o600))
	resultPath := filepath.Join(h.root, "verification.json")
	h.stdin = "uv\n"
	require.Equal(t, command.ExitOK, h.run("rule", "verify", "--rules", quizPath, "--output", resultPath), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "Score: 100.0% (1/1)")
	assert.Contains(t, h.stdout.String(), "Correct!")
	assert.FileExists(t, resultPath)

	h.stdin = "pip\n"
	assert.Equal(t, command.ExitFailure, h.run("rule", "verify", "--rules", quizPath, "--seed", "7"))
	assert.Contains(t, h.stdout.String(), "Incorrect. The correct answer is:")

	require.Equal(t, command.ExitOK, h.run("rule", "verify", "--non-interactive"))
	assert.Contains(t, h.stdout.String(), "Expected answer:")

	assert.Equal(t, command.ExitFailure, h.run("rule", "list", "--rules", filepath.Join(h.root, "absent.json")))
}

func TestDiscoverInfo(t *testing.T) {
	h := newHarness(t)
	t.Setenv("AGHOME", "")

	require.Equal(t, command.ExitOK, h.run("discover", "info"), h.stderr.String())
	out := h.stdout.String()
	assert.Contains(t, out, "Agentic (v1.0.0)")
	assert.Contains(t, out, "Home directory: "+h.root)
	assert.Contains(t, out, "  - Rule: ag rule\n")
	assert.Contains(t, out, "  - Tmp: "+filepath.Join(h.root, "tmp"))

	require.Equal(t, command.ExitOK, h.run("discover", "info", "--json"))
	var info map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &info))
	cmds, ok := info["utility_commands"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ag feedback", cmds["feedback"])

	require.Equal(t, command.ExitOK, h.run("discover", "info", "--check"))
	assert.Contains(t, h.stderr.String(), "ag: warning: missing "+filepath.Join(h.root, "docs", "README.md"))

	assert.Equal(t, command.ExitFailure, h.run("discover", "info", "--path", filepath.Join(h.root, "absent")))
	assert.Contains(t, h.stderr.String(), "agentic workspace not found")
}

func TestSetupInstallDependencies(t *testing.T) {
	h := newHarness(t)
	h.fake.Responses["/usr/bin/uv --version"] = &executor.Result{Stdout: "uv 0.5.1\n"}
	h.fake.Responses["/usr/bin/python3 --version"] = &executor.Result{Stdout: "Python 3.12.1\n"}

	require.Equal(t, command.ExitOK, h.run("setup", "install-dependencies"), h.stderr.String())
	assert.Contains(t, h.stdout.String(), "✓ uv is already installed (uv 0.5.1)")
	assert.Contains(t, h.stdout.String(), "✓ python 3.12.1 (ok)")

	require.Equal(t, command.ExitOK, h.run("setup", "install-dependencies", "--update", "--dry-run"))
	assert.Contains(t, h.stdout.String(), "Would run: uv self update\n")

	h.fake.Missing = map[string]bool{"uv": true}
	require.Equal(t, command.ExitOK, h.run("setup", "install-dependencies", "--dry-run"))
	assert.Equal(t, "Would run: sh -c 'curl -LsSf https://astral.sh/uv/install.sh | sh'\n", h.stdout.String())

	assert.Equal(t, command.ExitFailure, h.run("setup", "install-dependencies"))
}

func TestEnvCheckAndSetup(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, command.ExitFailure, h.run("env", "check"))
	assert.Contains(t, h.stdout.String(), "✗ Projects missing")

	require.Equal(t, command.ExitOK, h.run("env", "check", "--fix"))
	assert.DirExists(t, filepath.Join(h.root, "projects"))

	require.Equal(t, command.ExitOK, h.run("setup", "all"))
	assert.FileExists(t, filepath.Join(h.root, "venv_registry.json"))
	assert.Contains(t, h.stdout.String(), "Setup complete.")

	require.Equal(t, command.ExitOK, h.run("setup", "initialize-registry"))
	assert.Contains(t, h.stdout.String(), "Registry already exists")
}

func TestPlugins(t *testing.T) {
	h := newHarness(t)
	pluginPath := filepath.Join(h.binDir, "ag-hello")
	require.NoError(t, os.WriteFile(pluginPath, []byte("#!/bin/sh\n"), 0o755))
	h.fake.Responses[pluginPath+" a --flag"] = &executor.Result{Stdout: "hello from plugin\n"}

	require.Equal(t, command.ExitOK, h.run())
	assert.Contains(t, h.stdout.String(), "  hello ")

	require.Equal(t, command.ExitOK, h.run("hello", "a", "--flag"))
	assert.Equal(t, "hello from plugin\n", h.stdout.String())

	assert.Equal(t, command.ExitUnknownCommand, h.run("--no-plugins", "hello"))
}

func TestPluginShadowingBuiltinWarns(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.binDir, "ag-version"), []byte("#!/bin/sh\n"), 0o755))

	require.Equal(t, command.ExitOK, h.run("version"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "ag dev"))
	assert.Contains(t, h.stderr.String(), `ag: warning: command "ag-version" skipped`)
}
