package discover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	explicit := t.TempDir()
	home := t.TempDir()
	fallback := t.TempDir()

	t.Setenv(HomeEnv, home)
	if got, err := FindRoot(explicit, fallback); err != nil || got != explicit {
		t.Errorf("FindRoot(explicit) = %q, %v; want %q", got, err, explicit)
	}
	if got, err := FindRoot("", fallback); err != nil || got != home {
		t.Errorf("FindRoot($AGHOME) = %q, %v; want %q", got, err, home)
	}

	t.Setenv(HomeEnv, "")
	if got, err := FindRoot("", fallback); err != nil || got != fallback {
		t.Errorf("FindRoot(fallback) = %q, %v; want %q", got, err, fallback)
	}

	missing := filepath.Join(fallback, "absent")
	if _, err := FindRoot(missing, fallback); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindRoot(missing explicit) error = %v, want ErrNotFound", err)
	}
	if _, err := FindRoot("", missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindRoot(nothing) error = %v, want ErrNotFound", err)
	}
}

func TestLoadDefaultAndFile(t *testing.T) {
	root := t.TempDir()
	info, err := Load(root, filepath.Join(root, "venv_registry.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if info.HomeDirectory != root {
		t.Errorf("HomeDirectory = %q, want %q", info.HomeDirectory, root)
	}
	if got := info.DirectoryStructure["tmp"]; got != filepath.Join(root, "tmp") {
		t.Errorf("tmp dir = %q", got)
	}
	if got := info.Documentation["readme"]; got != filepath.Join(root, "docs", "README.md") {
		t.Errorf("readme = %q", got)
	}

	dir := filepath.Join(root, "projects", "agentic-core")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	content := `{"framework_name": "Agentic", "version": "2.0.0", "home_directory": "$HOME/Agentic",
"documentation": {"readme": "$HOME/Agentic/docs/README.md"}, "registry": {"path": "$HOME/Agentic/r.json"}}`
	if err := os.WriteFile(filepath.Join(dir, InfoFile), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	info, err = Load(root, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if info.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", info.Version)
	}
	info.ExpandHome("/home/agent")
	if info.HomeDirectory != "/home/agent/Agentic" {
		t.Errorf("HomeDirectory = %q", info.HomeDirectory)
	}
	if info.Documentation["readme"] != "/home/agent/Agentic/docs/README.md" {
		t.Errorf("readme = %q", info.Documentation["readme"])
	}
	if info.Registry.Path != "/home/agent/Agentic/r.json" {
		t.Errorf("registry = %q", info.Registry.Path)
	}
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	if got := len(Check(root)); got != 3+len(Dirs) {
		t.Fatalf("Check(empty) found %d problems, want %d", got, 3+len(Dirs))
	}

	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o750); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"AGENT_RULES.md", "AGENT_QUICK_REFERENCE.md", "README.md"} {
		if err := os.WriteFile(filepath.Join(root, "docs", f), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	for _, d := range Dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o750); err != nil {
			t.Fatal(err)
		}
	}
	if got := Check(root); len(got) != 0 {
		t.Errorf("Check(complete) = %v, want none", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("agent_quick_reference"); got != "Agent Quick Reference" {
		t.Errorf("Title() = %q", got)
	}
}
