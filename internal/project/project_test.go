package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"my-project", true},
		{"demo", true},
		{"api2-client", true},
		{"My-Project", false},
		{"my_project", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--dash", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.name); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	t.Run("writes standard layout", func(t *testing.T) {
		parent := t.TempDir()
		p, err := Create(parent, Options{
			Name:          "data-tool",
			Description:   "Crunches numbers",
			PythonVersion: "3.12",
			Directories:   []string{"src", "tests", "docs"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, rel := range []string{"src/__init__.py", "tests/__init__.py", "docs", "README.md", "LICENSE", ".gitignore", "pyproject.toml"} {
			if _, err := os.Stat(filepath.Join(p.Path, rel)); err != nil {
				t.Errorf("expected %s to exist: %v", rel, err)
			}
		}

		py, err := ReadPyproject(filepath.Join(p.Path, "pyproject.toml"))
		if err != nil {
			t.Fatalf("unexpected error reading pyproject: %v", err)
		}
		if py.Project.Name != "data_tool" {
			t.Errorf("expected package name data_tool, got %s", py.Project.Name)
		}
		if py.Project.RequiresPython != ">=3.12" {
			t.Errorf("expected requires-python >=3.12, got %s", py.Project.RequiresPython)
		}
		if py.BuildSystem.BuildBackend != "setuptools.build_meta" {
			t.Errorf("unexpected build backend %s", py.BuildSystem.BuildBackend)
		}

		license, err := os.ReadFile(filepath.Join(p.Path, "LICENSE"))
		if err != nil {
			t.Fatalf("read LICENSE: %v", err)
		}
		if !strings.HasPrefix(string(license), "MIT License") {
			t.Errorf("expected MIT license, got %q", string(license)[:20])
		}
	})

	t.Run("rejects invalid name", func(t *testing.T) {
		if _, err := Create(t.TempDir(), Options{Name: "Bad_Name"}); err == nil {
			t.Error("expected error for invalid name")
		}
	})

	t.Run("refuses existing directory", func(t *testing.T) {
		parent := t.TempDir()
		if err := os.Mkdir(filepath.Join(parent, "taken"), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		_, err := Create(parent, Options{Name: "taken"})
		if !errors.Is(err, ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
	})

	t.Run("other license gets placeholder", func(t *testing.T) {
		p, err := Create(t.TempDir(), Options{Name: "apache-thing", License: "Apache-2.0"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(p.Path, "LICENSE"))
		if err != nil {
			t.Fatalf("read LICENSE: %v", err)
		}
		if !strings.Contains(string(data), "Apache-2.0 License") {
			t.Errorf("unexpected license text %q", data)
		}
	})
}

func TestCreateRemovesPartialProject(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "half-done")

	// README.md as a directory makes the later file write fail.
	_, err := Create(parent, Options{Name: "half-done", Directories: []string{"src", "README.md"}})
	if err == nil {
		t.Fatal("Create() succeeded with a conflicting layout")
	}
	if _, statErr := os.Stat(dir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial project left behind: stat err = %v", statErr)
	}

	if _, err := Create(parent, Options{Name: "half-done", Directories: []string{"src"}}); err != nil {
		t.Fatalf("Create() retry error: %v", err)
	}
}

func TestList(t *testing.T) {
	parent := t.TempDir()
	if _, err := Create(parent, Options{Name: "zeta", Description: "last"}); err != nil {
		t.Fatalf("create zeta: %v", err)
	}
	if _, err := Create(parent, Options{Name: "alpha", Description: "first"}); err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(parent, "alpha", ".venv"), 0o750); err != nil {
		t.Fatalf("mkdir venv: %v", err)
	}
	if err := os.Mkdir(filepath.Join(parent, "loose"), 0o750); err != nil {
		t.Fatalf("mkdir loose: %v", err)
	}
	if err := os.Mkdir(filepath.Join(parent, ".hidden"), 0o750); err != nil {
		t.Fatalf("mkdir hidden: %v", err)
	}

	got, err := List(parent, ".venv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(got))
	}
	if got[0].Name != "alpha" || got[1].Name != "loose" || got[2].Name != "zeta" {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got[0].HasVenv || got[2].HasVenv {
		t.Errorf("unexpected venv detection: %+v", got)
	}
	if got[0].Version != "0.1.0" || got[0].Description != "first" {
		t.Errorf("unexpected metadata for alpha: %+v", got[0])
	}
	if got[1].Version != "" {
		t.Errorf("expected no version for loose directory, got %s", got[1].Version)
	}

	missing, err := List(filepath.Join(parent, "nope"), ".venv")
	if err != nil || len(missing) != 0 {
		t.Errorf("expected empty result for missing directory, got %v, %v", missing, err)
	}
}
