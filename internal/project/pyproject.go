package project

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type Pyproject struct {
	BuildSystem BuildSystem    `toml:"build-system"`
	Project     Metadata       `toml:"project"`
	Tool        map[string]any `toml:"tool,omitempty"`
}

type BuildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
}

type Metadata struct {
	Name           string   `toml:"name"`
	Version        string   `toml:"version"`
	Description    string   `toml:"description"`
	Readme         string   `toml:"readme,omitempty"`
	RequiresPython string   `toml:"requires-python,omitempty"`
	License        any      `toml:"license,omitempty"`
	Dependencies   []string `toml:"dependencies"`
}

func newPyproject(opts Options) Pyproject {
	return Pyproject{
		BuildSystem: BuildSystem{
			Requires:     []string{"setuptools>=42", "wheel"},
			BuildBackend: "setuptools.build_meta",
		},
		Project: Metadata{
			Name:           PackageName(opts.Name),
			Version:        "0.1.0",
			Description:    opts.Description,
			Readme:         "README.md",
			RequiresPython: ">=" + opts.PythonVersion,
			License:        map[string]string{"file": "LICENSE"},
			Dependencies:   []string{},
		},
		Tool: map[string]any{
			"pytest": map[string]any{
				"ini_options": map[string]any{
					"testpaths":    []string{"tests"},
					"python_files": "test_*.py",
				},
			},
			"ruff": map[string]any{
				"line-length":    88,
				"target-version": "py" + strings.ReplaceAll(opts.PythonVersion, ".", ""),
			},
		},
	}
}

func writePyproject(path string, opts Options) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("write pyproject.toml: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(newPyproject(opts)); err != nil {
		return fmt.Errorf("encode pyproject.toml: %w", err)
	}
	return nil
}

// ReadPyproject decodes the metadata sections of a pyproject.toml file.
func ReadPyproject(path string) (*Pyproject, error) {
	var py Pyproject
	if _, err := toml.DecodeFile(path, &py); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &py, nil
}
