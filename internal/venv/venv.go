package venv

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Add registers env. Paths are compared after cleaning.
func (r *Registry) Add(env Environment) error {
	env.Path = filepath.Clean(env.Path)
	if _, ok := r.Find(env.Path); ok {
		return fmt.Errorf("%w: %s", ErrExists, env.Path)
	}
	r.Environments = append(r.Environments, env)
	return nil
}

// Find looks an environment up by path or project name.
func (r *Registry) Find(pathOrProject string) (*Environment, bool) {
	clean := filepath.Clean(pathOrProject)
	for i := range r.Environments {
		e := &r.Environments[i]
		if e.Path == clean || e.Project == pathOrProject {
			return e, true
		}
	}
	return nil, false
}

// Remove drops the environment matching path or project name.
func (r *Registry) Remove(pathOrProject string) (Environment, error) {
	clean := filepath.Clean(pathOrProject)
	for i, e := range r.Environments {
		if e.Path == clean || e.Project == pathOrProject {
			r.Environments = append(r.Environments[:i], r.Environments[i+1:]...)
			return e, nil
		}
	}
	return Environment{}, fmt.Errorf("%w: %s", ErrNotFound, pathOrProject)
}

// Missing returns environments whose directory no longer exists.
func (r *Registry) Missing() []Environment {
	var out []Environment
	for _, e := range r.Environments {
		if _, err := os.Stat(e.Path); errors.Is(err, os.ErrNotExist) {
			out = append(out, e)
		}
	}
	return out
}

// Prune removes environments whose directory no longer exists and returns them.
func (r *Registry) Prune() []Environment {
	missing := r.Missing()
	if len(missing) == 0 {
		return nil
	}
	gone := make(map[string]bool, len(missing))
	for _, e := range missing {
		gone[e.Path] = true
	}
	kept := r.Environments[:0]
	for _, e := range r.Environments {
		if !gone[e.Path] {
			kept = append(kept, e)
		}
	}
	r.Environments = kept
	return missing
}

// Sorted returns the environments ordered by project name, then path.
func (r *Registry) Sorted() []Environment {
	out := append([]Environment(nil), r.Environments...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// PythonPath returns the interpreter path inside a virtual environment.
func PythonPath(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "python.exe")
	}
	return filepath.Join(venvPath, "bin", "python")
}

// Verify checks that venvPath looks like a virtual environment: a pyvenv.cfg
// and an interpreter.
func Verify(venvPath string) error {
	info, err := os.Stat(venvPath)
	if err != nil {
		return fmt.Errorf("virtual environment %s: %w", venvPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("virtual environment %s is not a directory", venvPath)
	}
	if _, err := os.Stat(filepath.Join(venvPath, "pyvenv.cfg")); err != nil {
		return fmt.Errorf("virtual environment %s has no pyvenv.cfg", venvPath)
	}
	if _, err := os.Stat(PythonPath(venvPath)); err != nil {
		return fmt.Errorf("virtual environment %s has no python interpreter", venvPath)
	}
	return nil
}

// PythonVersion reads the interpreter version recorded in pyvenv.cfg. It
// returns "" when the file or the key is missing.
func PythonVersion(venvPath string) string {
	f, err := os.Open(filepath.Join(venvPath, "pyvenv.cfg"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "version", "version_info":
			return strings.TrimSpace(val)
		}
	}
	return ""
}
