// Package project scaffolds Python projects with the standard Agentic layout
// and reads them back through their pyproject.toml.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

var ErrExists = errors.New("project directory already exists")

// ValidName reports whether name is kebab-case.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// PackageName converts a kebab-case project name into a Python package name.
func PackageName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

type Options struct {
	Name          string
	Description   string
	License       string
	PythonVersion string
	Directories   []string
	Files         []string
}

type Project struct {
	Name    string
	Path    string
	Created []string
}

// Create writes a new project under parent. It fails if the target directory
// already exists.
func Create(parent string, opts Options) (*Project, error) {
	if !ValidName(opts.Name) {
		return nil, fmt.Errorf("invalid project name %q: use kebab-case (e.g. my-project)", opts.Name)
	}
	if opts.Description == "" {
		opts.Description = "A new Agentic project"
	}
	if opts.License == "" {
		opts.License = "MIT"
	}
	if opts.PythonVersion == "" {
		opts.PythonVersion = "3.11"
	}
	if opts.Files == nil {
		opts.Files = []string{"README.md", "LICENSE", ".gitignore", "pyproject.toml"}
	}

	dir := filepath.Join(parent, opts.Name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}

	p, err := populate(dir, opts)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, errors.Join(err, fmt.Errorf("remove partial project: %w", rmErr))
		}
		return nil, err
	}
	return p, nil
}

// populate writes the standard layout into the freshly created dir.
func populate(dir string, opts Options) (*Project, error) {
	p := &Project{Name: opts.Name, Path: dir}
	for _, d := range opts.Directories {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
		p.Created = append(p.Created, d+"/")
		if d == "src" || d == "tests" {
			if err := writeFile(filepath.Join(dir, d, "__init__.py"), ""); err != nil {
				return nil, err
			}
		}
	}

	writers := map[string]func(string, Options) error{
		"README.md":      writeReadme,
		"LICENSE":        writeLicense,
		".gitignore":     writeGitignore,
		"pyproject.toml": writePyproject,
	}
	for _, f := range opts.Files {
		w, ok := writers[f]
		if !ok {
			w = func(path string, _ Options) error { return writeFile(path, "") }
		}
		if err := w(filepath.Join(dir, f), opts); err != nil {
			return nil, err
		}
		p.Created = append(p.Created, f)
	}
	return p, nil
}

// Summary describes an existing project.
type Summary struct {
	Name        string
	Path        string
	Version     string
	Description string
	HasVenv     bool
}

// List returns every project directory under parent, sorted by name.
// Directories without a readable pyproject.toml are listed with an empty
// version.
func List(parent, venvDir string) ([]Summary, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(parent, e.Name())
		s := Summary{Name: e.Name(), Path: dir}
		if py, err := ReadPyproject(filepath.Join(dir, "pyproject.toml")); err == nil {
			s.Version = py.Project.Version
			s.Description = py.Project.Description
		}
		if venvDir != "" {
			if info, err := os.Stat(filepath.Join(dir, venvDir)); err == nil && info.IsDir() {
				s.HasVenv = true
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeReadme(path string, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", opts.Name, opts.Description)
	b.WriteString("## Getting Started\n\n")
	b.WriteString("```bash\nsource .venv/bin/activate\nuv pip install -e .\npytest\n```\n\n")
	b.WriteString("## License\n\nSee the [LICENSE](LICENSE) file for details.\n")
	return writeFile(path, b.String())
}

func writeLicense(path string, opts Options) error {
	year := time.Now().Year()
	if strings.EqualFold(opts.License, "MIT") {
		return writeFile(path, fmt.Sprintf(mitLicense, year))
	}
	return writeFile(path, fmt.Sprintf("Copyright (c) %d\n\nThis project is licensed under the %s License.\n", year, opts.License))
}

func writeGitignore(path string, _ Options) error {
	return writeFile(path, gitignore)
}

const mitLicense = `MIT License

Copyright (c) %d

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

const gitignore = `# Python
__pycache__/
*.py[cod]
*.so
build/
dist/
*.egg-info/

# Virtual environment
.venv/
venv/

# Testing
.coverage
htmlcov/
.pytest_cache/

# uv
.uv/
`
