// Package dependency checks the external tools the workspace relies on against
// minimum and recommended versions, and builds the commands that install them
// or stand in for them when they are missing.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/takumiyoshikawa/agentic/internal/config"
	"github.com/takumiyoshikawa/agentic/internal/executor"
)

const defaultVersionRegex = `(\d+\.\d+\.\d+)`

var (
	ErrUnknown     = errors.New("unknown dependency")
	ErrNoInstall   = errors.New("no install command configured")
	ErrNoFallback  = errors.New("no fallback available")
	ErrUnsupported = errors.New("unsupported fallback action")
)

// Spec describes how to find and install one tool.
type Spec = config.Dependency

// Defaults returns the built-in tool specs.
func Defaults() map[string]Spec {
	return map[string]Spec{
		"uv": {
			MinVersion:         "0.1.0",
			RecommendedVersion: "0.1.11",
			VersionCommand:     []string{"uv", "--version"},
			VersionRegex:       defaultVersionRegex,
			InstallCommand:     "curl -LsSf https://astral.sh/uv/install.sh | sh",
			Fallback:           true,
		},
		"python": {
			MinVersion:         "3.8.0",
			RecommendedVersion: "3.12.0",
			VersionCommand:     []string{"python3", "--version"},
			VersionRegex:       `Python (\d+\.\d+\.\d+)`,
		},
	}
}

// Status is the result of checking one tool.
type Status struct {
	Name               string `json:"name"`
	Installed          bool   `json:"installed"`
	Version            string `json:"version,omitempty"`
	MinVersion         string `json:"min_version,omitempty"`
	RecommendedVersion string `json:"recommended_version,omitempty"`
	MeetsMin           bool   `json:"meets_min_requirements"`
	IsRecommended      bool   `json:"is_recommended_version"`
	FallbackAvailable  bool   `json:"fallback_available"`
	Error              string `json:"error,omitempty"`
}

// OK reports whether the tool is installed at or above its minimum version.
func (s Status) OK() bool {
	return s.Installed && s.MeetsMin
}

// Manager checks and installs tools through a Runner.
type Manager struct {
	Specs  map[string]Spec
	Runner executor.Runner
}

// NewManager layers overrides from the configuration over Defaults. An
// override replaces only the fields it sets.
func NewManager(overrides map[string]Spec, runner executor.Runner) *Manager {
	specs := Defaults()
	for name, o := range overrides {
		s := specs[name]
		if o.MinVersion != "" {
			s.MinVersion = o.MinVersion
		}
		if o.RecommendedVersion != "" {
			s.RecommendedVersion = o.RecommendedVersion
		}
		if len(o.VersionCommand) > 0 {
			s.VersionCommand = o.VersionCommand
		}
		if o.VersionRegex != "" {
			s.VersionRegex = o.VersionRegex
		}
		if o.InstallCommand != "" {
			s.InstallCommand = o.InstallCommand
		}
		if o.Fallback {
			s.Fallback = true
		}
		specs[name] = s
	}
	return &Manager{Specs: specs, Runner: runner}
}

// Names lists every known tool, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.Specs))
	for n := range m.Specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) spec(name string) (Spec, error) {
	s, ok := m.Specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return s, nil
}

// InstalledVersion runs the tool's version command and extracts the version.
// An empty result with a nil error means the tool is not installed.
func (m *Manager) InstalledVersion(ctx context.Context, name string) (string, error) {
	s, err := m.spec(name)
	if err != nil {
		return "", err
	}
	if len(s.VersionCommand) == 0 {
		return "", fmt.Errorf("no version command configured for %s", name)
	}
	pattern := s.VersionRegex
	if pattern == "" {
		pattern = defaultVersionRegex
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("version_regex for %s: %w", name, err)
	}

	bin, err := m.Runner.LookPath(s.VersionCommand[0])
	if err != nil {
		return "", nil
	}
	res, err := m.Runner.Capture(ctx, bin, s.VersionCommand[1:]...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		out = strings.TrimSpace(res.Stderr)
	}
	match := re.FindStringSubmatch(out)
	if len(match) < 2 {
		return "", fmt.Errorf("could not read %s version from %q", name, executor.FirstLine(out))
	}
	return match[1], nil
}

// Check reports whether name is installed and how its version compares with
// the configured minimum and recommendation.
func (m *Manager) Check(ctx context.Context, name string) Status {
	st := Status{Name: name}
	s, err := m.spec(name)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.MinVersion = s.MinVersion
	st.RecommendedVersion = s.RecommendedVersion
	st.FallbackAvailable = s.Fallback

	v, err := m.InstalledVersion(ctx, name)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	if v == "" {
		return st
	}
	st.Installed = true
	st.Version = v

	if s.MinVersion == "" {
		st.MeetsMin = true
	} else if ok, err := AtLeast(v, s.MinVersion); err != nil {
		st.Error = err.Error()
	} else {
		st.MeetsMin = ok
	}
	if s.RecommendedVersion != "" {
		st.IsRecommended, _ = AtLeast(v, s.RecommendedVersion)
	}
	return st
}

// CheckAll checks every known tool in name order.
func (m *Manager) CheckAll(ctx context.Context) []Status {
	names := m.Names()
	out := make([]Status, 0, len(names))
	for _, n := range names {
		out = append(out, m.Check(ctx, n))
	}
	return out
}

// InstallScript returns the shell command that installs name.
func (m *Manager) InstallScript(name string) (string, error) {
	s, err := m.spec(name)
	if err != nil {
		return "", err
	}
	if s.InstallCommand == "" {
		return "", fmt.Errorf("%w for %s", ErrNoInstall, name)
	}
	return s.InstallCommand, nil
}

// Compare returns -1, 0 or 1 as a is older than, equal to, or newer than b.
// Missing minor and patch components count as zero.
func Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// AtLeast reports whether version is at or above minimum.
func AtLeast(version, minimum string) (bool, error) {
	c, err := Compare(version, minimum)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

// FallbackArgs carries the inputs of a fallback action.
type FallbackArgs struct {
	Package       string
	VenvPath      string
	PythonVersion string
}

// Invocation is a command line ready for a Runner.
type Invocation struct {
	Name string
	Args []string
}

func (i Invocation) String() string {
	return executor.Quote(i.Name, i.Args...)
}

// Fallback builds the command that stands in for name when it is missing.
// uv supports "install-package" (pip install) and "create-venv" (python -m venv).
func (m *Manager) Fallback(name, action string, args FallbackArgs) (Invocation, error) {
	s, err := m.spec(name)
	if err != nil {
		return Invocation{}, err
	}
	if !s.Fallback {
		return Invocation{}, fmt.Errorf("%w for %s", ErrNoFallback, name)
	}
	if name != "uv" {
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, action, name)
	}

	switch action {
	case "install-package":
		if args.Package == "" {
			return Invocation{}, errors.New("install-package needs a package name")
		}
		pip := "pip"
		if args.VenvPath != "" {
			pip = venvPip(args.VenvPath)
		}
		return Invocation{Name: pip, Args: []string{"install", args.Package}}, nil
	case "create-venv":
		if args.VenvPath == "" {
			return Invocation{}, errors.New("create-venv needs a venv path")
		}
		return Invocation{Name: m.python(args.PythonVersion), Args: []string{"-m", "venv", args.VenvPath}}, nil
	default:
		return Invocation{}, fmt.Errorf("%w: %s for %s", ErrUnsupported, action, name)
	}
}

// python picks the most specific interpreter on PATH for version, e.g.
// python3.11 before python3.
func (m *Manager) python(version string) string {
	if version != "" {
		candidates := []string{"python" + version}
		if major, _, ok := strings.Cut(version, "."); ok {
			candidates = append(candidates, "python"+major)
		}
		for _, c := range candidates {
			if _, err := m.Runner.LookPath(c); err == nil {
				return c
			}
		}
	}
	return "python3"
}

func venvPip(venvPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvPath, "Scripts", "pip.exe")
	}
	return filepath.Join(venvPath, "bin", "pip")
}
