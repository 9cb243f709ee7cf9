package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Paths struct {
	Root     string `yaml:"root" mapstructure:"root" jsonschema:"description=Root directory of the Agentic workspace."`
	Projects string `yaml:"projects_dir" mapstructure:"projects_dir" jsonschema:"description=Directory where new projects are created."`
	Tmp      string `yaml:"tmp_dir" mapstructure:"tmp_dir" jsonschema:"description=Scratch directory cleaned by 'ag cleanup tmp'."`
	Logs     string `yaml:"logs_dir" mapstructure:"logs_dir" jsonschema:"description=Directory for log files and the security event log."`
	Cache    string `yaml:"cache_dir" mapstructure:"cache_dir"`
	Backups  string `yaml:"backups_dir" mapstructure:"backups_dir" jsonschema:"description=Directory for virtual environment registry backups."`
	Registry string `yaml:"registry_file" mapstructure:"registry_file" jsonschema:"description=JSON file listing registered virtual environments."`
	Feedback string `yaml:"feedback_db" mapstructure:"feedback_db" jsonschema:"description=SQLite database holding feedback items."`
	Rules    string `yaml:"rules_file" mapstructure:"rules_file" jsonschema:"description=Rules document read by 'ag rule' (JSON or YAML, local path or URL)."`
}

type Python struct {
	PackageManager   string `yaml:"package_manager" mapstructure:"package_manager" jsonschema:"enum=uv,enum=pip,description=Tool used to create environments and install packages."`
	DefaultVersion   string `yaml:"default_python_version" mapstructure:"default_python_version"`
	VenvDir          string `yaml:"virtual_env_location" mapstructure:"virtual_env_location" jsonschema:"description=Environment directory name inside a project."`
	RequirementsFile string `yaml:"requirements_file" mapstructure:"requirements_file"`
}

type Project struct {
	DefaultLicense string   `yaml:"default_license" mapstructure:"default_license"`
	Directories    []string `yaml:"standard_directories" mapstructure:"standard_directories" jsonschema:"description=Directories created by 'ag project create'."`
	Files          []string `yaml:"standard_files" mapstructure:"standard_files" jsonschema:"description=Files created by 'ag project create'."`
}

type Security struct {
	AllowedAreas []string `yaml:"allowed_areas" mapstructure:"allowed_areas" jsonschema:"description=Path prefixes commands may touch."`
}

type Logging struct {
	Level string `yaml:"log_level" mapstructure:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type Backup struct {
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups" jsonschema:"description=Registry backups kept before the oldest are pruned." default:"10"`
}

// Dependency overrides or adds an external tool checked by 'ag dependency'.
type Dependency struct {
	MinVersion         string   `yaml:"min_version" mapstructure:"min_version"`
	RecommendedVersion string   `yaml:"recommended_version" mapstructure:"recommended_version"`
	VersionCommand     []string `yaml:"version_command" mapstructure:"version_command" jsonschema:"description=Command and arguments that print the installed version."`
	VersionRegex       string   `yaml:"version_regex" mapstructure:"version_regex" jsonschema:"description=Regular expression whose first group is the version."`
	InstallCommand     string   `yaml:"install_command" mapstructure:"install_command" jsonschema:"description=Shell command that installs or updates the tool."`
	Fallback           bool     `yaml:"fallback" mapstructure:"fallback"`
}

type Config struct {
	Version  string   `yaml:"version" mapstructure:"version"`
	Paths    Paths    `yaml:"paths" mapstructure:"paths"`
	Python   Python   `yaml:"python" mapstructure:"python"`
	Project  Project  `yaml:"project" mapstructure:"project"`
	Security Security `yaml:"security" mapstructure:"security"`
	Logging  Logging  `yaml:"logging" mapstructure:"logging"`
	Backup   Backup   `yaml:"backup" mapstructure:"backup"`

	Dependencies map[string]Dependency `yaml:"dependencies,omitempty" mapstructure:"dependencies"`
}

const DefaultMaxBackups = 10

// Defaults returns the built-in configuration as a nested map keyed the same
// way as the YAML file.
func Defaults() map[string]any {
	return map[string]any{
		"version": "1.0.0",
		"paths": map[string]any{
			"root":          "~/Agentic",
			"projects_dir":  "~/Agentic/projects",
			"tmp_dir":       "~/Agentic/tmp",
			"logs_dir":      "~/Agentic/logs",
			"cache_dir":     "~/Agentic/cache",
			"backups_dir":   "~/Agentic/backups",
			"registry_file": "~/Agentic/venv_registry.json",
			"feedback_db":   "~/Agentic/feedback.db",
			"rules_file":    "~/Agentic/agentic/rules.json",
		},
		"python": map[string]any{
			"package_manager":        "uv",
			"default_python_version": "3.11",
			"virtual_env_location":   ".venv",
			"requirements_file":      "requirements.txt",
		},
		"project": map[string]any{
			"default_license":      "MIT",
			"standard_directories": []any{"src", "tests", "docs", "data", "notebooks", "logs"},
			"standard_files":       []any{"README.md", "LICENSE", ".gitignore", "pyproject.toml"},
		},
		"security": map[string]any{
			"allowed_areas": []any{"~/Agentic"},
		},
		"logging": map[string]any{
			"log_level": "info",
			"log_file":  "~/Agentic/logs/ag.log",
		},
		"backup": map[string]any{
			"max_backups": DefaultMaxBackups,
		},
	}
}

// Validate checks values that would otherwise fail later in a confusing way.
func (c *Config) Validate() error {
	if c.Paths.Root == "" {
		return fmt.Errorf("paths.root is required")
	}
	switch c.Python.PackageManager {
	case "uv", "pip":
	default:
		return fmt.Errorf("python.package_manager: unsupported value %q (supported: uv, pip)", c.Python.PackageManager)
	}
	if c.Backup.MaxBackups < 0 {
		return fmt.Errorf("backup.max_backups must not be negative")
	}
	return nil
}

// expand resolves a leading ~ in every path-like field.
func (c *Config) expand() {
	for _, p := range []*string{
		&c.Paths.Root, &c.Paths.Projects, &c.Paths.Tmp, &c.Paths.Logs, &c.Paths.Cache,
		&c.Paths.Backups, &c.Paths.Registry, &c.Paths.Feedback, &c.Paths.Rules, &c.Logging.File,
	} {
		*p = ExpandPath(*p)
	}
	for i, a := range c.Security.AllowedAreas {
		c.Security.AllowedAreas[i] = ExpandPath(a)
	}
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// DefaultPath is where the config file lives unless overridden by --config or
// AG_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("AG_CONFIG"); p != "" {
		return p
	}
	return ExpandPath("~/Agentic/agentic_config.yaml")
}
