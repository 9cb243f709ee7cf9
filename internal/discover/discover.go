// Package discover locates an Agentic workspace and describes it: where its
// documentation and directories live and which commands operate on it.
package discover

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HomeEnv names the environment variable that points at the workspace root.
const HomeEnv = "AGHOME"

// InfoFile is read from <root>/projects/agentic-core when present.
const InfoFile = "agentic_info.json"

var ErrNotFound = errors.New("agentic workspace not found")

// Registry describes the virtual environment registry file.
type Registry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Info describes a workspace.
type Info struct {
	FrameworkName          string            `json:"framework_name"`
	Version                string            `json:"version"`
	Description            string            `json:"description"`
	HomeDirectory          string            `json:"home_directory"`
	Documentation          map[string]string `json:"documentation"`
	DirectoryStructure     map[string]string `json:"directory_structure"`
	UtilityCommands        map[string]string `json:"utility_commands"`
	Registry               Registry          `json:"registry"`
	RecommendedEntryPrompt string            `json:"recommended_entry_prompt,omitempty"`
}

var docFiles = map[string]string{
	"agent_rules":           "AGENT_RULES.md",
	"agent_quick_reference": "AGENT_QUICK_REFERENCE.md",
	"human_guide":           "HUMAN_GUIDE.md",
	"readme":                "README.md",
}

// Dirs are the directories every workspace is expected to have.
var Dirs = []string{"projects", "shared", "tmp", "logs", "cache", "backups"}

// FindRoot picks the workspace root: explicit, then $AGHOME, then fallback.
// Each candidate must be an existing directory.
func FindRoot(explicit, fallback string) (string, error) {
	candidates := []string{explicit, os.Getenv(HomeEnv), fallback}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if fi, err := os.Stat(c); err == nil && fi.IsDir() {
			return filepath.Abs(c)
		}
		if c == explicit {
			return "", fmt.Errorf("%w at %s", ErrNotFound, explicit)
		}
	}
	return "", fmt.Errorf("%w; set %s or pass --path", ErrNotFound, HomeEnv)
}

// Load reads <root>/projects/agentic-core/agentic_info.json, or describes
// root with defaults when that file does not exist.
func Load(root, registryPath string) (*Info, error) {
	path := filepath.Join(root, "projects", "agentic-core", InfoFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(root, registryPath), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &info, nil
}

// Default describes root without an info file.
func Default(root, registryPath string) *Info {
	info := &Info{
		FrameworkName:      "Agentic",
		Version:            "1.0.0",
		Description:        "A framework for managing and operating AI agents with controlled access to a machine",
		HomeDirectory:      root,
		Documentation:      map[string]string{},
		DirectoryStructure: map[string]string{},
		UtilityCommands:    map[string]string{},
		Registry: Registry{
			Path:        registryPath,
			Description: "Registry of active Python virtual environments",
		},
	}
	for key, file := range docFiles {
		info.Documentation[key] = filepath.Join(root, "docs", file)
	}
	for _, d := range Dirs {
		info.DirectoryStructure[d] = filepath.Join(root, d)
	}
	return info
}

// ExpandHome replaces $HOME placeholders in every string field with home.
func (i *Info) ExpandHome(home string) {
	r := strings.NewReplacer("$HOME", home)
	for _, p := range []*string{&i.HomeDirectory, &i.Registry.Path, &i.Registry.Description, &i.Description} {
		*p = r.Replace(*p)
	}
	for _, m := range []map[string]string{i.Documentation, i.DirectoryStructure, i.UtilityCommands} {
		for k, v := range m {
			m[k] = r.Replace(v)
		}
	}
}

// Check lists what root is missing: documentation files and directories.
func Check(root string) []string {
	var missing []string
	keys := make([]string, 0, len(docFiles))
	for k := range docFiles {
		if k != "human_guide" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := filepath.Join(root, "docs", docFiles[k])
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			missing = append(missing, p)
		}
	}
	for _, d := range Dirs {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			missing = append(missing, p+string(filepath.Separator))
		}
	}
	return missing
}

// Title turns a snake_case key into "Snake Case".
func Title(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SortedKeys returns the keys of m in order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
