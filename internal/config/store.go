package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to upper-cased keys for environment overrides, e.g.
// AG_PATHS_ROOT overrides paths.root.
const EnvPrefix = "AG"

// Store is the layered view of the configuration: built-in defaults, then the
// YAML file, then AG_* environment variables. Only file values are persisted.
type Store struct {
	path    string
	data    map[string]any
	v       *viper.Viper
	loadErr error
}

// New returns a store for path holding only defaults.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{path: path, data: map[string]any{}}
	s.rebuild()
	return s
}

// Fallback returns a defaults-only store for a file that failed to load.
// Save refuses to overwrite that file until Reset is called.
func Fallback(path string, cause error) *Store {
	s := New(path)
	s.loadErr = cause
	return s
}

// Load reads the YAML file at path (DefaultPath when empty). A missing file is
// not an error.
func Load(path string) (*Store, error) {
	s := New(path)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	s.data = data
	s.rebuild()

	if _, err := s.Config(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", s.path, err)
	}
	return s, nil
}

func (s *Store) rebuild() {
	v := viper.New()
	for key, val := range flatten("", Defaults()) {
		v.SetDefault(key, val)
	}
	_ = v.MergeConfigMap(s.data)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	s.v = v
}

func (s *Store) Path() string { return s.path }

// Config decodes the effective configuration with ~ expanded.
func (s *Store) Config() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.expand()
	return &cfg, nil
}

// Get returns the effective value of a dotted key such as "paths.root".
func (s *Store) Get(key string) (any, bool) {
	if !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}

// Keys lists every known leaf key, sorted.
func (s *Store) Keys() []string {
	keys := s.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Set parses raw as a YAML scalar or list and stores it under key. The change
// is rejected, and the store left as it was, if the result no longer decodes.
func (s *Store) Set(key, raw string) error {
	parts, err := splitKey(key)
	if err != nil {
		return err
	}

	var val any = raw
	if def, known := flatten("", Defaults())[strings.Join(parts, ".")]; !known || !isString(def) {
		var parsed any
		if err := yaml.Unmarshal([]byte(raw), &parsed); err == nil && parsed != nil {
			val = parsed
		}
	}

	next := deepCopy(s.data)
	if err := setNested(next, parts, val); err != nil {
		return err
	}
	return s.swap(next)
}

// Reset replaces the file contents with the built-in defaults. It is the one
// way to replace a file that failed to load.
func (s *Store) Reset() error {
	if err := s.swap(Defaults()); err != nil {
		return err
	}
	s.loadErr = nil
	return nil
}

// Import downloads a YAML document from url (any scheme afs understands,
// including file://) and merges it over the current file values.
func (s *Store) Import(ctx context.Context, url string) error {
	raw, err := afs.New().DownloadWithURL(ctx, url)
	if err != nil {
		return fmt.Errorf("download config %q: %w", url, err)
	}

	imported := map[string]any{}
	if err := yaml.Unmarshal(raw, &imported); err != nil {
		return fmt.Errorf("parse config %q: %w", url, err)
	}

	next := deepCopy(s.data)
	merge(next, imported)
	return s.swap(next)
}

func (s *Store) swap(next map[string]any) error {
	prev := s.data
	s.data = next
	s.rebuild()
	if _, err := s.Config(); err != nil {
		s.data = prev
		s.rebuild()
		return err
	}
	return nil
}

// Save writes the file values atomically.
func (s *Store) Save() error {
	if s.loadErr != nil {
		return fmt.Errorf("refusing to overwrite %s, it failed to load (%v); fix the file or run 'ag config reset'", s.path, s.loadErr)
	}
	out, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func splitKey(key string) ([]string, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid config key %q", key)
		}
	}
	return parts, nil
}

func setNested(m map[string]any, parts []string, val any) error {
	for i, p := range parts[:len(parts)-1] {
		next, ok := m[p]
		if !ok {
			child := map[string]any{}
			m[p] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q is not a section", strings.Join(parts[:i+1], "."))
		}
		m = child
	}
	m[parts[len(parts)-1]] = val
	return nil
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			for ck, cv := range flatten(key, child) {
				out[ck] = cv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		srcChild, srcIsMap := v.(map[string]any)
		dstChild, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			merge(dstChild, srcChild)
			continue
		}
		dst[k] = v
	}
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if child, ok := v.(map[string]any); ok {
			out[k] = deepCopy(child)
			continue
		}
		out[k] = v
	}
	return out
}
