// Package venv keeps the registry of known Python virtual environments: a
// JSON file with atomic writes and rotating backups.
package venv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	RegistryVersion   = "1.0.0"
	DefaultMaxBackups = 10

	backupPrefix = "venv_registry_"
	backupSuffix = ".json"
)

var (
	ErrNotFound = errors.New("virtual environment not found in registry")
	ErrExists   = errors.New("virtual environment already registered")
)

type Environment struct {
	Path          string     `json:"path"`
	Project       string     `json:"project_name"`
	PythonVersion string     `json:"python_version,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
}

type Registry struct {
	Version      string        `json:"registry_version"`
	LastUpdated  time.Time     `json:"last_updated"`
	Environments []Environment `json:"virtual_environments"`
}

// Store persists a Registry at Path, keeping up to MaxBackups copies of the
// previous contents in BackupDir.
type Store struct {
	Path       string
	BackupDir  string
	MaxBackups int
	now        func() time.Time
}

func NewStore(path, backupDir string, maxBackups int) *Store {
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}
	return &Store{Path: path, BackupDir: backupDir, MaxBackups: maxBackups, now: time.Now}
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Load reads the registry. A missing file yields an empty registry; a corrupt
// one is restored from the newest readable backup.
func (s *Store) Load() (*Registry, error) {
	reg, err := readRegistry(s.Path)
	if err == nil {
		return reg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return &Registry{Version: RegistryVersion, Environments: []Environment{}}, nil
	}

	backups, listErr := s.Backups()
	if listErr != nil {
		return nil, fmt.Errorf("registry %s is unreadable (%v) and backups could not be listed: %w", s.Path, err, listErr)
	}
	for i := len(backups) - 1; i >= 0; i-- {
		restored, rerr := readRegistry(backups[i])
		if rerr != nil {
			continue
		}
		if werr := s.write(restored); werr != nil {
			return nil, fmt.Errorf("restore registry from %s: %w", backups[i], werr)
		}
		return restored, nil
	}
	return nil, fmt.Errorf("registry %s is unreadable and no valid backup exists: %w", s.Path, err)
}

// Save backs up the current file, then replaces it atomically.
func (s *Store) Save(reg *Registry) error {
	if err := s.backup(); err != nil {
		return err
	}
	reg.LastUpdated = s.clock()
	if reg.Version == "" {
		reg.Version = RegistryVersion
	}
	return s.write(reg)
}

func (s *Store) write(reg *Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o750); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// Backups lists backup files oldest first.
func (s *Store) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.BackupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		out = append(out, filepath.Join(s.BackupDir, name))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) backup() error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read registry for backup: %w", err)
	}
	if err := os.MkdirAll(s.BackupDir, 0o750); err != nil {
		return fmt.Errorf("create backups directory: %w", err)
	}

	name := backupPrefix + s.clock().Format("20060102T150405.000000000Z") + backupSuffix
	if err := os.WriteFile(filepath.Join(s.BackupDir, name), data, 0o600); err != nil {
		return fmt.Errorf("write registry backup: %w", err)
	}

	backups, err := s.Backups()
	if err != nil {
		return err
	}
	for len(backups) > s.MaxBackups {
		if err := os.Remove(backups[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune registry backup: %w", err)
		}
		backups = backups[1:]
	}
	return nil
}

func readRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if reg.Environments == nil {
		reg.Environments = []Environment{}
	}
	return &reg, nil
}
