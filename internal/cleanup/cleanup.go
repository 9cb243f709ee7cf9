// Package cleanup finds and removes stale files and orphaned virtual
// environments, and measures disk usage of the workspace directories.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

type TmpReport struct {
	Files       []File
	Bytes       int64
	RemovedDirs []string
	Errors      []error
	DryRun      bool
}

func (r *TmpReport) Summary() string {
	verb := "Deleted"
	if r.DryRun {
		verb = "Would delete"
	}
	return fmt.Sprintf("%s %d files (%s)", verb, len(r.Files), humanize.Bytes(uint64(r.Bytes)))
}

// Tmp removes regular files under dir last modified before cutoff, then any
// directories left empty. With dryRun nothing is removed.
func Tmp(dir string, cutoff time.Time, dryRun bool) (*TmpReport, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("temporary directory %s: %w", dir, err)
	}

	r := &TmpReport{DryRun: dryRun}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.Errors = append(r.Errors, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			r.Errors = append(r.Errors, err)
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				r.Errors = append(r.Errors, err)
				return nil
			}
		}
		r.Files = append(r.Files, File{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		r.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !dryRun {
		r.RemovedDirs = removeEmptyDirs(dir)
	}
	return r, nil
}

// removeEmptyDirs deletes empty directories below root, deepest first. root
// itself is kept.
func removeEmptyDirs(root string) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	var removed []string
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil || len(entries) > 0 {
			continue
		}
		if os.Remove(d) == nil {
			removed = append(removed, d)
		}
	}
	return removed
}

// DirSize sums the sizes of regular files below path. Unreadable entries are
// skipped.
func DirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

type Orphan struct {
	Path string
	Size int64
}

// Orphans finds directories named venvName under projectsDir that are not in
// registered. It does not descend into virtual environments.
func Orphans(projectsDir, venvName string, registered map[string]bool) ([]Orphan, error) {
	var out []Orphan
	err := filepath.WalkDir(projectsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == projectsDir {
				return fs.SkipAll
			}
			return nil
		}
		if !d.IsDir() || d.Name() != venvName {
			return nil
		}
		if !registered[filepath.Clean(path)] {
			out = append(out, Orphan{Path: path, Size: DirSize(path)})
		}
		return fs.SkipDir
	})
	return out, err
}

// Remove deletes each orphan and returns the ones that could not be removed.
func Remove(orphans []Orphan) map[string]error {
	failed := make(map[string]error)
	for _, o := range orphans {
		if err := os.RemoveAll(o.Path); err != nil {
			failed[o.Path] = err
		}
	}
	return failed
}

type Usage struct {
	Label   string
	Path    string
	Bytes   int64
	Missing bool
	// Children is filled for directories broken down by entry.
	Children []Usage
}

func (u Usage) Human() string {
	if u.Missing {
		return "directory does not exist"
	}
	return humanize.Bytes(uint64(u.Bytes))
}

type Target struct {
	Label     string
	Path      string
	Breakdown bool
}

// DiskUsage measures each target. Targets with Breakdown get one child per
// subdirectory, largest first.
func DiskUsage(targets []Target) []Usage {
	out := make([]Usage, 0, len(targets))
	for _, t := range targets {
		u := Usage{Label: t.Label, Path: t.Path}
		if _, err := os.Stat(t.Path); err != nil {
			u.Missing = true
			out = append(out, u)
			continue
		}
		u.Bytes = DirSize(t.Path)
		if t.Breakdown {
			entries, _ := os.ReadDir(t.Path)
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				p := filepath.Join(t.Path, e.Name())
				u.Children = append(u.Children, Usage{Label: e.Name(), Path: p, Bytes: DirSize(p)})
			}
			sort.SliceStable(u.Children, func(i, j int) bool { return u.Children[i].Bytes > u.Children[j].Bytes })
		}
		out = append(out, u)
	}
	return out
}
