// Package rules loads the workspace rules document and answers queries
// against it. The document is JSON or YAML with two sections: "rules", a tree
// of categories, and "utility_scripts", keyed by script name.
package rules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("no rule found")

// Document is a parsed rules file.
type Document struct {
	Rules          map[string]any `yaml:"rules" json:"rules"`
	UtilityScripts map[string]any `yaml:"utility_scripts" json:"utility_scripts,omitempty"`
}

// Load reads the document at location, a local path or any URL afs
// understands.
func Load(ctx context.Context, location string) (*Document, error) {
	url := location
	if !strings.Contains(url, "://") {
		abs, err := filepath.Abs(url)
		if err != nil {
			return nil, err
		}
		url = "file://" + abs
	}
	raw, err := afs.New().DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", location, err)
	}
	return Parse(raw)
}

// Parse decodes a rules document. JSON is accepted as a subset of YAML.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if doc.Rules == nil {
		return nil, errors.New("parse rules: missing \"rules\" section")
	}
	return &doc, nil
}

// Query returns the rule at category, optionally narrowed to a subcategory
// and a key within it.
func (d *Document) Query(category, subcategory, key string) (any, error) {
	path := []string{category}
	if subcategory != "" {
		path = append(path, subcategory)
		if key != "" {
			path = append(path, key)
		}
	} else if key != "" {
		return nil, errors.New("a key needs a subcategory")
	}

	var node any = d.Rules
	for i, p := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNotFound, strings.Join(path[:i+1], "."))
		}
		if node, ok = m[p]; !ok {
			return nil, fmt.Errorf("%w for %s", ErrNotFound, strings.Join(path[:i+1], "."))
		}
	}
	return node, nil
}

// Categories lists the top-level rule categories, sorted.
func (d *Document) Categories() []string {
	return sortedKeys(d.Rules)
}

// Scripts lists the utility script names, sorted.
func (d *Document) Scripts() []string {
	return sortedKeys(d.UtilityScripts)
}

// Purpose returns the "purpose" entry of a utility script.
func (d *Document) Purpose(script string) (string, bool) {
	info, ok := d.UtilityScripts[script].(map[string]any)
	if !ok {
		return "", false
	}
	p, ok := info["purpose"].(string)
	return p, ok && p != ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func section(d *Document, category string) map[string]any {
	m, _ := d.Rules[category].(map[string]any)
	return m
}
