// Package rules owns the extension-to-destination rule set: the persisted
// rule file and the resolver that applies it during a tracking session.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Map is the persisted rule set: normalized extension -> destination
// directory. Last write wins on duplicate keys.
type Map map[string]string

// extPattern matches a normalized extension: a leading dot followed by
// alphanumerics.
var extPattern = regexp.MustCompile(`^\.[a-z0-9]+$`)

// ValidExt reports whether ext is acceptable as a rule key after
// normalization.
func ValidExt(ext string) bool {
	return extPattern.MatchString(ext)
}

// Load reads the rule file at path. A missing file yields an empty map so a
// fresh install can add rules before ever tracking.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	normalized := make(Map, len(m))
	for ext, dir := range m {
		normalized[NormalizeExt(ext)] = dir
	}
	return normalized, nil
}

// Save writes the rule map to path, creating parent directories as needed.
func Save(path string, m Map) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write rules %s: %w", path, err)
	}
	return nil
}

// Set adds or replaces the rule for ext. The extension is normalized and
// validated; the destination is resolved to an absolute path.
func (m Map) Set(ext, dir string) error {
	ext = NormalizeExt(ext)
	if !ValidExt(ext) {
		return fmt.Errorf("invalid extension %q", ext)
	}
	if dir == "" {
		return fmt.Errorf("empty destination for %q", ext)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve destination %q: %w", dir, err)
	}
	m[ext] = abs
	return nil
}

// Remove deletes the rule for ext. It reports whether a rule existed.
func (m Map) Remove(ext string) bool {
	ext = NormalizeExt(ext)
	if _, ok := m[ext]; !ok {
		return false
	}
	delete(m, ext)
	return true
}

// Merge loads a JSON rule fragment from path and folds it into m,
// normalizing keys. Entries in the fragment win over existing ones.
func (m Map) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fragment %s: %w", path, err)
	}
	var fragment map[string]string
	if err := json.Unmarshal(data, &fragment); err != nil {
		return fmt.Errorf("parse fragment %s: %w", path, err)
	}
	for ext, dir := range fragment {
		ext = NormalizeExt(ext)
		if !ValidExt(ext) {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		m[ext] = abs
	}
	return nil
}

// Extensions returns the rule keys in sorted order for stable listings.
func (m Map) Extensions() []string {
	exts := make([]string, 0, len(m))
	for ext := range m {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
