package watcher

import "path/filepath"

// defaultIgnorePatterns cover files that are still being written by browsers
// and download managers, plus OS noise. Sorting a half-written download
// corrupts it, so these are always excluded.
var defaultIgnorePatterns = []string{
	"*.tmp",
	"*.part",
	"*.partial",
	"*.crdownload",
	"*.download",
	"*.swp",
	".DS_Store",
	"Thumbs.db",
}

// Filter checks file base names against glob ignore patterns.
type Filter struct {
	patterns []string
}

// NewFilter merges the default patterns with user-supplied extras,
// dropping duplicates.
func NewFilter(extra []string) *Filter {
	seen := make(map[string]struct{}, len(defaultIgnorePatterns)+len(extra))
	var merged []string
	for _, p := range append(append([]string{}, defaultIgnorePatterns...), extra...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		merged = append(merged, p)
	}
	return &Filter{patterns: merged}
}

// ShouldIgnore reports whether the file at path matches any ignore pattern.
// Only the base name is tested; destinations are chosen by extension, so
// parent directories carry no signal here.
func (f *Filter) ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range f.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
