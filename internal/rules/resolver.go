package rules

import (
	"path/filepath"
	"strings"
)

// Resolver decides the destination directory for a filename based on its
// extension. It is a pure lookup over an immutable rule set and is safe to
// share across watchers without locking.
type Resolver struct {
	exts     map[string]string
	fallback string
}

// NewResolver builds a Resolver from a rule map and an optional fallback
// directory for extensions with no rule. An empty fallback means files with
// unmapped extensions are skipped. Keys are normalized so lookups are
// case-insensitive.
func NewResolver(m Map, fallback string) *Resolver {
	exts := make(map[string]string, len(m))
	for ext, dir := range m {
		exts[NormalizeExt(ext)] = dir
	}
	return &Resolver{exts: exts, fallback: fallback}
}

// Resolve returns the destination directory for filename and true, or
// ("", false) when the file should be left where it is. A filename without
// an extension looks up the empty extension, which is a valid (and usually
// unmapped) key.
func (r *Resolver) Resolve(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if dir, ok := r.exts[ext]; ok {
		return dir, true
	}
	if r.fallback != "" {
		return r.fallback, true
	}
	return "", false
}

// NormalizeExt canonicalizes a user-supplied extension: spaces removed,
// lower-cased, leading dot added if missing. The empty string normalizes
// to itself.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.ReplaceAll(ext, " ", ""))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
