package walker

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	".pengine",
	"node_modules",
	".venv",
	".idea",
	".vscode",
}

func isExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// Filter decides which dataset files under a root are picked up. Patterns
// are doublestar globs matched against the slash-separated relative path,
// and also against the bare file name so "*.json" works at any depth.
type Filter struct {
	include   []string
	exclude   []string
	gitignore []string
}

// NewFilter validates the patterns. An empty include list admits every file.
func NewFilter(include, exclude []string) (*Filter, error) {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Allows reports whether relPath (slash separated) passes the filter.
func (f *Filter) Allows(relPath string) bool {
	if matchesGitignore(relPath, f.gitignore) {
		return false
	}
	if len(f.include) > 0 && !matchesAny(relPath, f.include) {
		return false
	}
	return !matchesAny(relPath, f.exclude)
}

func matchesAny(relPath string, patterns []string) bool {
	base := path.Base(relPath)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

// matchesGitignore covers the common subset of gitignore syntax: patterns
// without a slash match any path component, patterns with one are anchored
// at the root, and a trailing slash restricts a pattern to directories.
func matchesGitignore(relPath string, patterns []string) bool {
	parts := strings.Split(relPath, "/")
	for _, p := range patterns {
		dirOnly := strings.HasSuffix(p, "/")
		p = strings.TrimSuffix(p, "/")

		if strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(strings.TrimPrefix(p, "/"), relPath); ok {
				return true
			}
			continue
		}

		components := parts
		if dirOnly {
			components = parts[:len(parts)-1]
		}
		for _, part := range components {
			if ok, _ := path.Match(p, part); ok {
				return true
			}
		}
	}
	return false
}
