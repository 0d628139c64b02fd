package walker

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never published.
var DefaultExcludes = []string{
	".git",
	".obsidian",
	".trash",
	".blaze",
	"node_modules",
	".DS_Store",
}

// shouldExcludeDir checks whether a directory name matches any default
// exclusion pattern. This is used during traversal to skip entire subtrees.
func shouldExcludeDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// IsIgnored returns true if relPath matches any ignore pattern. A pattern
// matches when it equals or globs any single path segment, or when it
// matches the whole path with ** support.
func IsIgnored(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(relPath)
	parts := strings.Split(normalized, "/")

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}

		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}

		if strings.Contains(pattern, "/") {
			continue
		}
		for _, part := range parts {
			if part == pattern {
				return true
			}
			if matched, err := path.Match(pattern, part); err == nil && matched {
				return true
			}
		}
	}
	return false
}
