// Package filter selects files by glob patterns.
//
// A pattern without a "/" is matched against the base name. A pattern with
// a "/" is matched against the slash-separated path relative to the scan
// root, and may use ** to span any number of directories.
package filter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds filter configuration.
type Config struct {
	// Include patterns. Empty means include all.
	Include []string
	// Exclude patterns. Takes precedence over Include.
	Exclude []string
}

// Empty reports whether the filter accepts everything.
func (c Config) Empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0
}

// Validate rejects malformed patterns so they fail at startup rather than
// silently matching nothing.
func (c Config) Validate() error {
	for _, list := range [][]string{c.Include, c.Exclude} {
		for _, pattern := range list {
			probe := strings.ReplaceAll(filepath.ToSlash(pattern), "**", "*")
			if _, err := filepath.Match(probe, ""); err != nil {
				return fmt.Errorf("invalid pattern '%s': %w", pattern, err)
			}
		}
	}
	return nil
}

// Match reports whether relPath passes the filter.
func (c Config) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	name := relPath
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		name = relPath[i+1:]
	}

	for _, pattern := range c.Exclude {
		if matchOne(relPath, name, pattern) {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if matchOne(relPath, name, pattern) {
			return true
		}
	}
	return false
}

func matchOne(relPath, name, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	if !strings.Contains(pattern, "/") && !strings.Contains(pattern, "**") {
		matched, _ := filepath.Match(pattern, name)
		return matched
	}
	return matchPathPattern(relPath, pattern)
}

// matchPathPattern matches a path against a pattern with ** support.
func matchPathPattern(path, pattern string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoubleStarPattern(path, pattern)
	}
	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}

// matchDoubleStarPattern handles ** patterns:
//   - "**/foo.json" matches "foo.json", "a/foo.json", "a/b/c/foo.json"
//   - "drafts/**" matches "drafts/anything", "drafts/a/b/c.json"
//   - "a/**/b.json" matches "a/b.json", "a/x/y/b.json"
func matchDoubleStarPattern(path, pattern string) bool {
	if pattern == "**" {
		return true
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchPathPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := pattern[:len(pattern)-3]
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); matched {
				return true
			}
		}
		return false
	}

	if i := strings.Index(pattern, "/**/"); i != -1 {
		prefix, suffix := pattern[:i], pattern[i+4:]
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if matched, _ := filepath.Match(prefix, strings.Join(parts[:i], "/")); !matched {
				continue
			}
			for j := i; j < len(parts); j++ {
				if matchPathPattern(strings.Join(parts[j:], "/"), suffix) {
					return true
				}
			}
		}
		return false
	}

	// ** elsewhere behaves like *.
	matched, _ := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), path)
	return matched
}

// ParsePatternList splits repeated or comma-separated flag values into
// patterns. Example: ["*.json,*.xml", "*.txt"] -> ["*.json", "*.xml", "*.txt"]
func ParsePatternList(values []string) []string {
	var patterns []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	return patterns
}
