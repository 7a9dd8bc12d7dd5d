package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreFiles are read from the watched directory in addition to the
// configured patterns.
var ignoreFiles = []string{".gitignore", ".sessiondiffignore"}

// loadIgnorePatterns merges the configured patterns with those from
// .gitignore and .sessiondiffignore in dir.
func loadIgnorePatterns(dir string, configured []string) ([]string, error) {
	patterns := make([]string, len(configured))
	copy(patterns, configured)

	for _, name := range ignoreFiles {
		extra, err := readPatternFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return patterns, err
		}
		patterns = append(patterns, extra...)
	}
	return patterns, nil
}

// readPatternFile reads a gitignore-style file and returns non-empty,
// non-comment lines. Negations are dropped.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, strings.TrimPrefix(strings.TrimSuffix(line, "/"), "/"))
	}
	return patterns, scanner.Err()
}

// isIgnored reports whether path, under root, matches any pattern by base
// name, root-relative path, full path, or any single path segment. Anything
// inside .git is always ignored.
func isIgnored(root, path string, patterns []string) bool {
	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, s := range segments {
		if s == ".git" {
			return true
		}
	}
	base := filepath.Base(path)

	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		if len(segments) > 1 {
			for _, s := range segments[:len(segments)-1] {
				if matched, _ := filepath.Match(pattern, s); matched {
					return true
				}
			}
		}
	}
	return false
}
