package linewatcher

import (
	"os"
	"path/filepath"
	"strings"
)

// statOrNil is os.Stat with a signature convenient for the include-pattern
// classification helpers below.
func statOrNil(p string) (os.FileInfo, error) {
	return os.Stat(p)
}

// hasMeta reports whether pattern contains any filepath.Match metacharacter.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// isSubPath reports whether p is strictly nested inside base (p != base).
func isSubPath(p, base string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return true
}

// deriveGlobRoot returns the deepest directory component of pattern that
// precedes its first glob metacharacter, so a recursive directory walk can
// start there instead of at the filesystem root.
func deriveGlobRoot(pattern string) string {
	if pattern == "" {
		return ""
	}
	if !hasMeta(pattern) {
		return filepath.Clean(pattern)
	}
	parts := strings.Split(filepath.ToSlash(pattern), "/")
	var root []string
	for _, part := range parts {
		if hasMeta(part) {
			break
		}
		root = append(root, part)
	}
	if len(root) == 0 {
		return "."
	}
	return filepath.FromSlash(strings.Join(root, "/"))
}

// deriveScanRoots reduces a set of include patterns (directories, exact
// files, or globs) to the minimal set of directories a filesystem walk
// needs to visit to cover all of them.
func deriveScanRoots(include []string) []string {
	if len(include) == 0 {
		return []string{"."}
	}

	seen := make(map[string]bool)
	var roots []string
	add := func(p string) {
		c := filepath.Clean(p)
		if c == "" {
			c = "."
		}
		if !seen[c] {
			seen[c] = true
			roots = append(roots, c)
		}
	}

	for _, pattern := range include {
		if hasMeta(pattern) {
			add(deriveGlobRoot(pattern))
			continue
		}
		info, err := os.Stat(pattern)
		switch {
		case err == nil && info.IsDir():
			add(pattern)
		case err == nil:
			add(filepath.Dir(pattern))
		default:
			add(filepath.Dir(pattern))
		}
	}
	return roots
}
