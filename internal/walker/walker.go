// Package walker discovers the indexable files of a project tree. Pruned
// subtrees are never opened, and unreadable entries are skipped rather than
// surfaced as errors.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds a discovered source file.
type FileInfo struct {
	Path    string // absolute
	RelPath string // slash-separated, relative to the walk root
}

// LoadIgnorePatterns reads the .gitignore at the project root, one glob per
// non-comment, non-blank line. A missing file yields no patterns.
func LoadIgnorePatterns(root string) []string {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// Walk traverses the tree rooted at root and returns the candidate files in
// traversal order. Ordering is not guaranteed across platforms; callers must
// not rely on it for correctness.
func Walk(root string, patterns []string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if shouldSkipDir(d.Name(), rel, patterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if IsIgnored(rel, patterns) {
			return nil
		}
		if shouldSkipFile(d.Name(), strings.ToLower(filepath.Ext(path)), d) {
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
