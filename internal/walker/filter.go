package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// MaxFileBytes is the largest file we'll consider (512 KiB).
const MaxFileBytes = 512 * 1024

// skipDirs are directory names that are never descended into, regardless
// of ignore patterns.
var skipDirs = map[string]struct{}{
	".git":          {},
	"node_modules":  {},
	"__pycache__":   {},
	".venv":         {},
	"venv":          {},
	".env":          {},
	"dist":          {},
	"build":         {},
	"target":        {},
	".next":         {},
	".nuxt":         {},
	"coverage":      {},
	".pytest_cache": {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".tox":          {},
	"eggs":          {},
	".eggs":         {},
	"htmlcov":       {},
}

// skipPatterns are filename globs that are never indexed: minified and
// bundled assets, lockfiles, compiled artifacts, binaries and media.
var skipPatterns = []string{
	"*.min.js",
	"*.bundle.js",
	"*.lock",
	"*.pyc",
	"*.class",
	"*.o",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.exe",
	"*.DS_Store",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.svg",
	"*.ico",
	"*.pdf",
	"*.zip",
	"*.tar",
	"*.gz",
	"*.whl",
	"*.egg",
}

// allowedExts is the set of text and source extensions worth embedding.
var allowedExts = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {}, ".rs": {}, ".go": {},
	".java": {}, ".c": {}, ".h": {}, ".cpp": {}, ".cc": {}, ".cxx": {}, ".hpp": {},
	".rb": {}, ".swift": {}, ".kt": {}, ".cs": {}, ".md": {}, ".txt": {}, ".yaml": {},
	".yml": {}, ".toml": {}, ".json": {}, ".sh": {}, ".bash": {}, ".zsh": {},
	".fish": {}, ".html": {}, ".css": {}, ".scss": {}, ".less": {}, ".sql": {},
	".graphql": {}, ".proto": {}, ".tf": {}, ".hcl": {}, ".dockerfile": {},
	".vue": {}, ".svelte": {},
}

// IsIgnored reports whether relPath matches any ignore pattern. A pattern
// matches if it globs the full relative path or any single path segment.
// This is a deliberate subset of gitignore semantics: negation, anchoring
// and directory-only markers are not supported.
func IsIgnored(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	parts := strings.Split(relPath, "/")
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
		for _, part := range parts {
			if ok, _ := filepath.Match(p, part); ok {
				return true
			}
		}
	}
	return false
}

// shouldSkipDir reports whether the directory should be pruned from the walk.
func shouldSkipDir(name, relPath string, patterns []string) bool {
	if _, ok := skipDirs[name]; ok {
		return true
	}
	return IsIgnored(relPath, patterns)
}

// shouldSkipFile applies the fixed file rules: deny globs, extension
// allow-list, and the size ceiling. A file whose size cannot be read is
// skipped, not treated as an error.
func shouldSkipFile(name string, ext string, d fs.DirEntry) bool {
	for _, p := range skipPatterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	if _, ok := allowedExts[ext]; !ok {
		return true
	}
	info, err := d.Info()
	if err != nil {
		return true
	}
	return info.Size() > MaxFileBytes
}
