package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vecgrep/internal/config"
	"vecgrep/internal/search"
)

func TestFormatResults(t *testing.T) {
	results := []search.Result{
		{FilePath: "/proj/auth/login.go", StartLine: 10, EndLine: 24, Content: "func Login() {}", Score: 0.912},
		{FilePath: "/proj/db.go", StartLine: 1, EndLine: 5, Content: "var pool *sql.DB", Score: 0.5},
	}

	got := formatResults("/proj", "how does login work", results)
	want := "Top 2 results for: 'how does login work'\n" +
		"\n[1] auth/login.go:10-24 (score: 0.91)\n" +
		"func Login() {}\n" +
		"\n[2] db.go:1-5 (score: 0.50)\n" +
		"var pool *sql.DB\n"
	assert.Equal(t, want, got)
}

// sandboxHome points the per-user vecgrep directory at a temp dir so project
// stores created by the ops never leak outside the test.
func sandboxHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestSearchCode_NoIndexableFiles(t *testing.T) {
	sandboxHome(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data.bin"), []byte("nothing indexable"), 0o644))

	// An empty project never reaches the embedder, so no Ollama is needed.
	out, err := searchCode(config.Default(), zap.NewNop(), "anything", root, 8)
	require.NoError(t, err)

	want := fmt.Sprintf("No indexable files found in %s.\n(Index attempt: Indexed 0 file(s), 0 chunk(s) added (0 file(s) skipped, unchanged))", root)
	assert.Equal(t, want, out)
}

func TestSearchCode_PathNotFound(t *testing.T) {
	sandboxHome(t)
	missing := filepath.Join(t.TempDir(), "missing")

	out, err := searchCode(config.Default(), zap.NewNop(), "anything", missing, 8)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Error: path does not exist: %s", missing), out)
}

func TestIndexCodebase_PathNotFound(t *testing.T) {
	sandboxHome(t)
	missing := filepath.Join(t.TempDir(), "missing")

	out, err := indexCodebase(config.Default(), zap.NewNop(), missing, false)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Error: path does not exist: %s", missing), out)
}

func TestIndexStatus_PathNotFound(t *testing.T) {
	sandboxHome(t)
	missing := filepath.Join(t.TempDir(), "missing")

	out, err := indexStatus(missing)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Error: path does not exist: %s", missing), out)
}

func TestFormatResults_PathOutsideRoot(t *testing.T) {
	results := []search.Result{
		{FilePath: "/elsewhere/x.go", StartLine: 1, EndLine: 1, Content: "x", Score: 1},
	}
	got := formatResults("/proj", "q", results)
	assert.Contains(t, got, "../elsewhere/x.go:1-1")
}
