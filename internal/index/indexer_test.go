package index

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vecgrep/internal/chunker"
	"vecgrep/internal/store"
)

// lineChunker yields one chunk per non-empty line, so a test file's chunk
// count is simply its line count.
type lineChunker struct{}

func (lineChunker) Chunk(path string) ([]chunker.Chunk, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chunks []chunker.Chunk
	for i, line := range strings.Split(string(src), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		chunks = append(chunks, chunker.Chunk{StartLine: i + 1, EndLine: i + 1, Content: line})
	}
	return chunks, nil
}

type failingChunker struct{}

func (failingChunker) Chunk(string) ([]chunker.Chunk, error) {
	return nil, fmt.Errorf("grammar exploded")
}

// hashEmbedder derives a deterministic unit vector from each text and
// records the batch sizes it was called with.
type hashEmbedder struct {
	batches  []int
	failCall int // 1-based call number to fail on; 0 means never
	calls    int
}

func (e *hashEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls++
	if e.failCall > 0 && e.calls >= e.failCall {
		return nil, fmt.Errorf("embedder down")
	}
	e.batches = append(e.batches, len(texts))
	vecs := make([][]float32, len(texts))
	for i, txt := range texts {
		sum := sha256.Sum256([]byte(txt))
		v := []float32{float32(sum[0]), float32(sum[1]), float32(sum[2]), float32(sum[3])}
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if norm > 0 {
			inv := float32(1 / math.Sqrt(norm))
			for j := range v {
				v[j] *= inv
			}
		}
		vecs[i] = v
	}
	return vecs, nil
}

// shortEmbedder returns one vector too few, violating the batch invariant.
type shortEmbedder struct{}

func (shortEmbedder) Embed(texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts)-1)
	for i := range vecs {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

func newTestIndexer(t *testing.T, emb Embedder, opts ...Option) (*Indexer, *store.SQLiteStore) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, lineChunker{}, emb, zap.NewNop(), opts...), st
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\nfunc A() {}")
	writeFile(t, filepath.Join(root, "b.go"), "package b")
	return root
}

func chunkHashesFor(t *testing.T, st *store.SQLiteStore, path string) map[string]bool {
	t.Helper()
	all, err := st.AllChunks()
	require.NoError(t, err)
	hashes := make(map[string]bool)
	for _, c := range all {
		if c.FilePath == path {
			hashes[c.ChunkHash] = true
		}
	}
	return hashes
}

func TestResolveRoot_PathNotFound(t *testing.T) {
	_, err := ResolveRoot(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestResolveRoot_Canonicalizes(t *testing.T) {
	root := t.TempDir()
	got, err := ResolveRoot(root)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolveRoot_SymlinkedRootSharesTarget(t *testing.T) {
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, link))

	fromTarget, err := ResolveRoot(target)
	require.NoError(t, err)
	fromLink, err := ResolveRoot(link)
	require.NoError(t, err)

	assert.Equal(t, fromTarget, fromLink)
}

func TestRun_FreshProject(t *testing.T) {
	idx, st := newTestIndexer(t, &hashEmbedder{})
	root := setupProject(t)

	stats, err := idx.Run(root, false)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesChanged)
	assert.Equal(t, 3, stats.ChunksAdded)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, "Indexed 2 file(s), 3 chunk(s) added (0 file(s) skipped, unchanged)", stats.Summary())

	status, err := st.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalFiles)
	assert.Equal(t, 3, status.TotalChunks)
	assert.NotEqual(t, "never", status.LastIndexed)
}

func TestRun_Idempotent(t *testing.T) {
	idx, st := newTestIndexer(t, &hashEmbedder{})
	root := setupProject(t)

	_, err := idx.Run(root, false)
	require.NoError(t, err)
	before, err := st.AllChunks()
	require.NoError(t, err)

	stats, err := idx.Run(root, false)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesChanged)
	assert.Equal(t, 0, stats.ChunksAdded)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, "Indexed 0 file(s), 0 chunk(s) added (2 file(s) skipped, unchanged)", stats.Summary())

	after, err := st.AllChunks()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_ChangeIsolation(t *testing.T) {
	idx, st := newTestIndexer(t, &hashEmbedder{})
	root := setupProject(t)
	aPath := filepath.Join(root, "a.go")
	bPath := filepath.Join(root, "b.go")

	_, err := idx.Run(root, false)
	require.NoError(t, err)
	bBefore := chunkHashesFor(t, st, bPath)

	// a.go now yields three chunks.
	writeFile(t, aPath, "package a\nfunc A() {}\nfunc B() {}")
	stats, err := idx.Run(root, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesChanged)
	assert.Equal(t, 3, stats.ChunksAdded)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, "Indexed 1 file(s), 3 chunk(s) added (1 file(s) skipped, unchanged)", stats.Summary())

	status, err := st.Status()
	require.NoError(t, err)
	assert.Equal(t, 4, status.TotalChunks)

	assert.Equal(t, bBefore, chunkHashesFor(t, st, bPath))
}

func TestRun_ReplaceNotMerge(t *testing.T) {
	idx, st := newTestIndexer(t, &hashEmbedder{})
	root := setupProject(t)
	aPath := filepath.Join(root, "a.go")

	_, err := idx.Run(root, false)
	require.NoError(t, err)

	hashes, err := st.FileHashes()
	require.NoError(t, err)
	oldHash := hashes[aPath]

	writeFile(t, aPath, "package a\nfunc Different() {}")
	_, err = idx.Run(root, false)
	require.NoError(t, err)

	all, err := st.AllChunks()
	require.NoError(t, err)
	for _, c := range all {
		if c.FilePath == aPath {
			assert.NotEqual(t, oldHash, c.FileHash, "stale file_hash survived re-index")
		}
	}
	// Exactly one file_hash at rest per path.
	hashes, err = st.FileHashes()
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
}

func TestRun_Force(t *testing.T) {
	emb := &hashEmbedder{}
	idx, st := newTestIndexer(t, emb)
	root := setupProject(t)

	_, err := idx.Run(root, false)
	require.NoError(t, err)

	stats, err := idx.Run(root, true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesChanged)
	assert.Equal(t, 3, stats.ChunksAdded)
	assert.Equal(t, 0, stats.FilesSkipped)

	// Forced re-chunk must not duplicate rows.
	status, err := st.Status()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalChunks)
}

func TestRun_EmptyProject(t *testing.T) {
	idx, st := newTestIndexer(t, &hashEmbedder{})
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.bin"), "nothing indexable")

	stats, err := idx.Run(root, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesChanged)
	assert.Equal(t, 0, stats.ChunksAdded)

	status, err := st.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalChunks)
}

func TestRun_Batching(t *testing.T) {
	emb := &hashEmbedder{}
	idx, _ := newTestIndexer(t, emb, WithBatchSize(2))
	root := setupProject(t)

	_, err := idx.Run(root, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, emb.batches)
}

func TestRun_EmbedderFailureKeepsCommittedBatches(t *testing.T) {
	emb := &hashEmbedder{failCall: 2}
	idx, st := newTestIndexer(t, emb, WithBatchSize(2))
	root := setupProject(t)

	stats, err := idx.Run(root, false)
	require.Error(t, err)

	// The first batch was committed before the failure; the run aborts
	// without rolling it back.
	assert.Equal(t, 2, stats.ChunksAdded)
	status, serr := st.Status()
	require.NoError(t, serr)
	assert.Equal(t, 2, status.TotalChunks)
	assert.Equal(t, "never", status.LastIndexed)
}

func TestRun_ChunkerFailureAborts(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer st.Close()
	idx := New(st, failingChunker{}, &hashEmbedder{}, zap.NewNop())

	root := setupProject(t)
	_, err = idx.Run(root, false)
	require.Error(t, err)

	status, serr := st.Status()
	require.NoError(t, serr)
	assert.Equal(t, 0, status.TotalChunks)
	assert.Equal(t, "never", status.LastIndexed)
}

func TestRun_BatchInvariantViolation(t *testing.T) {
	idx, _ := newTestIndexer(t, shortEmbedder{})
	root := setupProject(t)

	_, err := idx.Run(root, false)
	require.ErrorIs(t, err, store.ErrBatchMismatch)
}

func TestRun_ZeroChunkFileCountsAsChanged(t *testing.T) {
	idx, _ := newTestIndexer(t, &hashEmbedder{})
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.go"), "")

	stats, err := idx.Run(root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesChanged)
	assert.Equal(t, 0, stats.ChunksAdded)
}
