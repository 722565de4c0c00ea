// Package index owns the incremental update algorithm: walk the tree, hash
// every candidate file, skip the unchanged ones, and re-chunk and re-embed
// the rest. Chunk rows for a stale file version are removed before any chunk
// of the new version is inserted.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vecgrep/internal/chunker"
	"vecgrep/internal/store"
	"vecgrep/internal/walker"
)

// ErrPathNotFound is returned when the root to index does not exist.
var ErrPathNotFound = errors.New("path does not exist")

// DefaultBatchSize is how many staged chunks are embedded and committed per
// transaction. Batching bounds peak memory and lets the embedder run batched
// inference.
const DefaultBatchSize = 64

const hashBlockSize = 64 * 1024

// Chunker splits a file into ordered fragments with 1-indexed inclusive line
// ranges. It may return an empty slice for files it cannot segment.
type Chunker interface {
	Chunk(path string) ([]chunker.Chunk, error)
}

// Embedder maps a batch of texts to one L2-normalized vector per text, in
// input order.
type Embedder interface {
	Embed(texts []string) ([][]float32, error)
}

// Stats reports the outcome of one index run.
type Stats struct {
	FilesChanged int
	ChunksAdded  int
	FilesSkipped int
}

// Summary renders the user-facing one-line report.
func (s *Stats) Summary() string {
	return fmt.Sprintf("Indexed %d file(s), %d chunk(s) added (%d file(s) skipped, unchanged)",
		s.FilesChanged, s.ChunksAdded, s.FilesSkipped)
}

// Indexer orchestrates the walker, change detection, the chunker and
// embedder, and store writes for one project.
type Indexer struct {
	store     store.Store
	chunker   Chunker
	embedder  Embedder
	batchSize int
	log       *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithBatchSize overrides the embedding batch size.
func WithBatchSize(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.batchSize = n
		}
	}
}

// New creates an Indexer writing to the given store.
func New(st store.Store, ch Chunker, emb Embedder, log *zap.Logger, opts ...Option) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	idx := &Indexer{
		store:     st,
		chunker:   ch,
		embedder:  emb,
		batchSize: DefaultBatchSize,
		log:       log,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// ResolveRoot canonicalizes a project root, or reports ErrPathNotFound. No
// store access happens for a missing root. Symlinks are resolved so a
// symlinked root and its target map to the same project store.
func ResolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}

// Run indexes the tree rooted at root, which must already be canonicalized
// via ResolveRoot. With force set, every file is re-chunked regardless of its
// stored hash.
//
// A chunker or embedder failure aborts the remainder of the run; batches
// committed before the failure stay persisted, leaving a valid but
// incomplete index.
func (idx *Indexer) Run(root string, force bool) (*Stats, error) {
	patterns := walker.LoadIgnorePatterns(root)
	files, err := walker.Walk(root, patterns)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	existing := map[string]string{}
	if !force {
		existing, err = idx.store.FileHashes()
		if err != nil {
			return nil, fmt.Errorf("load file hashes: %w", err)
		}
	}

	stats := &Stats{}
	var rows []store.PendingChunk

	for _, f := range files {
		fileHash, err := hashFile(f.Path)
		if err != nil {
			// The file vanished or became unreadable since the walk.
			idx.log.Warn("skipping unreadable file", zap.String("path", f.Path), zap.Error(err))
			continue
		}

		if !force && existing[f.Path] == fileHash {
			stats.FilesSkipped++
			continue
		}

		// Stale rows out before new rows in, so no two file versions
		// ever coexist for the same path. Unconditional so a forced run
		// can't duplicate rows; a no-op for never-indexed paths.
		if err := idx.store.DeleteFileChunks(f.Path); err != nil {
			return stats, fmt.Errorf("delete chunks for %s: %w", f.Path, err)
		}

		chunks, err := idx.chunker.Chunk(f.Path)
		if err != nil {
			return stats, fmt.Errorf("chunk %s: %w", f.Path, err)
		}
		for _, c := range chunks {
			rows = append(rows, store.PendingChunk{
				FilePath:  f.Path,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Content:   c.Content,
				FileHash:  fileHash,
				ChunkHash: hashString(c.Content),
			})
		}
		stats.FilesChanged++
		idx.log.Debug("file staged", zap.String("path", f.RelPath), zap.Int("chunks", len(chunks)))
	}

	if err := idx.persist(rows, stats); err != nil {
		return stats, err
	}

	if err := idx.store.TouchLastIndexed(); err != nil {
		return stats, fmt.Errorf("touch last_indexed: %w", err)
	}
	return stats, nil
}

// persist embeds and commits the staged rows in fixed-size batches, one
// transaction per batch. Record and vector order is preserved 1:1.
func (idx *Indexer) persist(rows []store.PendingChunk, stats *Stats) error {
	for i := 0; i < len(rows); i += idx.batchSize {
		end := i + idx.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		texts := make([]string, len(batch))
		for j, r := range batch {
			texts[j] = r.Content
		}
		vectors, err := idx.embedder.Embed(texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if err := idx.store.AddChunks(batch, vectors); err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
		stats.ChunksAdded += len(batch)
	}
	return nil
}

// hashFile digests the file's bytes, streamed in fixed-size blocks so large
// files don't balloon memory.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
