// Package search ranks stored chunks against a query embedding. The baseline
// is an exact full-scan: every embedding is read and scored, which keeps the
// ranking contract trivial to reason about. An approximate backend can be
// substituted behind Searcher without changing the observable contract.
package search

import (
	"fmt"
	"sort"

	"vecgrep/internal/store"
)

// Result is one ranked chunk.
type Result struct {
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
	Score     float64
}

// Searcher ranks chunks by similarity to a query vector, best first.
type Searcher interface {
	Search(queryVec []float32, topK int) ([]Result, error)
}

// ChunkReader is the slice of the store the engine needs.
type ChunkReader interface {
	AllChunks() ([]store.StoredChunk, error)
}

// Engine is the brute-force cosine Searcher. Both query and stored vectors
// must be L2-normalized; the dot product is then their cosine similarity.
// That precondition belongs to the embedder and is not re-validated here.
type Engine struct {
	chunks ChunkReader
}

var _ Searcher = (*Engine)(nil)

// NewEngine creates an Engine reading from the given store.
func NewEngine(chunks ChunkReader) *Engine {
	return &Engine{chunks: chunks}
}

// Search returns at most topK results ordered by descending score. Equal
// scores are broken by ascending insertion order, so rankings are stable
// across runs. An empty store yields an empty result, not an error.
func (e *Engine) Search(queryVec []float32, topK int) ([]Result, error) {
	all, err := e.chunks.AllChunks()
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	if len(all) == 0 || topK <= 0 {
		return nil, nil
	}

	type scored struct {
		chunk store.StoredChunk
		score float64
	}
	ranked := make([]scored, len(all))
	for i, c := range all {
		ranked[i] = scored{chunk: c, score: dot(queryVec, c.Embedding)}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunk.ID < ranked[j].chunk.ID
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	results := make([]Result, topK)
	for i, r := range ranked[:topK] {
		results[i] = Result{
			FilePath:  r.chunk.FilePath,
			StartLine: r.chunk.StartLine,
			EndLine:   r.chunk.EndLine,
			Content:   r.chunk.Content,
			Score:     r.score,
		}
	}
	return results, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
