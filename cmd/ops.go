package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"vecgrep/internal/chunker"
	"vecgrep/internal/chunker/languages"
	"vecgrep/internal/config"
	"vecgrep/internal/embedder"
	"vecgrep/internal/index"
	"vecgrep/internal/search"
	"vecgrep/internal/store"
)

// The operations below back both the CLI subcommands and the MCP tools.
// Each one opens its own store handle and closes it before returning; no
// connection outlives a call.

func newChunker() *chunker.ASTChunker {
	reg := chunker.NewRegistry()
	languages.RegisterGo(reg)
	languages.RegisterJavaScript(reg)
	languages.RegisterTypeScript(reg)
	languages.RegisterPython(reg)
	return chunker.NewASTChunker(reg)
}

// indexCodebase runs an incremental index of path and returns the summary
// text. A missing root is reported as text, not as an error, since the
// caller is typically an agent consuming strings.
func indexCodebase(cfg config.Config, log *zap.Logger, path string, force bool) (string, error) {
	root, err := index.ResolveRoot(path)
	if err != nil {
		if errors.Is(err, index.ErrPathNotFound) {
			return fmt.Sprintf("Error: path does not exist: %s", path), nil
		}
		return "", err
	}

	dir, err := store.DirFor(root)
	if err != nil {
		return "", err
	}
	lock := index.NewLock(dir)
	if err := lock.Lock(); err != nil {
		return "", err
	}
	defer lock.Unlock()

	st, err := store.OpenProject(root)
	if err != nil {
		return "", err
	}
	defer st.Close()

	idx := index.New(st, newChunker(), embedder.New(cfg.OllamaURL, cfg.EmbedModel), log,
		index.WithBatchSize(cfg.EmbedBatchSize))
	stats, err := idx.Run(root, force)
	if err != nil {
		return "", err
	}
	return stats.Summary(), nil
}

// searchCode embeds the query and ranks the project's chunks. When the store
// holds zero chunks, a full index run is triggered first.
func searchCode(cfg config.Config, log *zap.Logger, query, path string, topK int) (string, error) {
	if topK <= 0 {
		topK = 8
	}
	if topK > cfg.TopKMax {
		topK = cfg.TopKMax
	}

	root, err := index.ResolveRoot(path)
	if err != nil {
		if errors.Is(err, index.ErrPathNotFound) {
			return fmt.Sprintf("Error: path does not exist: %s", path), nil
		}
		return "", err
	}

	st, err := store.OpenProject(root)
	if err != nil {
		return "", err
	}
	status, err := st.Status()
	if err != nil {
		st.Close()
		return "", err
	}

	if status.TotalChunks == 0 {
		st.Close()
		summary, err := indexCodebase(cfg, log, root, false)
		if err != nil {
			return "", err
		}
		st, err = store.OpenProject(root)
		if err != nil {
			return "", err
		}
		status, err = st.Status()
		if err != nil {
			st.Close()
			return "", err
		}
		if status.TotalChunks == 0 {
			st.Close()
			return fmt.Sprintf("No indexable files found in %s.\n(Index attempt: %s)", path, summary), nil
		}
	}
	defer st.Close()

	queryVec, err := embedder.New(cfg.OllamaURL, cfg.EmbedModel).EmbedSingle(query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := search.NewEngine(st).Search(queryVec, topK)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found. Try re-indexing with index_codebase().", nil
	}
	return formatResults(root, query, results), nil
}

func formatResults(root, query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d results for: '%s'\n", len(results), query)
	for i, r := range results {
		rel, err := filepath.Rel(root, r.FilePath)
		if err != nil {
			rel = r.FilePath
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%d] %s:%d-%d (score: %.2f)\n", i+1, rel, r.StartLine, r.EndLine, r.Score)
		b.WriteString(r.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// indexStatus reports file count, chunk count, last-indexed time, and disk
// footprint for path's index.
func indexStatus(path string) (string, error) {
	root, err := index.ResolveRoot(path)
	if err != nil {
		if errors.Is(err, index.ErrPathNotFound) {
			return fmt.Sprintf("Error: path does not exist: %s", path), nil
		}
		return "", err
	}

	st, err := store.OpenProject(root)
	if err != nil {
		return "", err
	}
	defer st.Close()

	status, err := st.Status()
	if err != nil {
		return "", err
	}
	sizeMB := float64(status.IndexSizeBytes) / (1024 * 1024)
	return fmt.Sprintf("Index status for: %s\n  Files indexed:  %d\n  Total chunks:   %d\n  Last indexed:   %s\n  Index size:     %.1f MB",
		root, status.TotalFiles, status.TotalChunks, status.LastIndexed, sizeMB), nil
}
