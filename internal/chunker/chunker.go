// Package chunker splits source files into semantically meaningful fragments.
// Files with a registered tree-sitter grammar are chunked along top-level
// definitions; everything else falls back to fixed line windows.
package chunker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const maxChunkBytes = 8192

// Chunk is a contiguous line range of a source file. Line numbers are
// 1-indexed and inclusive.
type Chunk struct {
	StartLine int
	EndLine   int
	Content   string
}

// ASTChunker parses source files using tree-sitter and extracts chunks.
type ASTChunker struct {
	registry *Registry
}

// NewASTChunker creates a chunker backed by the given registry.
func NewASTChunker(r *Registry) *ASTChunker {
	return &ASTChunker{registry: r}
}

// Chunk reads the file and returns its chunks in order. Files that cannot be
// meaningfully segmented yield an empty slice.
func (c *ASTChunker) Chunk(path string) ([]Chunk, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	spec := c.registry.Lookup(path)
	if spec == nil {
		return windowChunks(string(src), 1), nil
	}
	return c.parse(path, src, spec)
}

func (c *ASTChunker) parse(path string, src []byte, spec *LanguageSpec) ([]Chunk, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", path, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var captures []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, cap := range m.Captures {
			if q.CaptureNameForId(cap.Index) != "chunk" {
				continue
			}
			n := cap.Node
			captures = append(captures, capture{
				startLine: int(n.StartPoint().Row) + 1,
				endLine:   int(n.EndPoint().Row) + 1,
				startByte: n.StartByte(),
				endByte:   n.EndByte(),
			})
		}
	}

	captures = dedup(captures)

	lines := strings.Split(string(src), "\n")
	var chunks []Chunk
	for _, cap := range captures {
		content := sliceLines(lines, cap.startLine, cap.endLine)
		if len(content) > maxChunkBytes {
			chunks = append(chunks, windowChunks(content, cap.startLine)...)
		} else {
			chunks = append(chunks, Chunk{
				StartLine: cap.startLine,
				EndLine:   cap.endLine,
				Content:   content,
			})
		}
	}
	return chunks, nil
}

// dedup removes captures fully contained within a larger capture, so nested
// definitions are only emitted once as part of their outer node.
func dedup(caps []capture) []capture {
	if len(caps) <= 1 {
		return caps
	}
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].startByte != caps[j].startByte {
			return caps[i].startByte < caps[j].startByte
		}
		return (caps[i].endByte - caps[i].startByte) > (caps[j].endByte - caps[j].startByte)
	})

	var result []capture
	var lastEnd uint32
	for _, c := range caps {
		if c.startByte >= lastEnd || lastEnd == 0 {
			result = append(result, c)
			if c.endByte > lastEnd {
				lastEnd = c.endByte
			}
		}
	}
	return result
}

// sliceLines joins the 1-indexed inclusive line range.
func sliceLines(lines []string, startLine, endLine int) string {
	start := startLine - 1
	if start < 0 {
		start = 0
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

type capture struct {
	startLine int
	endLine   int
	startByte uint32
	endByte   uint32
}
