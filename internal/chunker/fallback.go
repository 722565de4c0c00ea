package chunker

import "strings"

const (
	windowSize    = 40
	windowOverlap = 10
)

// windowChunks splits content into fixed line windows with overlap. Used for
// files without a registered grammar and for oversized AST chunks.
func windowChunks(content string, baseStartLine int) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	// A trailing newline is a line terminator, not an extra line; dropping
	// it keeps EndLine within the file's real line count.
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	for i := 0; i < len(lines); {
		end := i + windowSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, Chunk{
			StartLine: baseStartLine + i,
			EndLine:   baseStartLine + end - 1,
			Content:   strings.Join(lines[i:end], "\n"),
		})
		if end >= len(lines) {
			break
		}
		i += windowSize - windowOverlap
	}
	return chunks
}
