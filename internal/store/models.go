package store

// PendingChunk is a chunk staged for insertion, before its embedding exists.
type PendingChunk struct {
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
	FileHash  string
	ChunkHash string
}

// StoredChunk is a chunk row read back from the store, embedding included.
// ID is the insertion-order rowid, used as the deterministic tie-break when
// similarity scores are equal.
type StoredChunk struct {
	ID        int64
	FilePath  string
	StartLine int
	EndLine   int
	Content   string
	FileHash  string
	ChunkHash string
	Embedding []float32
}

// Status summarizes a project's index.
type Status struct {
	TotalFiles     int
	TotalChunks    int
	LastIndexed    string // ISO-8601 UTC, or "never"
	IndexSizeBytes int64
}
