// Package store persists chunk rows, their embeddings, and index metadata
// for one project in a SQLite database under the vecgrep home directory.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// ErrBatchMismatch is returned by AddChunks when the row and vector slices
// differ in length.
var ErrBatchMismatch = errors.New("rows/vectors length mismatch")

const lastIndexedKey = "last_indexed"

// Store is the persistence contract for one project's index. It is small
// enough to fake in tests and stable enough to put a different engine behind.
type Store interface {
	// FileHashes returns file_path → file_hash for every distinct stored path.
	FileHashes() (map[string]string, error)
	// DeleteFileChunks removes every chunk row for the path. No-op if none exist.
	DeleteFileChunks(path string) error
	// AddChunks inserts rows with their embeddings as a single transaction.
	AddChunks(rows []PendingChunk, vectors [][]float32) error
	// AllChunks reads every stored chunk and its embedding in one full scan.
	AllChunks() ([]StoredChunk, error)
	// Status reports file count, chunk count, last-indexed time, and disk size.
	Status() (Status, error)
	// TouchLastIndexed upserts the last_indexed meta key to the current UTC time.
	TouchLastIndexed() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var _ Store = (*SQLiteStore)(nil)

// ProjectHash derives the storage directory name for a project root: the
// first 16 hex characters of the sha256 of the absolute path string. It is
// deterministic, so repeated calls for the same root resolve to the same
// on-disk location.
func ProjectHash(root string) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:])[:16]
}

// Home returns the per-user vecgrep directory.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".vecgrep"), nil
}

// DirFor returns the storage directory for a project root.
func DirFor(root string) (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ProjectHash(root)), nil
}

// OpenProject opens (creating lazily if needed) the store for a project root.
func OpenProject(root string) (*SQLiteStore, error) {
	dir, err := DirFor(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return Open(filepath.Join(dir, "index.db"))
}

// Open creates or opens a SQLite database at the given path and initializes
// the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func (s *SQLiteStore) FileHashes() (map[string]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT file_path, file_hash FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

func (s *SQLiteStore) DeleteFileChunks(path string) error {
	_, err := s.db.Exec("DELETE FROM chunks WHERE file_path = ?", path)
	return err
}

// AddChunks inserts the batch in one transaction so a batch is either fully
// committed or not at all.
func (s *SQLiteStore) AddChunks(rows []PendingChunk, vectors [][]float32) error {
	if len(rows) != len(vectors) {
		return fmt.Errorf("%w: %d rows, %d vectors", ErrBatchMismatch, len(rows), len(vectors))
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT INTO chunks (file_path, start_line, end_line, content, file_hash, chunk_hash, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		blob, err := sqlite_vec.SerializeFloat32(vectors[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", r.FilePath, err)
		}
		if _, err := stmt.Exec(r.FilePath, r.StartLine, r.EndLine, r.Content, r.FileHash, r.ChunkHash, blob); err != nil {
			return fmt.Errorf("insert chunk for %s: %w", r.FilePath, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AllChunks() ([]StoredChunk, error) {
	rows, err := s.db.Query("SELECT id, file_path, start_line, end_line, content, file_hash, chunk_hash, embedding FROM chunks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var c StoredChunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.FilePath, &c.StartLine, &c.EndLine, &c.Content, &c.FileHash, &c.ChunkHash, &blob); err != nil {
			return nil, err
		}
		c.Embedding = deserializeFloat32(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) Status() (Status, error) {
	var st Status
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&st.TotalChunks); err != nil {
		return st, err
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT file_path) FROM chunks").Scan(&st.TotalFiles); err != nil {
		return st, err
	}
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", lastIndexedKey).Scan(&st.LastIndexed)
	if err == sql.ErrNoRows {
		st.LastIndexed = "never"
	} else if err != nil {
		return st, err
	}
	if info, err := os.Stat(s.dbPath); err == nil {
		st.IndexSizeBytes = info.Size()
	}
	return st, nil
}

func (s *SQLiteStore) TouchLastIndexed() error {
	ts := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		lastIndexedKey, ts,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// deserializeFloat32 is the inverse of sqlite-vec's little-endian float32
// blob encoding.
func deserializeFloat32(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
