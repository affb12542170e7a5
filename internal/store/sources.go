package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// SourceFile is an archived copy of an imported points or readings file.
type SourceFile struct {
	ID                int64
	ImportRunID       sql.NullInt64
	FetchedAt         time.Time
	Source            string
	ContentCompressed []byte
	ContentHash       string
}

// ArchiveSource stores a gzip-compressed copy of an imported file. It returns
// 0 when identical content was archived before.
func (s *Store) ArchiveSource(runID *int64, source string, content []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(content); err != nil {
		return 0, fmt.Errorf("compress source: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(content)

	var importRunID sql.NullInt64
	if runID != nil {
		importRunID = sql.NullInt64{Int64: *runID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO source_files (import_run_id, fetched_at, source, content_compressed, content_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`, importRunID, time.Now().UTC(), source, buf.Bytes(), hex.EncodeToString(hash[:]))
	if err != nil {
		return 0, fmt.Errorf("insert source file: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return 0, err
	}
	return result.LastInsertId()
}

// SourceContent returns the decompressed content of an archived file.
func (s *Store) SourceContent(id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT content_compressed FROM source_files WHERE id = ?`, id).Scan(&compressed)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
