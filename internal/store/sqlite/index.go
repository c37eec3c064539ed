// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package sqlite implements the index store on SQLite with the
// sqlite-vec extension providing the vector distance function.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/docdex-dev/docdex/internal/store"
	"github.com/docdex-dev/docdex/internal/vector"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.IndexStore = (*IndexStore)(nil)

// IndexStore implements store.IndexStore backed by SQLite. Embeddings
// are stored as packed float32 blobs; similarity queries rank with
// vec_distance_l2 so the DONE-status join filter is exact.
type IndexStore struct {
	db   *sql.DB
	dims int
}

// NewIndexStore opens (or creates) a SQLite database at dbPath and
// initialises the document_source and document_chunk tables.
func NewIndexStore(dbPath string, dims int) (*IndexStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrateIndex(db); err != nil {
		_ = db.Close()
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "migrating index tables: %w", err)
	}

	return &IndexStore{db: db, dims: dims}, nil
}

func migrateIndex(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS document_source (
	doc_id             INTEGER PRIMARY KEY,
	status             TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	correspondent      TEXT NOT NULL DEFAULT '',
	doc_date           TEXT NOT NULL DEFAULT '',
	source_modified_at TEXT,
	last_ingested_at   TEXT,
	error_message      TEXT,
	updated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS document_chunk (
	source_id   INTEGER NOT NULL REFERENCES document_source(doc_id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	embedding   BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (source_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_source_status ON document_source(status);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *IndexStore) Close() error {
	return s.db.Close()
}

func (s *IndexStore) UpsertRunning(ctx context.Context, rec store.SourceRecord) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO document_source
	(doc_id, status, title, correspondent, doc_date, source_modified_at, last_ingested_at, error_message, updated_at)
VALUES (?, ?, ?, ?, ?, ?, NULL, NULL, ?)
ON CONFLICT(doc_id) DO UPDATE SET
	status             = excluded.status,
	title              = excluded.title,
	correspondent      = excluded.correspondent,
	doc_date           = excluded.doc_date,
	source_modified_at = excluded.source_modified_at,
	last_ingested_at   = NULL,
	error_message      = NULL,
	updated_at         = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q,
		rec.DocumentID,
		string(store.StatusRunning),
		rec.Title,
		rec.Correspondent,
		formatDate(rec.DocDate),
		formatNullableTime(rec.SourceModifiedAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "upserting document source %d: %w", rec.DocumentID, err)
	}
	return nil
}

func (s *IndexStore) MarkDone(ctx context.Context, documentID int, at time.Time) error {
	const q = `UPDATE document_source
SET status = ?, last_ingested_at = ?, error_message = NULL, updated_at = ?
WHERE doc_id = ?`

	res, err := s.db.ExecContext(ctx, q, string(store.StatusDone), formatTime(at), formatTime(at), documentID)
	if err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "marking document source %d done: %w", documentID, err)
	}
	return requireRow(res, documentID)
}

func (s *IndexStore) MarkError(ctx context.Context, documentID int, message string, at time.Time) error {
	const q = `UPDATE document_source
SET status = ?, last_ingested_at = NULL, error_message = ?, updated_at = ?
WHERE doc_id = ?`

	res, err := s.db.ExecContext(ctx, q, string(store.StatusError), message, formatTime(at), documentID)
	if err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "marking document source %d errored: %w", documentID, err)
	}
	return requireRow(res, documentID)
}

func requireRow(res sql.Result, documentID int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "reading rows affected: %w", err)
	}
	if n == 0 {
		return docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}
	return nil
}

const sourceColumns = `doc_id, status, title, correspondent, doc_date, source_modified_at, last_ingested_at, error_message, updated_at`

func (s *IndexStore) GetSource(ctx context.Context, documentID int) (*store.SourceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sourceColumns+` FROM document_source WHERE doc_id = ?`, documentID)

	rec, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "getting document source %d: %w", documentID, err)
	}
	return rec, nil
}

func (s *IndexStore) ListSources(ctx context.Context) ([]*store.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sourceColumns+` FROM document_source ORDER BY doc_id`)
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "listing document sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*store.SourceRecord
	for rows.Next() {
		rec, err := scanSource(rows)
		if err != nil {
			return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "scanning document source: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "iterating document sources: %w", err)
	}
	return out, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSource(sc scanner) (*store.SourceRecord, error) {
	var (
		rec        store.SourceRecord
		status     string
		docDate    string
		modifiedAt sql.NullString
		ingestedAt sql.NullString
		errMsg     sql.NullString
		updatedAt  string
	)

	if err := sc.Scan(&rec.DocumentID, &status, &rec.Title, &rec.Correspondent,
		&docDate, &modifiedAt, &ingestedAt, &errMsg, &updatedAt); err != nil {
		return nil, err
	}

	rec.Status = store.IngestStatus(status)
	rec.ErrorMessage = errMsg.String

	var err error
	if rec.DocDate, err = parseDate(docDate); err != nil {
		return nil, err
	}
	if rec.SourceModifiedAt, err = parseNullableTime(modifiedAt); err != nil {
		return nil, err
	}
	if rec.LastIngestedAt, err = parseNullableTime(ingestedAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *IndexStore) ReplaceChunks(ctx context.Context, documentID int, chunks []store.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "beginning chunk transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunk WHERE source_id = ?`, documentID); err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "deleting chunks for document %d: %w", documentID, err)
	}

	const q = `INSERT INTO document_chunk (source_id, chunk_index, content, embedding, created_at)
VALUES (?, ?, ?, ?, ?)`

	for _, c := range chunks {
		blob, err := sqlite_vec.SerializeFloat32(c.Embedding)
		if err != nil {
			return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "serializing embedding for chunk %d/%d: %w", documentID, c.Index, err)
		}
		if _, err := tx.ExecContext(ctx, q, documentID, c.Index, c.Content, blob, formatTime(c.CreatedAt)); err != nil {
			return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "inserting chunk %d/%d: %w", documentID, c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "committing chunk replacement for document %d: %w", documentID, err)
	}
	return nil
}

func (s *IndexStore) ChunksFor(ctx context.Context, documentID int) ([]store.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, content, embedding, created_at FROM document_chunk
WHERE source_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "listing chunks for document %d: %w", documentID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Chunk
	for rows.Next() {
		var (
			c         store.Chunk
			blob      []byte
			createdAt string
		)
		if err := rows.Scan(&c.Index, &c.Content, &blob, &createdAt); err != nil {
			return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "scanning chunk: %w", err)
		}

		c.DocumentID = documentID
		if c.Embedding, err = vector.Decode(blob); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "parsing chunk created_at: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "iterating chunks: %w", err)
	}
	return out, nil
}

// Search ranks chunks of DONE documents by ascending L2 distance to the
// query embedding. The query vector is passed as an explicit textual
// literal so the persistence layer never has to infer a vector type.
func (s *IndexStore) Search(ctx context.Context, embedding []float32, topK int) ([]store.SearchHit, error) {
	if topK <= 0 {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreInvalidInput, "topK must be positive, got %d", topK)
	}

	const q = `SELECT c.source_id, s.title, s.correspondent, c.content,
	vec_distance_l2(c.embedding, ?) AS distance
FROM document_chunk c
JOIN document_source s ON s.doc_id = c.source_id
WHERE s.status = ?
ORDER BY distance
LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, vector.Encode(embedding), string(store.StatusDone), topK)
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "searching chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []store.SearchHit
	for rows.Next() {
		var h store.SearchHit
		if err := rows.Scan(&h.DocumentID, &h.Title, &h.Correspondent, &h.Snippet, &h.Distance); err != nil {
			return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreDatabaseFailure, "iterating search hits: %w", err)
	}
	return hits, nil
}

// --- time helpers ---

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
