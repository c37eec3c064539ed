// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// Compile-time interface check.
var _ Source = (*PaperlessSource)(nil)

// PaperlessSource reads documents straight from a Paperless-ngx
// PostgreSQL database. All access is read-only.
type PaperlessSource struct {
	db *sqlx.DB
}

// NewPaperlessSource connects to the Paperless database at dsn.
func NewPaperlessSource(dsn string) (*PaperlessSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeSourceUpstreamFailure, "connecting to paperless database: %w", err)
	}
	return &PaperlessSource{db: db}, nil
}

// Close closes the database connection.
func (p *PaperlessSource) Close() error {
	return p.db.Close()
}

// documentRow mirrors the joined paperless schema columns.
type documentRow struct {
	ID            int            `db:"id"`
	Title         sql.NullString `db:"title"`
	Created       time.Time      `db:"created"`
	Modified      sql.NullTime   `db:"modified"`
	MimeType      string         `db:"mime_type"`
	Content       sql.NullString `db:"content"`
	OwnerUsername sql.NullString `db:"username"`
	Note          sql.NullString `db:"note"`
	Correspondent sql.NullString `db:"correspondent"`
	Tags          pq.StringArray `db:"tag_names"`
}

const documentQuery = `
SELECT d.id,
	d.title,
	d.created,
	d.modified,
	d.mime_type,
	d.content,
	u.username,
	n.note,
	c.name AS correspondent,
	array_remove(array_agg(t.name), NULL) AS tag_names
FROM documents_document d
LEFT JOIN auth_user u ON d.owner_id = u.id
LEFT JOIN documents_note n ON n.document_id = d.id
LEFT JOIN documents_correspondent c ON d.correspondent_id = c.id
LEFT JOIN documents_document_tags dt ON dt.document_id = d.id
LEFT JOIN documents_tag t ON t.id = dt.tag_id
WHERE d.mime_type = $1%s
GROUP BY d.id, u.username, n.note, c.name
ORDER BY d.modified DESC`

func (p *PaperlessSource) GetDocument(ctx context.Context, id int) (*DocumentRecord, error) {
	var rows []documentRow
	q := fmt.Sprintf(documentQuery, " AND d.id = $2")
	if err := p.db.SelectContext(ctx, &rows, q, PDFMime, id); err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeSourceUpstreamFailure, "querying document %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, docdexerr.Errorf(docdexerr.CodeSourceDocumentNotFound, "document %d not found", id)
	}
	return rows[0].toRecord(), nil
}

func (p *PaperlessSource) ListDocuments(ctx context.Context) ([]*DocumentRecord, error) {
	var rows []documentRow
	if err := p.db.SelectContext(ctx, &rows, fmt.Sprintf(documentQuery, ""), PDFMime); err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeSourceUpstreamFailure, "listing documents: %w", err)
	}

	out := make([]*DocumentRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toRecord()
	}
	return out, nil
}

func (r *documentRow) toRecord() *DocumentRecord {
	rec := &DocumentRecord{
		ID:                r.ID,
		Title:             r.Title.String,
		DocumentDate:      r.Created,
		MimeType:          r.MimeType,
		Content:           r.Content.String,
		OwnerUsername:     r.OwnerUsername.String,
		Note:              r.Note.String,
		CorrespondentName: r.Correspondent.String,
		Tags:              []string(r.Tags),
	}
	if rec.Title == "" {
		rec.Title = "(untitled)"
	}
	if r.Modified.Valid {
		m := r.Modified.Time
		rec.ModifiedAt = &m
	}
	return rec
}
