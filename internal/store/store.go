// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package store defines the persistent index: per-document ingestion
// state and the embedded chunks that similarity queries run over.
package store

import (
	"context"
	"time"
)

// IngestStatus is the lifecycle state of a document's ingestion.
type IngestStatus string

const (
	StatusRunning IngestStatus = "RUNNING"
	StatusDone    IngestStatus = "DONE"
	StatusError   IngestStatus = "ERROR"
)

// SourceRecord tracks the ingestion lifecycle of one source document.
// At most one record exists per DocumentID. LastIngestedAt is non-nil
// iff Status is DONE.
type SourceRecord struct {
	DocumentID       int
	Status           IngestStatus
	Title            string
	Correspondent    string
	DocDate          time.Time
	SourceModifiedAt *time.Time
	LastIngestedAt   *time.Time
	ErrorMessage     string
	UpdatedAt        time.Time
}

// Chunk is one embedded slice of a document's composed text.
type Chunk struct {
	DocumentID int
	Index      int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// SearchHit is one ranked result of a similarity query. Distance is the
// store's raw vector distance; lower means more relevant.
type SearchHit struct {
	DocumentID    int
	Title         string
	Correspondent string
	Snippet       string
	Distance      float64
}

// IndexStore persists document sources and chunks. It is the sole
// mutation path for both tables; the ingestion service is its only
// writer.
type IndexStore interface {
	// UpsertRunning creates or overwrites the source record for
	// rec.DocumentID with status RUNNING, refreshing title,
	// correspondent, date, and source modification time, and clearing
	// LastIngestedAt and ErrorMessage. Never duplicates a row.
	UpsertRunning(ctx context.Context, rec SourceRecord) error

	// MarkDone transitions the record to DONE and sets LastIngestedAt.
	MarkDone(ctx context.Context, documentID int, at time.Time) error

	// MarkError transitions the record to ERROR and records the message.
	MarkError(ctx context.Context, documentID int, message string, at time.Time) error

	// GetSource returns the record for documentID, or a not_found error.
	GetSource(ctx context.Context, documentID int) (*SourceRecord, error)

	// ListSources returns all source records.
	ListSources(ctx context.Context) ([]*SourceRecord, error)

	// ReplaceChunks deletes all chunks for documentID and inserts the
	// given set as one atomic unit. A concurrent reader sees either the
	// old complete set or the new complete set, never a partial one.
	ReplaceChunks(ctx context.Context, documentID int, chunks []Chunk) error

	// ChunksFor returns the stored chunks for documentID ordered by index.
	ChunksFor(ctx context.Context, documentID int) ([]Chunk, error)

	// Search returns up to topK chunks ranked by ascending distance to
	// the query embedding, restricted to documents whose source record
	// is DONE.
	Search(ctx context.Context, embedding []float32, topK int) ([]SearchHit, error)

	Close() error
}
