// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package source adapts the external document repository (Paperless)
// behind a read-only interface. The supported-content-type filter lives
// here, not in the ingestion service.
package source

import (
	"context"
	"time"
)

// PDFMime is the only content type Paperless extracts full text for.
const PDFMime = "application/pdf"

// DocumentRecord is a document as the external repository exposes it.
// ModifiedAt may be absent; absence is treated as older than anything.
type DocumentRecord struct {
	ID                int
	Title             string
	DocumentDate      time.Time
	ModifiedAt        *time.Time
	MimeType          string
	Content           string
	OwnerUsername     string
	Note              string
	CorrespondentName string
	Tags              []string
}

// Source supplies documents for ingestion and browsing. Implementations
// apply the content-type filter and return documents newest-modified
// first from ListDocuments.
type Source interface {
	// GetDocument returns the document with the given id, or an error
	// carrying CodeSourceDocumentNotFound.
	GetDocument(ctx context.Context, id int) (*DocumentRecord, error)

	// ListDocuments returns all supported documents, newest-modified first.
	ListDocuments(ctx context.Context) ([]*DocumentRecord, error)

	Close() error
}
