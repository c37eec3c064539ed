// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package server

import (
	"context"
	"time"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use NewServices constructor to ensure all required services are provided.
type Services struct {
	documents DocumentService
	search    SearchService
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
func NewServices(documents DocumentService, search SearchService) (*Services, error) {
	if documents == nil {
		return nil, docdexerr.New(docdexerr.CodeServerStartFailure, "document service is required")
	}
	if search == nil {
		return nil, docdexerr.New(docdexerr.CodeServerStartFailure, "search service is required")
	}
	return &Services{documents: documents, search: search}, nil
}

// Documents returns the document service.
func (s *Services) Documents() DocumentService {
	return s.documents
}

// Search returns the search service.
func (s *Services) Search() SearchService {
	return s.search
}

// DocumentService provides document browsing for REST handlers.
// Implementations return docdexerr codes ending in not_found for
// missing documents so handlers can map them to 404.
type DocumentService interface {
	List(ctx context.Context) ([]DocumentSummary, error)
	Get(ctx context.Context, id int) (*DocumentSummary, error)
}

// SearchService provides similarity search for REST handlers.
type SearchService interface {
	Search(ctx context.Context, query string, topK int) ([]SearchResult, error)
}

// DocumentSummary is the REST representation of a source document.
type DocumentSummary struct {
	ID                int        `json:"id" doc:"Document identifier"`
	Title             string     `json:"title" doc:"Document title"`
	CorrespondentName string     `json:"correspondentName,omitempty" doc:"Correspondent, if any"`
	DocumentDate      time.Time  `json:"documentDate" doc:"Document date"`
	ModifiedAt        *time.Time `json:"modifiedAt,omitempty" doc:"Last modification in the source"`
	MimeType          string     `json:"mimeType" doc:"Content type"`
	Content           string     `json:"content,omitempty" doc:"Extracted full text"`
	OwnerUsername     string     `json:"ownerUsername,omitempty" doc:"Owning user"`
	Note              string     `json:"note,omitempty" doc:"Attached note"`
	Tags              []string   `json:"tags,omitempty" doc:"Tag names"`
}

// SearchResult is one matching chunk in a similarity search response.
// Score is the distance to the query; smaller is closer.
type SearchResult struct {
	PaperlessDocID    int     `json:"paperlessDocId" doc:"Source document identifier"`
	Title             string  `json:"title" doc:"Document title"`
	CorrespondentName string  `json:"correspondentName,omitempty" doc:"Correspondent, if any"`
	Snippet           string  `json:"snippet" doc:"Matching chunk text"`
	Score             float64 `json:"score" doc:"Distance to the query, smaller is closer"`
}

// NewServicesForTest creates a Services instance for testing.
// It delegates to NewServices to enforce the same validation invariants
// as production code. Panics if any required service is nil.
func NewServicesForTest(documents DocumentService, search SearchService) *Services {
	svc, err := NewServices(documents, search)
	if err != nil {
		panic(err)
	}
	return svc
}
