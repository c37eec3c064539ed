// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docdex-dev/docdex/internal/query"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	// Document endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/documents/all",
		Summary:     "List all indexed source documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/api/documents/{id}",
		Summary:     "Get a source document",
		Tags:        []string{"documents"},
	}, s.handleGetDocument)

	// Search endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "rag-search",
		Method:      http.MethodPost,
		Path:        "/api/rag/search",
		Summary:     "Find chunks similar to a query",
		Tags:        []string{"search"},
	}, s.handleSearch)
}

// --- Request/Response types for huma ---

type listDocumentsOutput struct {
	Body struct {
		Documents []DocumentSummary `json:"documents"`
	}
}

// The id stays a string so a non-integer yields 400, not a router miss.
type getDocumentInput struct {
	ID string `path:"id"`
}
type getDocumentOutput struct {
	Body DocumentSummary
}

type searchInput struct {
	Body struct {
		Query string `json:"query,omitempty" doc:"Query text"`
		TopK  int    `json:"topK,omitempty" doc:"Number of chunks to return, defaults to 5, capped at 20"`
	}
}
type searchOutput struct {
	Body struct {
		Results []SearchResult `json:"results"`
	}
}

// --- Handlers ---

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*listDocumentsOutput, error) {
	docs, err := s.services.Documents().List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing documents", err)
	}
	out := &listDocumentsOutput{}
	out.Body.Documents = docs
	return out, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *getDocumentInput) (*getDocumentOutput, error) {
	id, err := strconv.Atoi(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest(fmt.Sprintf("document id %q is not an integer", input.ID))
	}

	doc, err := s.services.Documents().Get(ctx, id)
	if err != nil {
		if docdexerr.IsNotFound(err) {
			return nil, huma.Error404NotFound(fmt.Sprintf("document %d not found", id))
		}
		return nil, huma.Error500InternalServerError("loading document", err)
	}
	return &getDocumentOutput{Body: *doc}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	if strings.TrimSpace(input.Body.Query) == "" {
		return nil, huma.Error400BadRequest("query must not be blank")
	}

	topK := input.Body.TopK
	if topK <= 0 {
		topK = query.DefaultTopK
	}
	if topK > query.MaxTopK {
		topK = query.MaxTopK
	}

	results, err := s.services.Search().Search(ctx, input.Body.Query, topK)
	if err != nil {
		switch {
		case docdexerr.IsInvalidInput(err):
			return nil, huma.Error400BadRequest(err.Error())
		case docdexerr.IsUpstreamFailure(err):
			return nil, huma.Error502BadGateway("embedding backend unavailable", err)
		default:
			return nil, huma.Error500InternalServerError("searching", err)
		}
	}

	out := &searchOutput{}
	out.Body.Results = results
	if out.Body.Results == nil {
		out.Body.Results = []SearchResult{}
	}
	return out, nil
}
