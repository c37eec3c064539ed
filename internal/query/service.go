// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package query answers similarity searches over the index.
package query

import (
	"context"
	"strings"

	"github.com/docdex-dev/docdex/internal/embed"
	"github.com/docdex-dev/docdex/internal/store"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// TopK bounds enforced on every search.
const (
	DefaultTopK = 5
	MaxTopK     = 20
)

// Result is one matching chunk, annotated with its document metadata.
// Score is the L2 distance to the query vector; smaller is closer.
type Result struct {
	PaperlessDocID    int
	Title             string
	CorrespondentName string
	Snippet           string
	Score             float64
}

// Service embeds a query text and delegates nearest-neighbour search to
// the index store. Only fully indexed documents are searched.
type Service struct {
	store    store.IndexStore
	embedder embed.Embedder
}

func NewService(st store.IndexStore, emb embed.Embedder) *Service {
	return &Service{store: st, embedder: emb}
}

// FindDocumentsSimilarTo returns the topK chunks closest to query,
// best match first. A blank query is rejected; topK is defaulted and
// capped rather than rejected.
func (s *Service) FindDocumentsSimilarTo(ctx context.Context, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, docdexerr.New(docdexerr.CodeQueryRequestInvalid, "query must not be blank")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			PaperlessDocID:    hit.DocumentID,
			Title:             hit.Title,
			CorrespondentName: hit.Correspondent,
			Snippet:           hit.Snippet,
			Score:             hit.Distance,
		}
	}
	return results, nil
}
