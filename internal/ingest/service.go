// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docdex-dev/docdex/internal/embed"
	"github.com/docdex-dev/docdex/internal/source"
	"github.com/docdex-dev/docdex/internal/store"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

const noNotePlaceholder = "(no note)"

// Candidate is a source document due for (re)indexing, paired with the
// reason it was selected.
type Candidate struct {
	Document *source.DocumentRecord
	Reason   string
}

// TextSplitter cuts composed document text into indexable pieces.
type TextSplitter interface {
	Split(text string) []string
}

// Service drives the per-document indexing pipeline.
type Service struct {
	source   source.Source
	store    store.IndexStore
	embedder embed.Embedder
	splitter TextSplitter
	now      func() time.Time
}

// NewService wires a pipeline over the given source, index store, and
// embedder. A nil splitter gets the defaults.
func NewService(src source.Source, st store.IndexStore, emb embed.Embedder, splitter TextSplitter) *Service {
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	}
	return &Service{
		source:   src,
		store:    st,
		embedder: emb,
		splitter: splitter,
		now:      time.Now,
	}
}

// FindIngestCandidates returns up to limit documents that need
// indexing: never indexed, modified since the last successful run, or
// stuck in ERROR. Oldest modifications come first so a backlog drains
// in order; documents without a modified timestamp sort first.
func (s *Service) FindIngestCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	docs, err := s.source.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*store.SourceRecord, len(sources))
	for _, rec := range sources {
		byID[rec.DocumentID] = rec
	}

	var out []Candidate
	for _, doc := range docs {
		rec := byID[doc.ID]
		switch {
		case rec == nil:
			out = append(out, Candidate{Document: doc, Reason: "never indexed"})
		case rec.Status == store.StatusError:
			out = append(out, Candidate{Document: doc, Reason: "previous attempt failed"})
		case doc.ModifiedAt != nil && rec.LastIngestedAt == nil:
			out = append(out, Candidate{Document: doc, Reason: "no completed index run"})
		case doc.ModifiedAt != nil && rec.LastIngestedAt != nil && doc.ModifiedAt.After(*rec.LastIngestedAt):
			out = append(out, Candidate{Document: doc, Reason: "modified since last index"})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Document.ModifiedAt, out[j].Document.ModifiedAt
		switch {
		case mi == nil && mj == nil:
			return out[i].Document.ID < out[j].Document.ID
		case mi == nil:
			return true
		case mj == nil:
			return false
		default:
			return mi.Before(*mj)
		}
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ProcessCandidate indexes one document end to end. A pipeline failure
// is recorded on the source row as ERROR and absorbed so one bad
// document never stops a pass; only bookkeeping failures propagate.
func (s *Service) ProcessCandidate(ctx context.Context, cand Candidate) error {
	doc := cand.Document
	if err := s.store.UpsertRunning(ctx, store.SourceRecord{
		DocumentID:       doc.ID,
		Title:            doc.Title,
		Correspondent:    doc.CorrespondentName,
		DocDate:          doc.DocumentDate,
		SourceModifiedAt: doc.ModifiedAt,
	}); err != nil {
		return err
	}

	// Re-fetch so a document deleted between discovery and processing
	// lands in ERROR instead of being indexed from stale data.
	err := func() error {
		fresh, err := s.source.GetDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		return s.index(ctx, fresh)
	}()
	if err != nil {
		slog.Warn("document indexing failed", "doc_id", doc.ID, "error", err)
		if markErr := s.store.MarkError(ctx, doc.ID, err.Error(), s.now().UTC()); markErr != nil {
			return docdexerr.Join(
				docdexerr.Wrapf(err, docdexerr.CodeIngestDocumentFailure, "indexing document %d", doc.ID),
				markErr,
			)
		}
		return nil
	}

	return s.store.MarkDone(ctx, doc.ID, s.now().UTC())
}

// index runs compose, split, embed, and persist for one document.
func (s *Service) index(ctx context.Context, doc *source.DocumentRecord) error {
	text := composeText(doc)
	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		// Nothing to embed; existing chunks, if any, stay as they are.
		slog.Info("document has no indexable text", "doc_id", doc.ID)
		return nil
	}

	vecs, err := s.embedder.EmbedAll(ctx, pieces)
	if err != nil {
		return err
	}
	if len(vecs) != len(pieces) {
		return docdexerr.Errorf(docdexerr.CodeEmbedCountMismatch,
			"embedder returned %d vectors for %d chunks", len(vecs), len(pieces))
	}

	now := s.now().UTC()
	chunks := make([]store.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = store.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    piece,
			Embedding:  vecs[i],
			CreatedAt:  now,
		}
	}
	return s.store.ReplaceChunks(ctx, doc.ID, chunks)
}

// composeText builds the text handed to the splitter: a metadata header
// followed by the document body and its note.
func composeText(doc *source.DocumentRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	if doc.CorrespondentName != "" {
		fmt.Fprintf(&b, "Correspondent: %s\n", doc.CorrespondentName)
	}
	fmt.Fprintf(&b, "Date: %s\n", doc.DocumentDate.Format("2006-01-02"))
	b.WriteString("\n")
	b.WriteString(doc.Content)
	b.WriteString("\n\n")
	note := doc.Note
	if strings.TrimSpace(note) == "" {
		note = noNotePlaceholder
	}
	fmt.Fprintf(&b, "Note: %s\n", note)
	return b.String()
}
