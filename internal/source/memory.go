// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package source

import (
	"context"
	"sort"
	"sync"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

var _ Source = (*MemorySource)(nil)

// MemorySource is an in-memory Source for tests and local demos.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[int]*DocumentRecord
}

func NewMemorySource(docs ...*DocumentRecord) *MemorySource {
	s := &MemorySource{docs: make(map[int]*DocumentRecord, len(docs))}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

// Put adds or replaces a document.
func (s *MemorySource) Put(doc *DocumentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// Remove deletes a document if present.
func (s *MemorySource) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

func (s *MemorySource) GetDocument(_ context.Context, id int) (*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok || doc.MimeType != PDFMime {
		return nil, docdexerr.Errorf(docdexerr.CodeSourceDocumentNotFound, "document %d not found", id)
	}
	cp := *doc
	return &cp, nil
}

func (s *MemorySource) ListDocuments(_ context.Context) ([]*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*DocumentRecord, 0, len(s.docs))
	for _, doc := range s.docs {
		if doc.MimeType != PDFMime {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}

	// Newest modified first, documents without a modified timestamp last.
	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i].ModifiedAt, out[j].ModifiedAt
		switch {
		case mi == nil && mj == nil:
			return out[i].ID < out[j].ID
		case mi == nil:
			return false
		case mj == nil:
			return true
		default:
			return mi.After(*mj)
		}
	})
	return out, nil
}

func (s *MemorySource) Close() error { return nil }
