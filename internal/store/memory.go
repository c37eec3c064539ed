// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

func init() {
	RegisterBackend("memory", func(_ string, _ int) (IndexStore, error) {
		return NewMemoryStore(), nil
	})
}

// Compile-time interface check.
var _ IndexStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory IndexStore. It backs service tests and
// the "memory" storage backend; distances are exact L2 computed in Go.
type MemoryStore struct {
	mu      sync.RWMutex
	sources map[int]*SourceRecord
	chunks  map[int][]Chunk
}

// NewMemoryStore creates an empty in-memory index store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources: make(map[int]*SourceRecord),
		chunks:  make(map[int][]Chunk),
	}
}

func (m *MemoryStore) UpsertRunning(_ context.Context, rec SourceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Status = StatusRunning
	rec.LastIngestedAt = nil
	rec.ErrorMessage = ""
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	copied := rec
	m.sources[rec.DocumentID] = &copied
	return nil
}

func (m *MemoryStore) MarkDone(_ context.Context, documentID int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[documentID]
	if !ok {
		return docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}

	rec.Status = StatusDone
	ingested := at
	rec.LastIngestedAt = &ingested
	rec.ErrorMessage = ""
	rec.UpdatedAt = at
	return nil
}

func (m *MemoryStore) MarkError(_ context.Context, documentID int, message string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[documentID]
	if !ok {
		return docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}

	rec.Status = StatusError
	rec.LastIngestedAt = nil
	rec.ErrorMessage = message
	rec.UpdatedAt = at
	return nil
}

func (m *MemoryStore) GetSource(_ context.Context, documentID int) (*SourceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sources[documentID]
	if !ok {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}

	copied := *rec
	return &copied, nil
}

func (m *MemoryStore) ListSources(_ context.Context) ([]*SourceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*SourceRecord, 0, len(m.sources))
	for _, rec := range m.sources {
		copied := *rec
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

func (m *MemoryStore) ReplaceChunks(_ context.Context, documentID int, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[documentID]; !ok {
		return docdexerr.Errorf(docdexerr.CodeStoreSourceNotFound, "document source %d not found", documentID)
	}

	replacement := make([]Chunk, len(chunks))
	copy(replacement, chunks)
	m.chunks[documentID] = replacement
	return nil
}

func (m *MemoryStore) ChunksFor(_ context.Context, documentID int) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := m.chunks[documentID]
	out := make([]Chunk, len(chunks))
	copy(out, chunks)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (m *MemoryStore) Search(_ context.Context, embedding []float32, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreInvalidInput, "topK must be positive, got %d", topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []SearchHit
	for docID, chunks := range m.chunks {
		rec, ok := m.sources[docID]
		if !ok || rec.Status != StatusDone {
			continue
		}
		for _, c := range chunks {
			hits = append(hits, SearchHit{
				DocumentID:    docID,
				Title:         rec.Title,
				Correspondent: rec.Correspondent,
				Snippet:       c.Content,
				Distance:      l2Distance(embedding, c.Embedding),
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MemoryStore) Close() error { return nil }

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Dimension mismatch counts missing elements against the distance.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}
