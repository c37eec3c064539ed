// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/docdex-dev/docdex/internal/query"
	"github.com/docdex-dev/docdex/internal/store"
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder always returns the same vector.
type fixedEmbedder struct {
	vec   []float32
	calls int
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, nil
}

func (f *fixedEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, _ := f.Embed(ctx, texts[i])
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return len(f.vec) }

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, st.UpsertRunning(ctx, store.SourceRecord{
		DocumentID: 1, Title: "Car Insurance", Correspondent: "ACME",
		DocDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.ReplaceChunks(ctx, 1, []store.Chunk{
		{DocumentID: 1, Index: 0, Content: "premium due in march", Embedding: []float32{1, 0, 0}, CreatedAt: now},
		{DocumentID: 1, Index: 1, Content: "deductible is 500", Embedding: []float32{0.8, 0.2, 0}, CreatedAt: now},
	}))
	require.NoError(t, st.MarkDone(ctx, 1, now))

	require.NoError(t, st.UpsertRunning(ctx, store.SourceRecord{
		DocumentID: 2, Title: "Rental Contract", Correspondent: "Landlord",
		DocDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.ReplaceChunks(ctx, 2, []store.Chunk{
		{DocumentID: 2, Index: 0, Content: "rent increases yearly", Embedding: []float32{0, 1, 0}, CreatedAt: now},
	}))
	require.NoError(t, st.MarkDone(ctx, 2, now))

	return st
}

func TestService_FindDocumentsSimilarTo(t *testing.T) {
	st := seedStore(t)
	emb := &fixedEmbedder{vec: []float32{1, 0, 0}}
	svc := query.NewService(st, emb)

	results, err := svc.FindDocumentsSimilarTo(context.Background(), "car insurance premium", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].PaperlessDocID)
	assert.Equal(t, "Car Insurance", results[0].Title)
	assert.Equal(t, "ACME", results[0].CorrespondentName)
	assert.Equal(t, "premium due in march", results[0].Snippet)
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
	assert.LessOrEqual(t, results[1].Score, results[2].Score)

	// The query text is embedded exactly once.
	assert.Equal(t, 1, emb.calls)
}

func TestService_BlankQueryRejected(t *testing.T) {
	svc := query.NewService(seedStore(t), &fixedEmbedder{vec: []float32{1, 0, 0}})

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := svc.FindDocumentsSimilarTo(context.Background(), q, 5)
		require.Error(t, err)
		assert.True(t, docdexerr.IsInvalidInput(err))
	}
}

func TestService_TopKDefaultsAndCaps(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, st.UpsertRunning(ctx, store.SourceRecord{DocumentID: 1, Title: "doc", DocDate: now}))
	chunks := make([]store.Chunk, 30)
	for i := range chunks {
		chunks[i] = store.Chunk{DocumentID: 1, Index: i, Content: "c", Embedding: []float32{1, 0, 0}, CreatedAt: now}
	}
	require.NoError(t, st.ReplaceChunks(ctx, 1, chunks))
	require.NoError(t, st.MarkDone(ctx, 1, now))

	svc := query.NewService(st, &fixedEmbedder{vec: []float32{1, 0, 0}})

	results, err := svc.FindDocumentsSimilarTo(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Len(t, results, query.DefaultTopK)

	results, err = svc.FindDocumentsSimilarTo(ctx, "anything", 100)
	require.NoError(t, err)
	assert.Len(t, results, query.MaxTopK)
}

func TestService_EmptyIndex(t *testing.T) {
	svc := query.NewService(store.NewMemoryStore(), &fixedEmbedder{vec: []float32{1, 0, 0}})
	results, err := svc.FindDocumentsSimilarTo(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
