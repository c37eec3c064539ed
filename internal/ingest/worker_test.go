// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/docdex-dev/docdex/internal/ingest"
	"github.com/docdex-dev/docdex/internal/source"
	"github.com/docdex-dev/docdex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_RunOnceDrainsBacklog(t *testing.T) {
	ctx := context.Background()
	docs := make([]*source.DocumentRecord, 0, 5)
	for i := 1; i <= 5; i++ {
		docs = append(docs, doc(i, "doc", ts(i)))
	}
	src := source.NewMemorySource(docs...)
	svc, st := newService(src, &fakeEmbedder{})

	// Page size smaller than the backlog forces multiple pages.
	w := ingest.NewWorker(svc, time.Minute, 2)
	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, processed)

	sources, err := st.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 5)
	for _, rec := range sources {
		assert.Equal(t, store.StatusDone, rec.Status)
	}
}

func TestWorker_RunOnceNoWork(t *testing.T) {
	src := source.NewMemorySource()
	svc, _ := newService(src, &fakeEmbedder{})

	w := ingest.NewWorker(svc, time.Minute, 20)
	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestWorker_RunOnceDoesNotRetryFailuresWithinPass(t *testing.T) {
	ctx := context.Background()
	src := source.NewMemorySource(doc(1, "bad", ts(1)), doc(2, "fine", ts(2)))
	emb := &fakeEmbedder{failOn: "body of bad"}
	svc, st := newService(src, emb)

	// Page size 1 makes the errored document reappear on the next page.
	w := ingest.NewWorker(svc, time.Minute, 1)
	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	bad, err := st.GetSource(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, bad.Status)

	fine, err := st.GetSource(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, fine.Status)
}

func TestWorker_RunHonorsCancellation(t *testing.T) {
	src := source.NewMemorySource(doc(1, "doc", ts(1)))
	svc, _ := newService(src, &fakeEmbedder{})
	w := ingest.NewWorker(svc, 10*time.Millisecond, 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestWorker_Defaults(t *testing.T) {
	svc, _ := newService(source.NewMemorySource(), &fakeEmbedder{})
	w := ingest.NewWorker(svc, 0, 0)
	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}
