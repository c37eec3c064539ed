// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package main

import (
	"context"
	"time"

	"github.com/docdex-dev/docdex/internal/config"
	"github.com/docdex-dev/docdex/internal/embed"
	"github.com/docdex-dev/docdex/internal/ingest"
	"github.com/docdex-dev/docdex/internal/query"
	"github.com/docdex-dev/docdex/internal/server"
	"github.com/docdex-dev/docdex/internal/source"
	"github.com/docdex-dev/docdex/internal/store"
	_ "github.com/docdex-dev/docdex/internal/store/sqlite" // register sqlite backend
	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Store    store.IndexStore
	Source   source.Source
	Embedder embed.Embedder
	Worker   *ingest.Worker
	Query    *query.Service
	Server   *server.Server
}

// WireApp creates all subsystems and wires them together.
func WireApp(cfg *config.Config) (*App, error) {
	// 1. Index store.
	st, err := store.NewIndexStore(&store.StorageConfig{
		Backend:          cfg.Storage.Backend,
		Path:             cfg.Storage.Path,
		VectorDimensions: cfg.Storage.VectorDimensions,
	})
	if err != nil {
		return nil, docdexerr.Wrap(err, docdexerr.CodeCLISetupFailure, "creating index store")
	}

	// 2. Document source.
	src, err := newSource(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// 3. Embedder.
	emb, err := embed.NewOpenAIEmbedder(embed.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		_ = src.Close()
		_ = st.Close()
		return nil, docdexerr.Wrap(err, docdexerr.CodeCLISetupFailure, "creating embedder")
	}

	// 4. Ingestion pipeline.
	splitter := ingest.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	ingestSvc := ingest.NewService(src, st, emb, splitter)
	worker := ingest.NewWorker(ingestSvc, cfg.Ingest.Interval, cfg.Ingest.PageSize)

	// 5. Query service.
	querySvc := query.NewService(st, emb)

	// 6. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		_ = src.Close()
		_ = st.Close()
		return nil, err
	}

	services, err := server.NewServices(
		&documentServiceAdapter{source: src},
		&searchServiceAdapter{query: querySvc},
	)
	if err != nil {
		_ = src.Close()
		_ = st.Close()
		return nil, err
	}
	srv.RegisterServices(services)

	return &App{
		Store:    st,
		Source:   src,
		Embedder: emb,
		Worker:   worker,
		Query:    querySvc,
		Server:   srv,
	}, nil
}

// Close releases held resources in reverse wiring order.
func (a *App) Close() error {
	return docdexerr.Join(a.Source.Close(), a.Store.Close())
}

func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Backend {
	case "", "paperless":
		src, err := source.NewPaperlessSource(cfg.Source.DSN)
		if err != nil {
			return nil, docdexerr.Wrap(err, docdexerr.CodeCLISetupFailure, "connecting to paperless")
		}
		return src, nil
	case "memory":
		return source.NewMemorySource(), nil
	default:
		return nil, docdexerr.Errorf(docdexerr.CodeSourceBackendUnsupported, "unsupported source backend: %q", cfg.Source.Backend)
	}
}

// documentServiceAdapter exposes a source.Source as server.DocumentService.
type documentServiceAdapter struct {
	source source.Source
}

func (a *documentServiceAdapter) List(ctx context.Context) ([]server.DocumentSummary, error) {
	docs, err := a.source.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]server.DocumentSummary, len(docs))
	for i, doc := range docs {
		out[i] = toSummary(doc)
	}
	return out, nil
}

func (a *documentServiceAdapter) Get(ctx context.Context, id int) (*server.DocumentSummary, error) {
	doc, err := a.source.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s := toSummary(doc)
	return &s, nil
}

func toSummary(doc *source.DocumentRecord) server.DocumentSummary {
	var modified *time.Time
	if doc.ModifiedAt != nil {
		m := *doc.ModifiedAt
		modified = &m
	}
	return server.DocumentSummary{
		ID:                doc.ID,
		Title:             doc.Title,
		CorrespondentName: doc.CorrespondentName,
		DocumentDate:      doc.DocumentDate,
		ModifiedAt:        modified,
		MimeType:          doc.MimeType,
		Content:           doc.Content,
		OwnerUsername:     doc.OwnerUsername,
		Note:              doc.Note,
		Tags:              doc.Tags,
	}
}

// searchServiceAdapter exposes a query.Service as server.SearchService.
type searchServiceAdapter struct {
	query *query.Service
}

func (a *searchServiceAdapter) Search(ctx context.Context, q string, topK int) ([]server.SearchResult, error) {
	results, err := a.query.FindDocumentsSimilarTo(ctx, q, topK)
	if err != nil {
		return nil, err
	}
	out := make([]server.SearchResult, len(results))
	for i, r := range results {
		out[i] = server.SearchResult{
			PaperlessDocID:    r.PaperlessDocID,
			Title:             r.Title,
			CorrespondentName: r.CorrespondentName,
			Snippet:           r.Snippet,
			Score:             r.Score,
		}
	}
	return out, nil
}
