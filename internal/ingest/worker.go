// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Worker defaults. One pass processes at most PageSize documents; the
// periodic loop keeps passing until the backlog drains.
const (
	DefaultInterval = time.Minute
	DefaultPageSize = 20
)

// Worker periodically scans for stale documents and indexes them. It is
// the only writer of the index; runs never overlap.
type Worker struct {
	service  *Service
	interval time.Duration
	pageSize int
}

// NewWorker wraps service in a periodic driver. Non-positive interval
// or pageSize fall back to defaults.
func NewWorker(service *Service, interval time.Duration, pageSize int) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Worker{service: service, interval: interval, pageSize: pageSize}
}

// Run blocks, executing one drain pass per tick until ctx is cancelled.
// Pass failures are logged and the loop keeps going.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("ingest worker started", "interval", w.interval, "page_size", w.pageSize)
	for {
		select {
		case <-ctx.Done():
			slog.Info("ingest worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				slog.Error("ingest pass failed", "error", err)
			}
		}
	}
}

// RunOnce drains the current backlog in pages and returns the number of
// documents processed. Per-document failures are recorded in the store
// and do not abort the pass.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	passID := uuid.NewString()
	processed := 0
	attempted := make(map[int]bool)

	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		// Failed documents reappear as candidates immediately; fetch
		// past them and retry only on the next pass.
		candidates, err := w.service.FindIngestCandidates(ctx, w.pageSize+len(attempted))
		if err != nil {
			return processed, err
		}

		var fresh []Candidate
		for _, cand := range candidates {
			if attempted[cand.Document.ID] {
				continue
			}
			fresh = append(fresh, cand)
			if len(fresh) == w.pageSize {
				break
			}
		}
		if len(fresh) == 0 {
			break
		}

		slog.Info("processing ingest candidates", "pass_id", passID, "count", len(fresh))
		for _, cand := range fresh {
			if err := ctx.Err(); err != nil {
				return processed, err
			}
			attempted[cand.Document.ID] = true
			if err := w.service.ProcessCandidate(ctx, cand); err != nil {
				return processed, err
			}
			processed++
		}
	}

	if processed > 0 {
		slog.Info("ingest pass complete", "pass_id", passID, "processed", processed)
	}
	return processed, nil
}
