// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package embed turns text into fixed-dimension vectors via an
// OpenAI-compatible embeddings endpoint.
package embed

import "context"

// Embedder produces embedding vectors for text.
type Embedder interface {
	// Embed embeds a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedAll embeds texts in one batch. The result has exactly one
	// vector per input, in input order.
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the vector width this embedder produces.
	Dimensions() int
}
