// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package embed

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// Defaults target a local LM Studio instance serving an e5 model.
const (
	DefaultBaseURL    = "http://localhost:1234/v1"
	DefaultModel      = "text-embedding-multilingual-e5-base"
	DefaultAPIKey     = "lm-studio"
	DefaultDimensions = 768
)

// Config holds embedding endpoint configuration.
type Config struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder implements Embedder against any OpenAI-compatible
// embeddings API, including local servers such as LM Studio.
type OpenAIEmbedder struct {
	client openaisdk.Client
	config Config
}

// NewOpenAIEmbedder creates an embedder. Unset fields fall back to the
// LM Studio defaults.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)
	return &OpenAIEmbedder{client: client, config: cfg}, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.config.Dimensions }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, docdexerr.New(docdexerr.CodeEmbedRequestInvalid, "no texts to embed")
	}
	for i, text := range texts {
		if text == "" {
			return nil, docdexerr.Errorf(docdexerr.CodeEmbedRequestInvalid, "text %d is empty", i)
		}
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(e.config.Model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, docdexerr.Errorf(docdexerr.CodeEmbedUpstreamFailure, "requesting embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, docdexerr.Errorf(docdexerr.CodeEmbedCountMismatch,
			"embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	// The API may return data out of order; place each vector by index.
	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(vecs) {
			return nil, docdexerr.Errorf(docdexerr.CodeEmbedUpstreamFailure, "embedding index %d out of range", idx)
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		vecs[idx] = vec
	}
	for i, v := range vecs {
		if v == nil {
			return nil, docdexerr.Errorf(docdexerr.CodeEmbedUpstreamFailure, "missing embedding for text %d", i)
		}
	}
	return vecs, nil
}
