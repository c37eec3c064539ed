// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package store

import (
	"sync"

	docdexerr "github.com/docdex-dev/docdex/pkg/errors"
)

// defaultVectorDimensions matches text-embedding-3-small and e5-base
// deployments; overridden from config when the embedding model differs.
const defaultVectorDimensions = 768

// StorageConfig selects and parameterizes the index backend.
type StorageConfig struct {
	Backend          string
	Path             string
	VectorDimensions int
}

// Factory creates an IndexStore given a database path and embedding
// dimensionality.
type Factory func(path string, vectorDims int) (IndexStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// NewIndexStore creates the index store for the configured backend,
// defaulting to "sqlite".
func NewIndexStore(cfg *StorageConfig) (IndexStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "sqlite"
	}

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, docdexerr.Errorf(docdexerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	dims := cfg.VectorDimensions
	if dims <= 0 {
		dims = defaultVectorDimensions
	}

	return factory(cfg.Path, dims)
}
