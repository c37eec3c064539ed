// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

package sqlite

import "github.com/docdex-dev/docdex/internal/store"

func init() {
	store.RegisterBackend("sqlite", func(path string, dims int) (store.IndexStore, error) {
		return NewIndexStore(path, dims)
	})
}
