/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/ddbtable/schema"
	"github.com/suparena/ddbtable/storagemodels"
)

// Table is a typed view over one key-partitioned table. T is the Go type an
// item unmarshals into.
type Table[T any] interface {
	// Get returns the item stored under key, or nil when there is none.
	Get(ctx context.Context, key schema.Key) (*T, error)

	// Put stores item unconditionally and returns it.
	Put(ctx context.Context, item T) (T, error)

	// Delete removes the item stored under key. Deleting a missing item is not an error.
	Delete(ctx context.Context, key schema.Key) error

	// Update applies a partial update and returns the item the store reports back, if any.
	Update(ctx context.Context, key schema.Key, updates map[string]any, opts ...UpdateOption) (*T, error)

	Scan(ctx context.Context, cursor string, opts ...ScanOption) (*storagemodels.Page[T], error)

	Query(ctx context.Context, params storagemodels.QueryParams) (*storagemodels.Page[T], error)

	Stream(ctx context.Context, params storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
}
