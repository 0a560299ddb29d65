/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/suparena/ddbtable/expr"
)

// QueryParams defines a typed Query against one table.
// Used for both single-page queries and streaming queries.
type QueryParams struct {
	// Hash is the value of the partition key. Required.
	Hash any
	// Range optionally narrows the sort key. Only valid on tables with a range key.
	Range func(*expr.KeyCondition)
	// Filter optionally builds a post-read filter over the non-key fields.
	Filter func(expr.ConditionFactory) *expr.Fragment
	// Projection lists the attributes to return. Empty means every declared field.
	Projection []string
	// Cursor resumes from a previous page. Empty starts at the beginning.
	Cursor string
	// Options are passed through to the transport unchanged.
	Options QueryOptions
}

// QueryOptions are transport options the table does not interpret.
type QueryOptions struct {
	// IndexName queries a secondary index instead of the base table.
	IndexName string
	// Limit caps the number of items evaluated per page. Zero means no limit.
	Limit int32
	// ScanIndexForward selects traversal order. Nil keeps the service default (ascending).
	ScanIndexForward *bool
	// ConsistentRead requests a strongly consistent read.
	ConsistentRead bool
}

// Page is one page of results together with the cursor for the next one.
// Next is empty when there are no further pages.
type Page[T any] struct {
	Items []T
	Next  string
}

// HasMore reports whether another page can be requested.
func (p *Page[T]) HasMore() bool {
	return p != nil && p.Next != ""
}
