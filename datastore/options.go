/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/expr"
)

// UpdateOptions configures Table.Update.
type UpdateOptions struct {
	// Increment names a numeric field whose update value is added rather than assigned.
	Increment string
	// IncrementStart is the value assumed for a missing Increment field when HasIncrementStart is set.
	IncrementStart    any
	HasIncrementStart bool
	// ReturnValues selects what the store reports back. Defaults to ALL_NEW.
	ReturnValues types.ReturnValue
	// Condition guards the update. The builder covers every declared field, keys included.
	Condition func(expr.ConditionFactory) *expr.Fragment
}

// UpdateOption is a functional option for Table.Update.
type UpdateOption func(*UpdateOptions)

// DefaultUpdateOptions returns the options an Update uses when none are given.
func DefaultUpdateOptions() UpdateOptions {
	return UpdateOptions{ReturnValues: types.ReturnValueAllNew}
}

// WithIncrement adds the update value to field instead of overwriting it.
func WithIncrement(field string) UpdateOption {
	return func(o *UpdateOptions) {
		o.Increment = field
		o.IncrementStart, o.HasIncrementStart = nil, false
	}
}

// WithIncrementFrom adds the update value to field, starting from start when
// the attribute does not exist yet.
func WithIncrementFrom(field string, start any) UpdateOption {
	return func(o *UpdateOptions) {
		o.Increment = field
		o.IncrementStart, o.HasIncrementStart = start, true
	}
}

// WithReturnValues overrides what the update reports back.
func WithReturnValues(rv types.ReturnValue) UpdateOption {
	return func(o *UpdateOptions) {
		o.ReturnValues = rv
	}
}

// WithCondition makes the update conditional.
func WithCondition(fn func(expr.ConditionFactory) *expr.Fragment) UpdateOption {
	return func(o *UpdateOptions) {
		o.Condition = fn
	}
}

// ScanOptions configures Table.Scan.
type ScanOptions struct {
	Filter func(expr.ConditionFactory) *expr.Fragment
	Limit  int32
}

// ScanOption is a functional option for Table.Scan.
type ScanOption func(*ScanOptions)

// WithScanFilter filters scanned items on the non-key fields.
func WithScanFilter(fn func(expr.ConditionFactory) *expr.Fragment) ScanOption {
	return func(o *ScanOptions) {
		o.Filter = fn
	}
}

// WithScanLimit caps the number of items evaluated per page.
func WithScanLimit(n int32) ScanOption {
	return func(o *ScanOptions) {
		o.Limit = n
	}
}
