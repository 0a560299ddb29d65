/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/expr"
	"github.com/suparena/ddbtable/registry"
	"github.com/suparena/ddbtable/schema"
)

// Table implements datastore.Table[T] over a DynamoDB table described by a
// schema.Definition. It holds no per-request state and is safe for
// concurrent use.
type Table[T any] struct {
	client          Client
	def             schema.Definition
	hashField       schema.Field
	rangeField      schema.Field
	logger          zerolog.Logger
	consistentReads bool
	validateItems   bool
}

var _ datastore.Table[struct{}] = (*Table[struct{}])(nil)

// Option configures a Table.
type Option func(*tableOptions)

type tableOptions struct {
	logger          zerolog.Logger
	consistentReads bool
	validateItems   bool
}

// WithLogger sets the logger used for per-call debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *tableOptions) {
		o.logger = logger
	}
}

// WithConsistentReads makes Get, Scan and Query use strongly consistent reads.
func WithConsistentReads() Option {
	return func(o *tableOptions) {
		o.consistentReads = true
	}
}

// WithItemValidation checks every Put against the schema before sending it.
func WithItemValidation() Option {
	return func(o *tableOptions) {
		o.validateItems = true
	}
}

// NewTable builds a table over def.
func NewTable[T any](client Client, def schema.Definition, opts ...Option) (*Table[T], error) {
	if client == nil {
		return nil, errors.NewValidationError("", "client is required")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	options := tableOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}

	t := &Table[T]{
		client:          client,
		def:             def,
		logger:          options.logger.With().Str("table", def.Table).Logger(),
		consistentReads: options.consistentReads,
		validateItems:   options.validateItems,
	}
	t.hashField, _ = def.Schema.Lookup(def.HashKey)
	if def.HasRange() {
		t.rangeField, _ = def.Schema.Lookup(def.RangeKey)
	}
	return t, nil
}

// NewTableFor builds a table from the definition registered for T.
func NewTableFor[T any](client Client, opts ...Option) (*Table[T], error) {
	def, ok := registry.GetDefinition[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %T", errors.ErrNoDefinition, zero)
	}
	return NewTable[T](client, def, opts...)
}

// Definition returns the table definition.
func (t *Table[T]) Definition() schema.Definition {
	return t.def
}

// Filters returns the builder factory handed to filter callbacks: every
// declared field except the keys.
func (t *Table[T]) Filters() expr.ConditionFactory {
	return func() *expr.ConditionBuilder {
		return expr.NewConditionBuilder(t.def.Schema, t.def.KeyNames()...)
	}
}

// conditions returns the builder factory for update conditions, which may
// reference the keys.
func (t *Table[T]) conditions() expr.ConditionFactory {
	return func() *expr.ConditionBuilder {
		return expr.NewConditionBuilder(t.def.Schema)
	}
}

// Get retrieves a single item. It returns nil, nil when no item is stored
// under key.
func (t *Table[T]) Get(ctx context.Context, key schema.Key) (*T, error) {
	keyAV, err := t.def.KeyAttributes(key)
	if err != nil {
		return nil, err
	}
	proj, err := t.projection(nil)
	if err != nil {
		return nil, err
	}

	input := &sdk.GetItemInput{
		TableName:                aws.String(t.def.Table),
		Key:                      keyAV,
		ProjectionExpression:     proj.Projection(),
		ExpressionAttributeNames: proj.Names(),
	}
	if t.consistentReads {
		input.ConsistentRead = aws.Bool(true)
	}

	t.logger.Debug().Str("operation", "GetItem").Str("projection", aws.ToString(input.ProjectionExpression)).Msg("dynamodb call")
	out, err := t.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Put stores item, replacing any item with the same key, and returns it.
func (t *Table[T]) Put(ctx context.Context, item T) (T, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return item, fmt.Errorf("failed to marshal item: %w", err)
	}
	if t.validateItems {
		if err := t.def.ValidateItem(av); err != nil {
			return item, err
		}
	}

	t.logger.Debug().Str("operation", "PutItem").Int("attributes", len(av)).Msg("dynamodb call")
	_, err = t.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(t.def.Table),
		Item:      av,
	})
	if err != nil {
		return item, fmt.Errorf("PutItem failed: %w", err)
	}
	return item, nil
}

// Delete removes the item stored under key. A missing item is not an error.
func (t *Table[T]) Delete(ctx context.Context, key schema.Key) error {
	keyAV, err := t.def.KeyAttributes(key)
	if err != nil {
		return err
	}

	t.logger.Debug().Str("operation", "DeleteItem").Msg("dynamodb call")
	_, err = t.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(t.def.Table),
		Key:       keyAV,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// projection builds a ProjectionExpression over fields, or over every
// declared field when fields is empty. Document paths are allowed as long as
// their top-level attribute is declared.
func (t *Table[T]) projection(fields []string) (expression.Expression, error) {
	if len(fields) == 0 {
		fields = t.def.Schema.Names()
	}
	names := make([]expression.NameBuilder, 0, len(fields))
	for _, f := range fields {
		root := f
		if at := strings.IndexAny(root, ".["); at >= 0 {
			root = root[:at]
		}
		if !t.def.Schema.Has(root) {
			return expression.Expression{}, errors.NewValidationError(f, "projected field is not declared in the schema")
		}
		names = append(names, expression.Name(f))
	}
	proj := expression.NamesList(names[0], names[1:]...)
	built, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return expression.Expression{}, errors.NewValidationError("", err.Error())
	}
	return built, nil
}

// unmarshalItems converts a page of raw items into T.
func unmarshalItems[T any](items []map[string]types.AttributeValue) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// requestPlaceholders merges expression fragments with the names of a
// projection built by the expression package. The two never share tokens:
// fragment aliases are fixed-width hashes, projection aliases are "#0".."#n".
func requestPlaceholders(proj *expression.Expression, parts ...*expr.Fragment) (map[string]string, map[string]types.AttributeValue, error) {
	merged, err := expr.Merge(parts...)
	if err != nil {
		return nil, nil, err
	}
	names := merged.Names()
	if proj != nil {
		for token, name := range proj.Names() {
			names[token] = name
		}
	}
	values, err := merged.AttributeValues()
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		names = nil
	}
	if len(values) == 0 {
		values = nil
	}
	return names, values, nil
}

// buildFilter runs a filter callback and returns nil when it produced nothing.
func buildFilter(fn func(expr.ConditionFactory) *expr.Fragment, factory expr.ConditionFactory) (*expr.Fragment, error) {
	if fn == nil {
		return nil, nil
	}
	f := fn(factory)
	if err := f.Err(); err != nil {
		return nil, err
	}
	if f.IsEmpty() {
		return nil, nil
	}
	return f, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
