/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/cursor"
	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/expr"
	"github.com/suparena/ddbtable/storagemodels"
)

// Query reads one page of items sharing a hash key value. The key condition
// always matches the hash key; params.Range narrows the range key and
// params.Filter drops items after they are read.
func (t *Table[T]) Query(ctx context.Context, params storagemodels.QueryParams) (*storagemodels.Page[T], error) {
	input, err := t.BuildQueryInput(params)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("operation", "Query").
		Str("keyCondition", aws.ToString(input.KeyConditionExpression)).
		Str("filter", aws.ToString(input.FilterExpression)).
		Str("index", aws.ToString(input.IndexName)).
		Msg("dynamodb call")
	out, err := t.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return newPage[T](out.Items, out.LastEvaluatedKey)
}

// BuildQueryInput compiles params into the request Query would send. Every
// validation error surfaces here, before any call is made.
func (t *Table[T]) BuildQueryInput(params storagemodels.QueryParams) (*sdk.QueryInput, error) {
	if params.Hash == nil {
		return nil, errors.NewValidationError(t.def.HashKey, "hash key value is required")
	}
	hash := expr.NewKeyCondition(t.hashField)
	hash.Eq(params.Hash)
	if err := hash.Err(); err != nil {
		return nil, err
	}
	keyCondition := hash.Fragment()

	if params.Range != nil {
		if !t.def.HasRange() {
			return nil, errors.NewValidationError("", fmt.Sprintf("table %s has no range key", t.def.Table))
		}
		rng := expr.NewKeyCondition(t.rangeField)
		params.Range(rng)
		if rng.IsSet() {
			if err := rng.Err(); err != nil {
				return nil, err
			}
			merged, err := expr.Merge(keyCondition, rng.Fragment())
			if err != nil {
				return nil, err
			}
			keyCondition = merged.Add(nil, nil, keyCondition.Expression()+" AND "+rng.Fragment().Expression())
		}
	}

	filter, err := buildFilter(params.Filter, t.Filters())
	if err != nil {
		return nil, err
	}
	proj, err := t.projection(params.Projection)
	if err != nil {
		return nil, err
	}
	names, values, err := requestPlaceholders(&proj, keyCondition, filter)
	if err != nil {
		return nil, err
	}
	startKey, err := cursor.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(t.def.Table),
		IndexName:                 optionalString(params.Options.IndexName),
		KeyConditionExpression:    aws.String(keyCondition.Expression()),
		FilterExpression:          optionalString(filter.Expression()),
		ProjectionExpression:      proj.Projection(),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          params.Options.ScanIndexForward,
		ExclusiveStartKey:         startKey,
	}
	if params.Options.Limit > 0 {
		input.Limit = aws.Int32(params.Options.Limit)
	}
	if params.Options.ConsistentRead || t.consistentReads {
		input.ConsistentRead = aws.Bool(true)
	}
	return input, nil
}

// Scan reads one page of the whole table, starting after cursor.
func (t *Table[T]) Scan(ctx context.Context, c string, opts ...datastore.ScanOption) (*storagemodels.Page[T], error) {
	input, err := t.BuildScanInput(c, opts...)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("operation", "Scan").
		Str("filter", aws.ToString(input.FilterExpression)).
		Msg("dynamodb call")
	out, err := t.client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	return newPage[T](out.Items, out.LastEvaluatedKey)
}

// BuildScanInput compiles a scan request without sending it.
func (t *Table[T]) BuildScanInput(c string, opts ...datastore.ScanOption) (*sdk.ScanInput, error) {
	var options datastore.ScanOptions
	for _, opt := range opts {
		opt(&options)
	}

	filter, err := buildFilter(options.Filter, t.Filters())
	if err != nil {
		return nil, err
	}
	proj, err := t.projection(nil)
	if err != nil {
		return nil, err
	}
	names, values, err := requestPlaceholders(&proj, filter)
	if err != nil {
		return nil, err
	}
	startKey, err := cursor.Decode(c)
	if err != nil {
		return nil, err
	}

	input := &sdk.ScanInput{
		TableName:                 aws.String(t.def.Table),
		FilterExpression:          optionalString(filter.Expression()),
		ProjectionExpression:      proj.Projection(),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ExclusiveStartKey:         startKey,
	}
	if options.Limit > 0 {
		input.Limit = aws.Int32(options.Limit)
	}
	if t.consistentReads {
		input.ConsistentRead = aws.Bool(true)
	}
	return input, nil
}

func newPage[T any](items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) (*storagemodels.Page[T], error) {
	typed, err := unmarshalItems[T](items)
	if err != nil {
		return nil, err
	}
	next, err := cursor.Encode(lastKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cursor: %w", err)
	}
	return &storagemodels.Page[T]{Items: typed, Next: next}, nil
}
