/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/expr"
	"github.com/suparena/ddbtable/schema"
)

// Update applies a partial update to the item stored under key. Each entry
// of updates sets a declared non-key field; a nil, false, zero or empty value
// removes it. The returned item is whatever the store reports back (ALL_NEW by
// default), or nil when it reports nothing.
func (t *Table[T]) Update(ctx context.Context, key schema.Key, updates map[string]any, opts ...datastore.UpdateOption) (*T, error) {
	input, err := t.buildUpdateInput(key, updates, opts...)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("operation", "UpdateItem").
		Str("update", aws.ToString(input.UpdateExpression)).
		Str("condition", aws.ToString(input.ConditionExpression)).
		Msg("dynamodb call")
	out, err := t.client.UpdateItem(ctx, input)
	if err != nil {
		if errors.IsConditionFailed(err) {
			return nil, fmt.Errorf("condition failed: %w", err)
		}
		return nil, fmt.Errorf("UpdateItem failed: %w", err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Attributes, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}
	return result, nil
}

func (t *Table[T]) buildUpdateInput(key schema.Key, updates map[string]any, opts ...datastore.UpdateOption) (*sdk.UpdateItemInput, error) {
	options := datastore.DefaultUpdateOptions()
	for _, opt := range opts {
		opt(&options)
	}

	keyAV, err := t.def.KeyAttributes(key)
	if err != nil {
		return nil, err
	}
	if err := t.checkUpdates(updates, options); err != nil {
		return nil, err
	}

	var compileOpts []expr.UpdateOption
	switch {
	case options.Increment != "" && options.HasIncrementStart:
		compileOpts = append(compileOpts, expr.IncrementFrom(options.Increment, options.IncrementStart))
	case options.Increment != "":
		compileOpts = append(compileOpts, expr.Increment(options.Increment))
	}
	update, err := expr.CompileUpdate(updates, compileOpts...)
	if err != nil {
		return nil, err
	}

	condition, err := buildFilter(options.Condition, t.conditions())
	if err != nil {
		return nil, err
	}
	names, values, err := requestPlaceholders(nil, update.Fragment(), condition)
	if err != nil {
		return nil, err
	}

	return &sdk.UpdateItemInput{
		TableName:                 aws.String(t.def.Table),
		Key:                       keyAV,
		UpdateExpression:          aws.String(update.Expression),
		ConditionExpression:       optionalString(condition.Expression()),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              options.ReturnValues,
	}, nil
}

// checkUpdates rejects key fields, undeclared fields and values of the wrong
// type. Removal values are not type-checked.
func (t *Table[T]) checkUpdates(updates map[string]any, options datastore.UpdateOptions) error {
	for name, v := range updates {
		if t.def.IsKey(name) {
			return errors.NewValidationError(name, "key field cannot be updated")
		}
		field, ok := t.def.Schema.Lookup(name)
		if !ok {
			return errors.NewValidationError(name, "field is not declared in the schema")
		}
		if expr.IsRemoval(v) {
			continue
		}
		if !field.Accepts(v) {
			return errors.NewValidationError(name, fmt.Sprintf("value %v (%T) is not a %s", v, v, field.Kind))
		}
	}
	if options.Increment != "" {
		field, ok := t.def.Schema.Lookup(options.Increment)
		if !ok || t.def.IsKey(options.Increment) {
			return errors.NewValidationError(options.Increment, "increment field must be a declared non-key field")
		}
		if field.Kind != schema.KindNumber {
			return errors.NewValidationError(options.Increment, "increment field must be a number")
		}
		if options.HasIncrementStart && !field.Accepts(options.IncrementStart) {
			return errors.NewValidationError(options.Increment, "increment start must be a number")
		}
	}
	return nil
}
