/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/cursor"
	"github.com/suparena/ddbtable/storagemodels"
)

// Stream walks every page of a query, threading the cursor from one page to
// the next, and delivers items on the returned channel. The channel is closed
// when the last page is done, the context is cancelled or a fatal error has
// been delivered.
func (t *Table[T]) Stream(ctx context.Context, params storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	// Apply options
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	// Create buffered result channel
	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)

	input, err := t.BuildQueryInput(params)
	if err != nil {
		resultCh <- storagemodels.StreamResult[T]{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}
		close(resultCh)
		return resultCh
	}
	if input.Limit == nil && options.PageSize > 0 {
		input.Limit = aws.Int32(options.PageSize)
	}

	// Start streaming in background
	go t.streamWorker(ctx, input, options, resultCh)

	return resultCh
}

// streamWorker handles the actual streaming logic
func (t *Table[T]) streamWorker(
	ctx context.Context,
	input *sdk.QueryInput,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)

	// Progress tracking is confined to this goroutine.
	var itemIndex int64
	var pageNumber int
	startTime := time.Now()
	var streamErrors []error

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		next, err := cursor.Encode(lastKey)
		if err != nil {
			t.logger.Warn().Err(err).Int("page", pageNumber).Msg("stream progress cursor")
			streamErrors = append(streamErrors, fmt.Errorf("encode progress cursor: %w", err))
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			Cursor:         next,
			Errors:         streamErrors,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      itemIndex,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	// Consecutive query failures the error handler chose to continue past.
	handled := 0

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return
		default:
		}

		out, err := t.queryWithRetry(ctx, input, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if options.ErrorHandler == nil || !options.ErrorHandler(err) {
				fail(fmt.Errorf("query failed: %w", err))
				return
			}
			// The handler chose to go on; the same page is requested again,
			// at most MaxRetries+1 times in a row.
			streamErrors = append(streamErrors, err)
			handled++
			if handled > options.MaxRetries+1 {
				fail(fmt.Errorf("query failed after %d handled errors: %w", handled, err))
				return
			}
			t.logger.Debug().Err(err).Int("handled", handled).Dur("backoff", options.RetryBackoff).Msg("continuing after query error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(options.RetryBackoff):
			}
			continue
		}
		handled = 0

		pageNumber++
		t.logger.Debug().Str("operation", "Query").Int("page", pageNumber).Int("items", len(out.Items)).Msg("stream page")

		for _, item := range out.Items {
			result := t.processItem(item, itemIndex, pageNumber)
			itemIndex++

			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}

			if result.Error != nil {
				streamErrors = append(streamErrors, result.Error)
			}
		}

		reportProgress(out.LastEvaluatedKey)

		if len(out.LastEvaluatedKey) == 0 {
			return
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// queryWithRetry executes a query, retrying transient failures only when
// MaxRetries asks for it.
func (t *Table[T]) queryWithRetry(
	ctx context.Context,
	input *sdk.QueryInput,
	options storagemodels.StreamOptions,
) (*sdk.QueryOutput, error) {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		out, err := t.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return nil, err
		}

		// Don't sleep after last attempt
		if attempt < options.MaxRetries {
			backoff := time.Duration(attempt+1) * options.RetryBackoff
			t.logger.Debug().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("retrying query")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if options.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("query failed after %d retries: %w", options.MaxRetries, lastErr)
}

// processItem converts a raw item to a typed result
func (t *Table[T]) processItem(
	item map[string]types.AttributeValue,
	index int64,
	pageNumber int,
) storagemodels.StreamResult[T] {
	meta := storagemodels.StreamMeta{
		Index:      index,
		PageNumber: pageNumber,
		Timestamp:  time.Now(),
	}
	raw := maps.Clone(item)

	var result T
	if err := attributevalue.UnmarshalMap(item, &result); err != nil {
		return storagemodels.StreamResult[T]{
			Error: fmt.Errorf("failed to unmarshal item to type %T: %w", result, err),
			Raw:   raw,
			Meta:  meta,
		}
	}
	return storagemodels.StreamResult[T]{Item: result, Raw: raw, Meta: meta}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	// Check for AWS SDK retryable errors
	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
