/*
Package errors provides semantic error types for ddbtable.

The package defines the failure classes of the table layer with specific types
that can be checked using the standard errors.Is() function or the provided
helper functions.

Common Errors:

	var (
	    ErrNotFound        = errors.New("not found")
	    ErrAlreadyExists   = errors.New("already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrInvalidCursor   = errors.New("invalid cursor")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrNoDefinition    = errors.New("no table definition found")
	)

Usage:

	page, err := orders.Query(ctx, params)
	if err != nil {
	    if errors.IsValidationError(err) {
	        // a filter referenced a key field, an unknown field, ...
	        return nil, err
	    }
	    if errors.IsInvalidCursor(err) {
	        // the caller sent a cursor we never produced
	        return nil, err
	    }
	    return nil, err // transport failure, passed through
	}

Transport failures are never translated: they are wrapped with %w so the SDK
error types stay reachable through errors.As. IsConditionFailed recognises both
ErrConditionFailed and the SDK's ConditionalCheckFailedException.

A missing item on Get or Delete is not an error.
*/
package errors
