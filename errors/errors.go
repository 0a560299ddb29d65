/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a named resource (a catalog table, a definition) is not found.
	// A missing item on Get is not an error and never produces it.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when registering a name that is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when a schema, key or expression is used incorrectly
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCursor is returned when a pagination cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoDefinition is returned when no table definition is registered for a type or name
	ErrNoDefinition = errors.New("no table definition found")
)

// NotFoundError represents a lookup of a named resource that does not exist
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents a duplicate registration
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents misuse of the schema, keys or builders.
// It is always returned before any call reaches the transport.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// CursorError represents a pagination cursor that could not be decoded
type CursorError struct {
	Cursor string
	Err    error
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("invalid cursor %q: %v", truncate(e.Cursor, 32), e.Err)
}

func (e *CursorError) Is(target error) bool {
	return target == ErrInvalidCursor
}

func (e *CursorError) Unwrap() error {
	return e.Err
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resourceType, key string) error {
	return &NotFoundError{Type: resourceType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resourceType, key string) error {
	return &AlreadyExistsError{Type: resourceType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewCursorError creates a new CursorError
func NewCursorError(cursor string, err error) error {
	return &CursorError{Cursor: cursor, Err: err}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidCursor checks if an error is a cursor decoding error
func IsInvalidCursor(err error) bool {
	return errors.Is(err, ErrInvalidCursor)
}

// IsConditionFailed checks if an error is a condition failed error.
// Transport errors are passed through untranslated, so the SDK's
// ConditionalCheckFailedException is recognised anywhere in the chain too.
func IsConditionFailed(err error) bool {
	if errors.Is(err, ErrConditionFailed) {
		return true
	}
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
