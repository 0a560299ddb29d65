/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/errors"
)

// Definition binds a schema to a table and its key fields.
type Definition struct {
	// Table is the DynamoDB table name.
	Table string
	// Schema declares every attribute the table layer knows about, keys included.
	Schema Schema
	// HashKey is the partition key field.
	HashKey string
	// RangeKey is the optional sort key field.
	RangeKey string
}

// HasRange reports whether the table has a sort key.
func (d Definition) HasRange() bool { return d.RangeKey != "" }

// IsKey reports whether name is the hash or the range key.
func (d Definition) IsKey(name string) bool {
	return name == d.HashKey || (d.RangeKey != "" && name == d.RangeKey)
}

// KeyNames returns the key field names, hash first.
func (d Definition) KeyNames() []string {
	if d.RangeKey == "" {
		return []string{d.HashKey}
	}
	return []string{d.HashKey, d.RangeKey}
}

// Attributes returns the schema minus the key fields: everything a filter or
// an update may reference.
func (d Definition) Attributes() Schema {
	return d.Schema.Without(d.KeyNames()...)
}

// Validate checks the definition is internally consistent.
func (d Definition) Validate() error {
	if d.Table == "" {
		return errors.NewValidationError("", "table name is required")
	}
	if d.HashKey == "" {
		return errors.NewValidationError("", fmt.Sprintf("table %q: hash key is required", d.Table))
	}
	if err := d.validateKeyField(d.HashKey); err != nil {
		return err
	}
	if d.RangeKey != "" {
		if d.RangeKey == d.HashKey {
			return errors.NewValidationError(d.RangeKey, "range key must differ from hash key")
		}
		if err := d.validateKeyField(d.RangeKey); err != nil {
			return err
		}
	}
	return nil
}

func (d Definition) validateKeyField(name string) error {
	f, ok := d.Schema.Lookup(name)
	if !ok {
		return errors.NewValidationError(name, fmt.Sprintf("key field not declared in schema of table %q", d.Table))
	}
	if f.Kind != KindString && f.Kind != KindNumber {
		return errors.NewValidationError(name, fmt.Sprintf("key field must be string or number, got %s", f.Kind))
	}
	return nil
}

// Key identifies a single item. Range is ignored for tables without a sort key.
type Key struct {
	Hash  any
	Range any
}

// HashKey builds a Key for a table without a sort key.
func HashKey(hash any) Key { return Key{Hash: hash} }

// CompositeKey builds a Key for a table with a sort key.
func CompositeKey(hash, rng any) Key { return Key{Hash: hash, Range: rng} }

// KeyAttributes marshals key into the attribute map the transport expects.
func (d Definition) KeyAttributes(key Key) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, 2)
	if err := d.putKeyAttribute(out, d.HashKey, key.Hash); err != nil {
		return nil, err
	}
	if d.RangeKey == "" {
		return out, nil
	}
	if err := d.putKeyAttribute(out, d.RangeKey, key.Range); err != nil {
		return nil, err
	}
	return out, nil
}

func (d Definition) putKeyAttribute(out map[string]types.AttributeValue, name string, v any) error {
	f, _ := d.Schema.Lookup(name)
	if v == nil {
		return errors.NewValidationError(name, "key value is required")
	}
	if !f.Accepts(v) {
		return errors.NewValidationError(name, fmt.Sprintf("value of type %T does not match declared %s", v, f.Kind))
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal key %q: %w", name, err)
	}
	out[name] = av
	return nil
}
