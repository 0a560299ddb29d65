/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"

	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/schema"
)

// KeyCondition builds the clause for a single key attribute. A key attribute
// takes one condition per request, so every call replaces the previous one.
type KeyCondition struct {
	field schema.Field
	frag  *Fragment
}

// NewKeyCondition returns a builder bound to the given key field.
func NewKeyCondition(field schema.Field) *KeyCondition {
	return &KeyCondition{field: field}
}

// Eq sets "key = v".
func (k *KeyCondition) Eq(v any) { k.compare("=", "eq", v) }

// Lt sets "key < v".
func (k *KeyCondition) Lt(v any) { k.compare("<", "lt", v) }

// Lte sets "key <= v".
func (k *KeyCondition) Lte(v any) { k.compare("<=", "le", v) }

// Gt sets "key > v".
func (k *KeyCondition) Gt(v any) { k.compare(">", "gt", v) }

// Gte sets "key >= v".
func (k *KeyCondition) Gte(v any) { k.compare(">=", "ge", v) }

// Between sets "key BETWEEN lo AND hi".
func (k *KeyCondition) Between(lo, hi any) {
	if err := k.check(lo, hi); err != nil {
		k.frag = failed(err)
		return
	}
	name := nameToken(k.field.Name)
	loToken, hiToken := valueToken(k.field.Name, "lo"), valueToken(k.field.Name, "hi")
	k.frag = NewFragment().Add(
		map[string]string{name: k.field.Name},
		map[string]any{loToken: lo, hiToken: hi},
		fmt.Sprintf("%s BETWEEN %s AND %s", name, loToken, hiToken),
	)
}

// BeginsWith sets "begins_with(key, prefix)". Only string keys support it.
func (k *KeyCondition) BeginsWith(prefix string) {
	if k.field.Kind != schema.KindString {
		k.frag = failed(errors.NewValidationError(k.field.Name, "begins_with requires a string key"))
		return
	}
	name := nameToken(k.field.Name)
	value := valueToken(k.field.Name, "bw")
	k.frag = NewFragment().Add(
		map[string]string{name: k.field.Name},
		map[string]any{value: prefix},
		fmt.Sprintf("begins_with(%s, %s)", name, value),
	)
}

func (k *KeyCondition) compare(op, tag string, v any) {
	if err := k.check(v); err != nil {
		k.frag = failed(err)
		return
	}
	name := nameToken(k.field.Name)
	value := valueToken(k.field.Name, tag)
	k.frag = NewFragment().Add(
		map[string]string{name: k.field.Name},
		map[string]any{value: v},
		fmt.Sprintf("%s %s %s", name, op, value),
	)
}

func (k *KeyCondition) check(values ...any) error {
	for _, v := range values {
		if !k.field.Accepts(v) {
			return errors.NewValidationError(k.field.Name, fmt.Sprintf("value %v (%T) is not a %s", v, v, k.field.Kind))
		}
	}
	return nil
}

// IsSet reports whether any operator has been called.
func (k *KeyCondition) IsSet() bool { return k.frag != nil }

// Fragment returns the clause built by the last operator call, or nil.
func (k *KeyCondition) Fragment() *Fragment { return k.frag }

// Err returns the error recorded by the last operator call.
func (k *KeyCondition) Err() error { return k.frag.Err() }
