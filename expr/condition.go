/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"strings"

	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/schema"
)

// maxInOperands is the DynamoDB limit on the IN comparator's list.
const maxInOperands = 100

// SimpleType names a DynamoDB attribute type for IsType.
type SimpleType string

const (
	TypeString    SimpleType = "string"
	TypeStringSet SimpleType = "string set"
	TypeNumber    SimpleType = "number"
	TypeNumberSet SimpleType = "number set"
	TypeBinary    SimpleType = "binary"
	TypeBoolean   SimpleType = "boolean"
	TypeNull      SimpleType = "null"
	TypeList      SimpleType = "list"
	TypeMap       SimpleType = "map"
)

var typeCodes = map[SimpleType]string{
	TypeString:    "S",
	TypeStringSet: "SS",
	TypeNumber:    "N",
	TypeNumberSet: "NS",
	TypeBinary:    "B",
	TypeBoolean:   "BOOL",
	TypeNull:      "NULL",
	TypeList:      "L",
	TypeMap:       "M",
}

// Code returns the DynamoDB type descriptor for t.
func (t SimpleType) Code() (string, bool) {
	code, ok := typeCodes[t]
	return code, ok
}

// ConditionFactory hands a fresh builder to filter and condition callbacks.
type ConditionFactory func() *ConditionBuilder

// ConditionBuilder produces condition fragments over a fixed set of fields.
// Excluded fields (the table keys, for filters) are refused with an error
// rather than silently emitted.
type ConditionBuilder struct {
	fields   map[string]*Operation
	excluded map[string]bool
}

// NewConditionBuilder builds the capability map for s. Fields listed in
// excluded are left out and reported as key fields when referenced.
func NewConditionBuilder(s schema.Schema, excluded ...string) *ConditionBuilder {
	b := &ConditionBuilder{
		fields:   make(map[string]*Operation, s.Len()),
		excluded: make(map[string]bool, len(excluded)),
	}
	for _, name := range excluded {
		b.excluded[name] = true
	}
	for _, f := range s.Fields() {
		if b.excluded[f.Name] {
			continue
		}
		b.fields[f.Name] = &Operation{field: f}
	}
	return b
}

// Field returns the comparison operators for a declared field.
func (b *ConditionBuilder) Field(name string) *Operation {
	if op, ok := b.fields[name]; ok {
		return op
	}
	if b.excluded[name] {
		return &Operation{field: schema.Field{Name: name}, err: errors.NewValidationError(name, "key field cannot be used in a condition")}
	}
	return &Operation{field: schema.Field{Name: name}, err: errors.NewValidationError(name, "field is not declared in the schema")}
}

// Exists yields "attribute_exists(path)".
func (b *ConditionBuilder) Exists(path string) *Fragment {
	return b.pathFunc("attribute_exists", path)
}

// NotExists yields "attribute_not_exists(path)".
func (b *ConditionBuilder) NotExists(path string) *Fragment {
	return b.pathFunc("attribute_not_exists", path)
}

// IsType yields "attribute_type(path, :t)".
func (b *ConditionBuilder) IsType(path string, t SimpleType) *Fragment {
	code, ok := t.Code()
	if !ok {
		return failed(errors.NewValidationError(path, fmt.Sprintf("unknown attribute type %q", t)))
	}
	return b.pathValue("attribute_type", path, "type", code)
}

// BeginsWith yields "begins_with(path, :prefix)".
func (b *ConditionBuilder) BeginsWith(path, prefix string) *Fragment {
	return b.pathValue("begins_with", path, "begins", prefix)
}

// Contains yields "contains(path, :operand)". The path may name a string,
// a set or a list.
func (b *ConditionBuilder) Contains(path string, operand any) *Fragment {
	return b.pathValue("contains", path, "contains", operand)
}

// Not yields "NOT (f)".
func (b *ConditionBuilder) Not(f *Fragment) *Fragment {
	if f == nil {
		return failed(errors.NewValidationError("", "NOT with a nil condition"))
	}
	return f.negate()
}

func (b *ConditionBuilder) checkPath(path string) error {
	if path == "" {
		return errors.NewValidationError("", "empty attribute path")
	}
	if root := pathRoot(path); b.excluded[root] {
		return errors.NewValidationError(root, "key field cannot be used in a condition")
	}
	return nil
}

func (b *ConditionBuilder) pathFunc(fn, path string) *Fragment {
	if err := b.checkPath(path); err != nil {
		return failed(err)
	}
	text, names := pathTokens(path)
	return NewFragment().Add(names, nil, fmt.Sprintf("%s(%s)", fn, text))
}

func (b *ConditionBuilder) pathValue(fn, path, op string, v any) *Fragment {
	if err := b.checkPath(path); err != nil {
		return failed(err)
	}
	text, names := pathTokens(path)
	value := operandToken(path, op, v)
	return NewFragment().Add(names, map[string]any{value: v}, fmt.Sprintf("%s(%s, %s)", fn, text, value))
}

// Operation holds the comparison operators for one field. An Operation for
// an unknown or excluded field yields fragments that carry the error.
type Operation struct {
	field schema.Field
	err   error
}

// Eq yields "field = v".
func (o *Operation) Eq(v any) *Fragment { return o.compare("=", "eq", v) }

// Neq yields "field <> v".
func (o *Operation) Neq(v any) *Fragment { return o.compare("<>", "ne", v) }

// Lt yields "field < v".
func (o *Operation) Lt(v any) *Fragment { return o.compare("<", "lt", v) }

// Lte yields "field <= v".
func (o *Operation) Lte(v any) *Fragment { return o.compare("<=", "le", v) }

// Gt yields "field > v".
func (o *Operation) Gt(v any) *Fragment { return o.compare(">", "gt", v) }

// Gte yields "field >= v".
func (o *Operation) Gte(v any) *Fragment { return o.compare(">=", "ge", v) }

// Between yields "field BETWEEN lo AND hi".
func (o *Operation) Between(lo, hi any) *Fragment {
	if err := o.check(lo, hi); err != nil {
		return failed(err)
	}
	name := nameToken(o.field.Name)
	loToken, hiToken := operandToken(o.field.Name, "lo", lo), operandToken(o.field.Name, "hi", hi)
	return NewFragment().Add(
		map[string]string{name: o.field.Name},
		map[string]any{loToken: lo, hiToken: hi},
		fmt.Sprintf("%s BETWEEN %s AND %s", name, loToken, hiToken),
	)
}

// In yields "field IN (v0, v1, ...)".
func (o *Operation) In(values ...any) *Fragment {
	if o.err != nil {
		return failed(o.err)
	}
	if len(values) == 0 || len(values) > maxInOperands {
		return failed(errors.NewValidationError(o.field.Name, fmt.Sprintf("IN takes 1 to %d values, got %d", maxInOperands, len(values))))
	}
	if err := o.check(values...); err != nil {
		return failed(err)
	}
	name := nameToken(o.field.Name)
	bound := make(map[string]any, len(values))
	tokens := make([]string, 0, len(values))
	for _, v := range values {
		token := operandToken(o.field.Name, "in", v)
		if _, dup := bound[token]; dup {
			continue
		}
		bound[token] = v
		tokens = append(tokens, token)
	}
	return NewFragment().Add(
		map[string]string{name: o.field.Name},
		bound,
		fmt.Sprintf("%s IN (%s)", name, strings.Join(tokens, ", ")),
	)
}

func (o *Operation) compare(op, tag string, v any) *Fragment {
	if err := o.check(v); err != nil {
		return failed(err)
	}
	name := nameToken(o.field.Name)
	value := operandToken(o.field.Name, tag, v)
	return NewFragment().Add(
		map[string]string{name: o.field.Name},
		map[string]any{value: v},
		fmt.Sprintf("%s %s %s", name, op, value),
	)
}

func (o *Operation) check(values ...any) error {
	if o.err != nil {
		return o.err
	}
	for _, v := range values {
		if !o.field.Accepts(v) {
			return errors.NewValidationError(o.field.Name, fmt.Sprintf("value %v (%T) is not a %s", v, v, o.field.Kind))
		}
	}
	return nil
}
