/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/ddbtable/errors"
)

// Kind is the declared type tag of a field.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBoolean
	KindNull
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindNested:
		return "nested"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a declared tag ("string", "number", "boolean", "null") to a Kind.
// Nested schemas have no tag; they are declared structurally.
func ParseKind(tag string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "null":
		return KindNull, nil
	default:
		return 0, errors.NewValidationError("", fmt.Sprintf("unknown type tag %q", tag))
	}
}

// Field is one declared attribute.
type Field struct {
	Name string
	Kind Kind
	// Format is an optional string format (e.g. "date-time", "email") checked on put.
	Format string
	// Nested is set when Kind is KindNested.
	Nested *Schema
}

// String declares a string field.
func String(name string) Field { return Field{Name: name, Kind: KindString} }

// FormattedString declares a string field whose values must satisfy format.
func FormattedString(name, format string) Field {
	return Field{Name: name, Kind: KindString, Format: format}
}

// Number declares a number field.
func Number(name string) Field { return Field{Name: name, Kind: KindNumber} }

// Boolean declares a boolean field.
func Boolean(name string) Field { return Field{Name: name, Kind: KindBoolean} }

// Null declares a null field.
func Null(name string) Field { return Field{Name: name, Kind: KindNull} }

// Nested declares a field holding a nested document.
func Nested(name string, s Schema) Field {
	return Field{Name: name, Kind: KindNested, Nested: &s}
}

// Accepts reports whether v is a plausible Go value for the field's kind.
// Pointers are dereferenced. Nested fields accept any value.
func (f Field) Accepts(v any) bool {
	if f.Kind == KindNested {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return f.Kind == KindNull
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return f.Kind == KindNull
	}
	switch f.Kind {
	case KindString:
		return rv.Kind() == reflect.String
	case KindNumber:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case KindBoolean:
		return rv.Kind() == reflect.Bool
	default:
		return false
	}
}

// Schema is an ordered, immutable mapping from field name to type.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a Schema, keeping declaration order.
func New(fields ...Field) (Schema, error) {
	s := Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return Schema{}, errors.NewValidationError("", "field name must not be empty")
		}
		if _, dup := s.index[f.Name]; dup {
			return Schema{}, errors.NewValidationError(f.Name, "declared twice")
		}
		switch f.Kind {
		case KindString, KindNumber, KindBoolean, KindNull:
			if f.Format != "" && f.Kind != KindString {
				return Schema{}, errors.NewValidationError(f.Name, "format is only supported on string fields")
			}
			if f.Format != "" && !strfmt.Default.ContainsName(f.Format) {
				return Schema{}, errors.NewValidationError(f.Name, fmt.Sprintf("unknown format %q", f.Format))
			}
		case KindNested:
			if f.Nested == nil {
				return Schema{}, errors.NewValidationError(f.Name, "nested field without schema")
			}
		default:
			return Schema{}, errors.NewValidationError(f.Name, fmt.Sprintf("unsupported kind %v", f.Kind))
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level declarations.
func MustNew(fields ...Field) Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of declared fields.
func (s Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the declared fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field declared under name.
func (s Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name is declared.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Without returns a new Schema with the named fields removed.
func (s Schema) Without(names ...string) Schema {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := Schema{index: make(map[string]int, len(s.fields))}
	for _, f := range s.fields {
		if skip[f.Name] {
			continue
		}
		out.index[f.Name] = len(out.fields)
		out.fields = append(out.fields, f)
	}
	return out
}
