/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/errors"
)

// Fragment is a piece of a DynamoDB expression together with the name and
// value placeholders it references. Every "#token" in the text has an entry
// in Names and every ":token" has an entry in Values.
//
// A Fragment that was built from invalid input carries an error instead of
// usable text; combining it with other fragments keeps the first error.
type Fragment struct {
	names  map[string]string
	values map[string]any
	text   string
	err    error
}

// NewFragment returns an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{
		names:  make(map[string]string),
		values: make(map[string]any),
	}
}

func failed(err error) *Fragment {
	f := NewFragment()
	f.err = err
	return f
}

// Add merges names and values into f and replaces its text. It is the
// accumulator primitive every leaf comparison is built with.
func (f *Fragment) Add(names map[string]string, values map[string]any, text string) *Fragment {
	f.merge(names, values)
	f.text = text
	return f
}

// And returns a new fragment "(f) AND (other)". Neither operand is modified.
func (f *Fragment) And(other *Fragment) *Fragment {
	return f.combine("AND", other)
}

// Or returns a new fragment "(f) OR (other)". Neither operand is modified.
func (f *Fragment) Or(other *Fragment) *Fragment {
	return f.combine("OR", other)
}

func (f *Fragment) combine(op string, other *Fragment) *Fragment {
	if f == nil {
		return failed(errors.NewValidationError("", fmt.Sprintf("%s on a nil condition", op)))
	}
	out := f.clone()
	if other == nil {
		if out.err == nil {
			out.err = errors.NewValidationError("", fmt.Sprintf("%s with a nil condition", op))
		}
		return out
	}
	if out.err == nil {
		out.err = other.err
	}
	return out.Add(other.names, other.values, fmt.Sprintf("(%s) %s (%s)", f.text, op, other.text))
}

// negate returns "NOT (f)" carrying f's placeholders unchanged.
func (f *Fragment) negate() *Fragment {
	out := f.clone()
	out.text = fmt.Sprintf("NOT (%s)", f.text)
	return out
}

func (f *Fragment) clone() *Fragment {
	return &Fragment{
		names:  maps.Clone(f.names),
		values: maps.Clone(f.values),
		text:   f.text,
		err:    f.err,
	}
}

// merge unions the placeholder maps. A token may be re-bound only to the
// same name or an equal value; anything else records an error.
func (f *Fragment) merge(names map[string]string, values map[string]any) {
	if f.names == nil {
		f.names = make(map[string]string, len(names))
	}
	if f.values == nil {
		f.values = make(map[string]any, len(values))
	}
	for token, name := range names {
		if prev, ok := f.names[token]; ok && prev != name && f.err == nil {
			f.err = errors.NewValidationError(name, fmt.Sprintf("placeholder %s already names %q", token, prev))
		}
		f.names[token] = name
	}
	for token, v := range values {
		if prev, ok := f.values[token]; ok && !sameOperand(prev, v) && f.err == nil {
			f.err = errors.NewValidationError("", fmt.Sprintf("placeholder %s bound to both %v and %v; compare a field once per operator", token, prev, v))
		}
		f.values[token] = v
	}
}

func sameOperand(a, b any) bool {
	return reflect.DeepEqual(a, b) || canonical(a) == canonical(b)
}

// Expression returns the expression text.
func (f *Fragment) Expression() string {
	if f == nil {
		return ""
	}
	return f.text
}

// Names returns a copy of the name placeholders.
func (f *Fragment) Names() map[string]string {
	if f == nil {
		return map[string]string{}
	}
	return maps.Clone(f.names)
}

// Values returns a copy of the value placeholders.
func (f *Fragment) Values() map[string]any {
	if f == nil {
		return map[string]any{}
	}
	return maps.Clone(f.values)
}

// Err returns the first error recorded while building f.
func (f *Fragment) Err() error {
	if f == nil {
		return nil
	}
	return f.err
}

// IsEmpty reports whether f has no expression text.
func (f *Fragment) IsEmpty() bool {
	return f == nil || f.text == ""
}

// AttributeValues marshals the value placeholders for the transport.
func (f *Fragment) AttributeValues() (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(f.values))
	for token, v := range f.values {
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value for %s: %w", token, err)
		}
		out[token] = av
	}
	return out, nil
}

// Merge unions several fragments' placeholders, in order, into one
// name map and one value map. Texts are ignored; the caller keeps them
// apart (e.g. a key condition and a filter sent in the same request).
func Merge(parts ...*Fragment) (*Fragment, error) {
	out := NewFragment()
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.err != nil {
			return nil, p.err
		}
		out.merge(p.names, p.values)
		if out.err != nil {
			return nil, out.err
		}
	}
	return out, nil
}
