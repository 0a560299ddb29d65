/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/suparena/ddbtable/errors"
)

// startToken is the placeholder for the starting value of IncrementFrom.
const startToken = ":start"

// Update is a compiled UpdateExpression with its placeholders.
type Update struct {
	Expression string
	Names      map[string]string
	Values     map[string]any
}

// Fragment returns the update as a fragment so it can be merged with a
// condition expression sent in the same request.
func (u *Update) Fragment() *Fragment {
	return NewFragment().Add(u.Names, u.Values, u.Expression)
}

type updateConfig struct {
	increment string
	start     any
	hasStart  bool
}

// UpdateOption configures CompileUpdate.
type UpdateOption func(*updateConfig)

// Increment adds the given value to field instead of overwriting it. The
// attribute must already exist.
func Increment(field string) UpdateOption {
	return func(c *updateConfig) {
		c.increment = field
		c.start, c.hasStart = nil, false
	}
}

// IncrementFrom adds the given value to field, treating a missing attribute
// as start.
func IncrementFrom(field string, start any) UpdateOption {
	return func(c *updateConfig) {
		c.increment = field
		c.start, c.hasStart = start, true
	}
}

// CompileUpdate turns a field→value map into a SET/REMOVE expression. Fields
// are visited in sorted order. A value that is empty or zero (nil, false, 0,
// "", NaN) removes the attribute instead of setting it.
func CompileUpdate(updates map[string]any, opts ...UpdateOption) (*Update, error) {
	if len(updates) == 0 {
		return nil, errors.NewValidationError("", "update has no fields")
	}
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fields := make([]string, 0, len(updates))
	for name := range updates {
		if name == "" {
			return nil, errors.NewValidationError("", "update field name is empty")
		}
		fields = append(fields, name)
	}
	sort.Strings(fields)

	u := &Update{Names: make(map[string]string), Values: make(map[string]any)}
	var sets, removes []string
	for _, name := range fields {
		v := updates[name]
		token := nameToken(name)
		u.Names[token] = name
		if IsRemoval(v) {
			removes = append(removes, token)
			continue
		}
		value := ":" + NameFor(name)
		u.Values[value] = v
		switch {
		case name == cfg.increment && cfg.hasStart:
			u.Values[startToken] = cfg.start
			sets = append(sets, fmt.Sprintf("%s = if_not_exists(%s, %s) + %s", token, token, startToken, value))
		case name == cfg.increment:
			sets = append(sets, fmt.Sprintf("%s = %s + %s", token, token, value))
		default:
			sets = append(sets, fmt.Sprintf("%s = %s", token, value))
		}
	}

	var clauses []string
	if len(sets) > 0 {
		clauses = append(clauses, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		clauses = append(clauses, "REMOVE "+strings.Join(removes, ", "))
	}
	u.Expression = strings.Join(clauses, " ")
	return u, nil
}

// IsRemoval reports whether an update value clears its attribute: nil (or a
// nil pointer, map, slice or interface), false, a numeric zero, "" or NaN.
func IsRemoval(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
