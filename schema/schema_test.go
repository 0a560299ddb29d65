/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbtable/errors"
)

func ordersDefinition(t *testing.T) Definition {
	t.Helper()
	s, err := New(
		String("customerId"),
		Number("orderId"),
		FormattedString("placedAt", "date-time"),
		String("status"),
		Number("total"),
		Boolean("gift"),
		Nested("shipping", MustNew(String("city"), String("zip"))),
	)
	require.NoError(t, err)
	return Definition{Table: "orders", Schema: s, HashKey: "customerId", RangeKey: "orderId"}
}

func TestNewKeepsDeclarationOrder(t *testing.T) {
	s := MustNew(String("b"), Number("a"), Boolean("c"))
	assert.Equal(t, []string{"b", "a", "c"}, s.Names())
	assert.Equal(t, 3, s.Len())

	f, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, KindNumber, f.Kind)
	assert.False(t, s.Has("z"))
}

func TestNewRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"empty name", []Field{String("")}},
		{"duplicate", []Field{String("a"), Number("a")}},
		{"format on number", []Field{{Name: "n", Kind: KindNumber, Format: "date-time"}}},
		{"unknown format", []Field{FormattedString("s", "no-such-format")}},
		{"nested without schema", []Field{{Name: "m", Kind: KindNested}}},
		{"zero kind", []Field{{Name: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields...)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestWithoutDoesNotMutate(t *testing.T) {
	s := MustNew(String("a"), String("b"), String("c"))
	w := s.Without("b")
	assert.Equal(t, []string{"a", "c"}, w.Names())
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
}

func TestFieldAccepts(t *testing.T) {
	str := "x"
	var nilStr *string
	tests := []struct {
		field Field
		value any
		want  bool
	}{
		{String("s"), "hello", true},
		{String("s"), &str, true},
		{String("s"), 3, false},
		{String("s"), nil, false},
		{String("s"), nilStr, false},
		{Number("n"), 3, true},
		{Number("n"), uint8(3), true},
		{Number("n"), 2.5, true},
		{Number("n"), "3", false},
		{Boolean("b"), true, true},
		{Boolean("b"), 1, false},
		{Null("z"), nil, true},
		{Null("z"), nilStr, true},
		{Null("z"), "", false},
		{Nested("m", MustNew(String("a"))), map[string]any{"a": 1}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.field.Accepts(tt.value), "%s accepts %#v", tt.field.Kind, tt.value)
	}
}

func TestDefinitionValidate(t *testing.T) {
	good := ordersDefinition(t)
	require.NoError(t, good.Validate())
	assert.True(t, good.HasRange())
	assert.True(t, good.IsKey("orderId"))
	assert.False(t, good.IsKey("status"))
	assert.Equal(t, []string{"placedAt", "status", "total", "gift", "shipping"}, good.Attributes().Names())

	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"no table", func(d *Definition) { d.Table = "" }},
		{"no hash key", func(d *Definition) { d.HashKey = "" }},
		{"undeclared hash key", func(d *Definition) { d.HashKey = "nope" }},
		{"range equals hash", func(d *Definition) { d.RangeKey = d.HashKey }},
		{"boolean range key", func(d *Definition) { d.RangeKey = "gift" }},
		{"nested hash key", func(d *Definition) { d.HashKey = "shipping" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ordersDefinition(t)
			tt.mutate(&d)
			assert.True(t, errors.IsValidationError(d.Validate()))
		})
	}
}

func TestKeyAttributes(t *testing.T) {
	d := ordersDefinition(t)

	key, err := d.KeyAttributes(CompositeKey("c-1", 42))
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "c-1"}, key["customerId"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "42"}, key["orderId"])

	_, err = d.KeyAttributes(HashKey("c-1"))
	assert.True(t, errors.IsValidationError(err), "missing range value")

	_, err = d.KeyAttributes(CompositeKey(7, 42))
	assert.True(t, errors.IsValidationError(err), "wrong hash type")

	hashOnly := Definition{Table: "users", Schema: MustNew(String("id"), String("name")), HashKey: "id"}
	key, err = hashOnly.KeyAttributes(CompositeKey("u-1", "ignored"))
	require.NoError(t, err)
	assert.Len(t, key, 1)
}

func TestValidateItem(t *testing.T) {
	d := ordersDefinition(t)
	valid := func() map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			"customerId": &types.AttributeValueMemberS{Value: "c-1"},
			"orderId":    &types.AttributeValueMemberN{Value: "1"},
			"placedAt":   &types.AttributeValueMemberS{Value: "2025-03-01T10:00:00Z"},
			"total":      &types.AttributeValueMemberN{Value: "9.99"},
			"shipping": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"city": &types.AttributeValueMemberS{Value: "Oakville"},
			}},
			"undeclared": &types.AttributeValueMemberBOOL{Value: true},
		}
	}
	require.NoError(t, d.ValidateItem(valid()))

	tests := []struct {
		name   string
		mutate func(item map[string]types.AttributeValue)
		field  string
	}{
		{"missing range key", func(i map[string]types.AttributeValue) { delete(i, "orderId") }, "orderId"},
		{"null hash key", func(i map[string]types.AttributeValue) {
			i["customerId"] = &types.AttributeValueMemberNULL{Value: true}
		}, "customerId"},
		{"wrong kind", func(i map[string]types.AttributeValue) {
			i["total"] = &types.AttributeValueMemberS{Value: "9.99"}
		}, "total"},
		{"bad format", func(i map[string]types.AttributeValue) {
			i["placedAt"] = &types.AttributeValueMemberS{Value: "yesterday"}
		}, "placedAt"},
		{"nested wrong kind", func(i map[string]types.AttributeValue) {
			i["shipping"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"zip": &types.AttributeValueMemberN{Value: "12345"},
			}}
		}, "shipping.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mutate(item)
			err := d.ValidateItem(item)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Contains(t, err.Error(), `"`+tt.field+`"`)
		})
	}
}

const definitionsYAML = `
tables:
  - name: orders
    hashKey: customerId
    rangeKey: orderId
    fields:
      customerId: string
      orderId: number
      placedAt: string:date-time
      status: string
      shipping:
        city: string
        zip: string
  - name: users
    hashKey: id
    fields:
      id: string
      active: boolean
`

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(strings.NewReader(definitionsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	orders := defs[0]
	assert.Equal(t, "orders", orders.Table)
	assert.Equal(t, "orderId", orders.RangeKey)
	assert.Equal(t, []string{"customerId", "orderId", "placedAt", "status", "shipping"}, orders.Schema.Names())

	placedAt, _ := orders.Schema.Lookup("placedAt")
	assert.Equal(t, "date-time", placedAt.Format)

	shipping, _ := orders.Schema.Lookup("shipping")
	require.Equal(t, KindNested, shipping.Kind)
	assert.Equal(t, []string{"city", "zip"}, shipping.Nested.Names())

	assert.False(t, defs[1].HasRange())
}

func TestLoadDefinitionsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown tag", "tables:\n  - name: t\n    hashKey: id\n    fields:\n      id: text\n"},
		{"format on number", "tables:\n  - name: t\n    hashKey: id\n    fields:\n      id: number:date-time\n"},
		{"list instead of mapping", "tables:\n  - name: t\n    hashKey: id\n    fields:\n      - id\n"},
		{"undeclared hash key", "tables:\n  - name: t\n    hashKey: pk\n    fields:\n      id: string\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDefinitions(strings.NewReader(tt.doc))
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}

	_, err := LoadDefinitions(strings.NewReader("tables: [oops"))
	assert.Error(t, err)
}
