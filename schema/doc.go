/*
Package schema declares the shape of a table: an ordered set of typed fields,
the hash and range key, and the helpers that turn keys and items into
DynamoDB attribute maps.

Fields are declared in Go:

	orders := schema.Definition{
	    Table: "orders",
	    Schema: schema.MustNew(
	        schema.String("customerId"),
	        schema.Number("orderId"),
	        schema.FormattedString("placedAt", "date-time"),
	        schema.String("status"),
	        schema.Number("total"),
	        schema.Nested("shipping", schema.MustNew(schema.String("city"))),
	    ),
	    HashKey:  "customerId",
	    RangeKey: "orderId",
	}

or loaded from YAML with LoadFile / LoadDefinitions, where the document order
of the fields is kept.

A Schema never changes once built. Definition.Attributes returns the non-key
part of the schema, which is what filter and update builders are allowed to
touch.
*/
package schema
