package testmodels

import "github.com/suparena/ddbtable/schema"

// OrdersTable is the table name used by OrderDefinition.
const OrdersTable = "orders"

type Order struct {

	// Owner of the order; partition key.
	CustomerID string `dynamodbav:"customerId"`

	// Sequence number within the customer; sort key.
	OrderID int `dynamodbav:"orderId"`

	// Timestamp when the order was placed.
	// Format: date-time
	PlacedAt string `dynamodbav:"placedAt,omitempty"`

	// Status of the order.
	Status string `dynamodbav:"status,omitempty"`

	// Order total.
	Total float64 `dynamodbav:"total,omitempty"`

	// Number of times the order page was viewed.
	Visits int `dynamodbav:"visits,omitempty"`

	// Gift wrapping requested.
	Gift bool `dynamodbav:"gift,omitempty"`

	// Shipping address.
	Shipping *Address `dynamodbav:"shipping,omitempty"`
}

type Address struct {
	City string `dynamodbav:"city,omitempty"`
	Zip  string `dynamodbav:"zip,omitempty"`
}

// OrderDefinition describes the orders table.
func OrderDefinition() schema.Definition {
	return schema.Definition{
		Table: OrdersTable,
		Schema: schema.MustNew(
			schema.String("customerId"),
			schema.Number("orderId"),
			schema.FormattedString("placedAt", "date-time"),
			schema.String("status"),
			schema.Number("total"),
			schema.Number("visits"),
			schema.Boolean("gift"),
			schema.Nested("shipping", schema.MustNew(
				schema.String("city"),
				schema.String("zip"),
			)),
		),
		HashKey:  "customerId",
		RangeKey: "orderId",
	}
}
