/*
Package ddbtable provides a typed façade over key-partitioned DynamoDB tables.

Every request is compiled from a declared schema into placeholder-safe
expressions, so field names never collide with reserved words and malformed
input is rejected before anything is sent.

Packages:
  - schema: field types, table definitions, YAML loading, item validation
  - expr: alias namer, expression fragments, key/field condition builders,
    update compiler
  - cursor: opaque pagination cursors
  - datastore/ddb: the DynamoDB Table[T] implementation
  - datastore/mock: a recording in-memory client for tests
  - registry: definitions keyed by Go type or table name

Basic Usage:

	client, _ := ddb.NewDynamoDBClient(ctx, ddb.LoadClientConfig())
	catalog := ddbtable.NewCatalog(client, ddb.WithLogger(logger))

	orders, _ := ddbtable.Open[Order](catalog, ordersDefinition)
	_, err := orders.Put(ctx, Order{CustomerID: "c-1", OrderID: 1})

	// Elsewhere, recover the typed table by name.
	orders, _ := ddbtable.TableOf[Order](catalog, "orders")
	page, err := orders.Query(ctx, storagemodels.QueryParams{Hash: "c-1"})

Tables without a Go model can be opened as Document tables with OpenDocuments.
*/
package ddbtable
