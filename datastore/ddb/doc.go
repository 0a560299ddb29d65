/*
Package ddb provides a DynamoDB implementation of the datastore.Table interface.

A Table is built from a schema.Definition and anything that satisfies Client
(the SDK's *dynamodb.Client, or mock.Client in tests):

	client, err := ddb.NewDynamoDBClient(ctx, ddb.LoadClientConfig())
	orders, err := ddb.NewTable[Order](client, ordersDefinition,
	    ddb.WithLogger(logger),
	    ddb.WithItemValidation(),
	)

The Table supports:
  - Get/Put/Delete of single items by hash (and range) key
  - Partial updates with attribute removal, increment-with-default and
    conditional writes
  - Paginated Query and Scan with an opaque cursor
  - Streaming every page of a query

Expressions:
Every key condition, filter, projection and update is built with placeholder
names, so reserved words are safe as field names. Malformed input (an
undeclared field, a key field in a filter, a value of the wrong type, a
malformed cursor) is reported before any request is sent.

Querying:

	page, err := orders.Query(ctx, storagemodels.QueryParams{
	    Hash:  "c-1",
	    Range: func(k *expr.KeyCondition) { k.Gte(100) },
	    Filter: func(c expr.ConditionFactory) *expr.Fragment {
	        return c().Field("status").In("open", "packed")
	    },
	})

Pass page.Next back as QueryParams.Cursor to read the following page.

Streaming:
The streaming API walks every page and supports configurable options:

	results := orders.Stream(ctx, params,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("%d items, next cursor %q", p.ItemsProcessed, p.Cursor)
	    }),
	)

Retries are off unless WithMaxRetries is given.
*/
package ddb
