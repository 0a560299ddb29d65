/*
Package datastore defines the typed table interface and the options shared by
its implementations.

The main interface is Table[T], which provides single-item CRUD, partial
updates and paginated reads for any item type T:

	type Table[T any] interface {
	    Get(ctx context.Context, key schema.Key) (*T, error)
	    Put(ctx context.Context, item T) (T, error)
	    Delete(ctx context.Context, key schema.Key) error
	    Update(ctx context.Context, key schema.Key, updates map[string]any, opts ...UpdateOption) (*T, error)
	    Scan(ctx context.Context, cursor string, opts ...ScanOption) (*storagemodels.Page[T], error)
	    Query(ctx context.Context, params storagemodels.QueryParams) (*storagemodels.Page[T], error)
	    Stream(ctx context.Context, params storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T]
	}

Implementations:
  - ddb: DynamoDB implementation built on the expr builders
  - mock: a recording fake of the DynamoDB transport for testing ddb tables

Updates take functional options:

	item, err := orders.Update(ctx, schema.CompositeKey("c-1", 42),
	    map[string]any{"visits": 1, "note": nil},
	    datastore.WithIncrementFrom("visits", 0),
	    datastore.WithCondition(func(c expr.ConditionFactory) *expr.Fragment {
	        return c().Exists("customerId")
	    }),
	)

A nil, false, zero or empty update value removes the attribute.
*/
package datastore
