/*
Package storagemodels defines the parameter and result types shared by table
implementations.

QueryParams:
A typed query against one table:

	params := storagemodels.QueryParams{
	    Hash: "c-1",
	    Range: func(k *expr.KeyCondition) {
	        k.Between(100, 200)
	    },
	    Filter: func(c expr.ConditionFactory) *expr.Fragment {
	        return c().Field("status").Eq("shipped")
	    },
	    Projection: []string{"orderId", "status"},
	    Options:    storagemodels.QueryOptions{Limit: 25},
	}

Page:
One page of typed items and the cursor for the next page:

	page, err := table.Query(ctx, params)
	for page.HasMore() {
	    params.Cursor = page.Next
	    page, err = table.Query(ctx, params)
	}

StreamOptions:
Configuration for streaming every page of a query:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
