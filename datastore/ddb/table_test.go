/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbtable/cursor"
	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/datastore/ddb"
	"github.com/suparena/ddbtable/datastore/mock"
	"github.com/suparena/ddbtable/datastore/testmodels"
	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/expr"
	"github.com/suparena/ddbtable/registry"
	"github.com/suparena/ddbtable/schema"
	"github.com/suparena/ddbtable/storagemodels"
)

var _ ddb.Client = (*mock.Client)(nil)

func name(field string) string  { return "#" + expr.NameFor(field) }
func value(field string) string { return ":" + expr.NameFor(field) }

func operand(field, op string, v any) string { return ":" + expr.ValueFor(field, op, v) }

func newOrders(t *testing.T, opts ...ddb.Option) (*ddb.Table[testmodels.Order], *mock.Client) {
	t.Helper()
	client := mock.New("customerId", "orderId")
	table, err := ddb.NewTable[testmodels.Order](client, testmodels.OrderDefinition(), opts...)
	require.NoError(t, err)
	return table, client
}

func orderItem(t *testing.T, o testmodels.Order) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	return av
}

func TestNewTable(t *testing.T) {
	_, err := ddb.NewTable[testmodels.Order](nil, testmodels.OrderDefinition())
	assert.True(t, errors.IsValidationError(err))

	bad := testmodels.OrderDefinition()
	bad.HashKey = ""
	_, err = ddb.NewTable[testmodels.Order](mock.New(), bad)
	assert.True(t, errors.IsValidationError(err))

	type unregistered struct{}
	_, err = ddb.NewTableFor[unregistered](mock.New())
	assert.ErrorIs(t, err, errors.ErrNoDefinition)

	require.NoError(t, registry.RegisterDefinition[testmodels.Order](testmodels.OrderDefinition()))
	table, err := ddb.NewTableFor[testmodels.Order](mock.New())
	require.NoError(t, err)
	assert.Equal(t, testmodels.OrdersTable, table.Definition().Table)
}

func TestGetPutDelete(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	order := testmodels.Order{CustomerID: "c-1", OrderID: 7, Status: "open", Total: 12.5,
		Shipping: &testmodels.Address{City: "Oakville"}}
	stored, err := orders.Put(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, order, stored)
	assert.Equal(t, testmodels.OrdersTable, aws.ToString(client.LastPutItem().TableName))

	got, err := orders.Get(ctx, schema.CompositeKey("c-1", 7))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order, *got)

	get := client.LastGetItem()
	assert.Equal(t, &types.AttributeValueMemberS{Value: "c-1"}, get.Key["customerId"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "7"}, get.Key["orderId"])
	assert.Nil(t, get.ConsistentRead)
	require.NotNil(t, get.ProjectionExpression)
	projected := make([]string, 0, len(get.ExpressionAttributeNames))
	for _, n := range get.ExpressionAttributeNames {
		projected = append(projected, n)
	}
	assert.ElementsMatch(t, testmodels.OrderDefinition().Schema.Names(), projected)

	require.NoError(t, orders.Delete(ctx, schema.CompositeKey("c-1", 7)))
	got, err = orders.Get(ctx, schema.CompositeKey("c-1", 7))
	require.NoError(t, err)
	assert.Nil(t, got, "absent item is nil, not an error")

	require.NoError(t, orders.Delete(ctx, schema.CompositeKey("c-1", 7)), "deleting a missing item")
}

func TestKeyErrorsMakeNoCall(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	_, err := orders.Get(ctx, schema.HashKey("c-1"))
	assert.True(t, errors.IsValidationError(err))
	err = orders.Delete(ctx, schema.CompositeKey(1, 2))
	assert.True(t, errors.IsValidationError(err))

	assert.Empty(t, client.Calls())
}

func TestConsistentReads(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t, ddb.WithConsistentReads())

	_, err := orders.Get(ctx, schema.CompositeKey("c-1", 1))
	require.NoError(t, err)
	assert.True(t, aws.ToBool(client.LastGetItem().ConsistentRead))

	_, err = orders.Query(ctx, storagemodels.QueryParams{Hash: "c-1"})
	require.NoError(t, err)
	assert.True(t, aws.ToBool(client.LastQuery().ConsistentRead))
}

func TestPutWithItemValidation(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t, ddb.WithItemValidation())

	_, err := orders.Put(ctx, testmodels.Order{CustomerID: "c-1", OrderID: 1, PlacedAt: "last tuesday"})
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, client.CallCount(mock.OpPutItem))

	_, err = orders.Put(ctx, testmodels.Order{CustomerID: "c-1", OrderID: 1, PlacedAt: "2025-03-01T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 1, client.CallCount(mock.OpPutItem))
}

func TestTransportErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := fmt.Errorf("throttled")
	client := mock.New("customerId", "orderId").WithGetError(boom).WithPutError(boom).WithDeleteError(boom)
	orders, err := ddb.NewTable[testmodels.Order](client, testmodels.OrderDefinition())
	require.NoError(t, err)

	_, err = orders.Get(ctx, schema.CompositeKey("c-1", 1))
	assert.ErrorIs(t, err, boom)
	_, err = orders.Put(ctx, testmodels.Order{CustomerID: "c-1", OrderID: 1})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, orders.Delete(ctx, schema.CompositeKey("c-1", 1)), boom)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	updated := testmodels.Order{CustomerID: "c-1", OrderID: 7, Status: "shipped", Visits: 3}
	client.WithUpdateOutput(&sdk.UpdateItemOutput{Attributes: orderItem(t, updated)})

	got, err := orders.Update(ctx, schema.CompositeKey("c-1", 7),
		map[string]any{"status": "shipped", "visits": 1, "gift": false},
		datastore.WithIncrementFrom("visits", 0),
	)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, updated, *got)

	in := client.LastUpdateItem()
	want := fmt.Sprintf("SET %s = %s, %s = if_not_exists(%s, :start) + %s REMOVE %s",
		name("status"), value("status"), name("visits"), name("visits"), value("visits"), name("gift"))
	assert.Equal(t, want, aws.ToString(in.UpdateExpression))
	assert.Nil(t, in.ConditionExpression)
	assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
	assert.Equal(t, "gift", in.ExpressionAttributeNames[name("gift")])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "0"}, in.ExpressionAttributeValues[":start"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "shipped"}, in.ExpressionAttributeValues[value("status")])
}

func TestUpdateWithoutReturnedAttributes(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	got, err := orders.Update(ctx, schema.CompositeKey("c-1", 7), map[string]any{"total": 10},
		datastore.WithReturnValues(types.ReturnValueNone))
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, types.ReturnValueNone, client.LastUpdateItem().ReturnValues)
}

func TestUpdateWithCondition(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	_, err := orders.Update(ctx, schema.CompositeKey("c-1", 7), map[string]any{"status": "shipped"},
		datastore.WithCondition(func(c expr.ConditionFactory) *expr.Fragment {
			b := c()
			return b.Exists("customerId").And(b.Field("status").Eq("packed"))
		}),
	)
	require.NoError(t, err)

	in := client.LastUpdateItem()
	assert.Equal(t,
		fmt.Sprintf("(attribute_exists(%s)) AND (%s = %s)", name("customerId"), name("status"), operand("status", "eq", "packed")),
		aws.ToString(in.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "shipped"}, in.ExpressionAttributeValues[value("status")])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "packed"}, in.ExpressionAttributeValues[operand("status", "eq", "packed")])
	assert.Equal(t, "customerId", in.ExpressionAttributeNames[name("customerId")])
}

func TestUpdateConditionFailed(t *testing.T) {
	ctx := context.Background()
	client := mock.New("customerId", "orderId").
		WithUpdateError(&types.ConditionalCheckFailedException{Message: aws.String("nope")})
	orders, err := ddb.NewTable[testmodels.Order](client, testmodels.OrderDefinition())
	require.NoError(t, err)

	_, err = orders.Update(ctx, schema.CompositeKey("c-1", 7), map[string]any{"status": "x"})
	require.Error(t, err)
	assert.True(t, errors.IsConditionFailed(err))
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)
	key := schema.CompositeKey("c-1", 7)

	tests := []struct {
		name    string
		updates map[string]any
		opts    []datastore.UpdateOption
	}{
		{"empty", map[string]any{}, nil},
		{"hash key", map[string]any{"customerId": "c-2"}, nil},
		{"range key", map[string]any{"orderId": 8}, nil},
		{"undeclared", map[string]any{"colour": "red"}, nil},
		{"wrong type", map[string]any{"total": "ten"}, nil},
		{"increment non-number", map[string]any{"status": "x"}, []datastore.UpdateOption{datastore.WithIncrement("status")}},
		{"increment undeclared", map[string]any{"total": 1}, []datastore.UpdateOption{datastore.WithIncrement("nope")}},
		{"bad condition", map[string]any{"total": 1}, []datastore.UpdateOption{datastore.WithCondition(
			func(c expr.ConditionFactory) *expr.Fragment { return c().Field("nope").Eq(1) })}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.Update(ctx, key, tt.updates, tt.opts...)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
	assert.Zero(t, client.CallCount(mock.OpUpdateItem))

	// Removal values skip the type check.
	_, err := orders.Update(ctx, key, map[string]any{"total": nil})
	require.NoError(t, err)
}

func TestQueryHashOnly(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)
	client.WithQueryPages(&sdk.QueryOutput{Items: []map[string]types.AttributeValue{
		orderItem(t, testmodels.Order{CustomerID: "c-1", OrderID: 1}),
		orderItem(t, testmodels.Order{CustomerID: "c-1", OrderID: 2}),
	}})

	page, err := orders.Query(ctx, storagemodels.QueryParams{Hash: "c-1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Items[1].OrderID)
	assert.False(t, page.HasMore())
	assert.Equal(t, "", page.Next)

	in := client.LastQuery()
	assert.Equal(t, fmt.Sprintf("%s = %seq", name("customerId"), value("customerId")), aws.ToString(in.KeyConditionExpression))
	assert.Nil(t, in.FilterExpression)
	assert.Nil(t, in.IndexName)
	assert.Nil(t, in.Limit)
	assert.Nil(t, in.ExclusiveStartKey)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "c-1"}, in.ExpressionAttributeValues[value("customerId")+"eq"])
	assert.Len(t, in.ExpressionAttributeValues, 1)
}

func TestQueryRangeFilterAndOptions(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	forward := false
	_, err := orders.Query(ctx, storagemodels.QueryParams{
		Hash:  "c-1",
		Range: func(k *expr.KeyCondition) { k.Between(10, 20) },
		Filter: func(c expr.ConditionFactory) *expr.Fragment {
			b := c()
			return b.Field("status").Eq("open").Or(b.Field("total").Gt(100))
		},
		Projection: []string{"orderId", "status", "shipping.city"},
		Options:    storagemodels.QueryOptions{IndexName: "by-status", Limit: 25, ScanIndexForward: &forward},
	})
	require.NoError(t, err)

	in := client.LastQuery()
	assert.Equal(t,
		fmt.Sprintf("%s = %seq AND %s BETWEEN %slo AND %shi",
			name("customerId"), value("customerId"), name("orderId"), value("orderId"), value("orderId")),
		aws.ToString(in.KeyConditionExpression))
	assert.Equal(t,
		fmt.Sprintf("(%s = %s) OR (%s > %s)", name("status"), operand("status", "eq", "open"), name("total"), operand("total", "gt", 100)),
		aws.ToString(in.FilterExpression))
	assert.Equal(t, "by-status", aws.ToString(in.IndexName))
	assert.Equal(t, int32(25), aws.ToInt32(in.Limit))
	assert.False(t, aws.ToBool(in.ScanIndexForward))
	assert.NotNil(t, in.ProjectionExpression)
	assert.Len(t, in.ExpressionAttributeValues, 5)

	for _, field := range []string{"customerId", "orderId", "status", "total"} {
		assert.Equal(t, field, in.ExpressionAttributeNames[name(field)])
	}
}

func TestQueryValidationMakesNoCall(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	tests := []struct {
		name   string
		params storagemodels.QueryParams
		check  func(error) bool
	}{
		{"missing hash", storagemodels.QueryParams{}, errors.IsValidationError},
		{"hash of wrong type", storagemodels.QueryParams{Hash: 42}, errors.IsValidationError},
		{"bad range value", storagemodels.QueryParams{Hash: "c-1", Range: func(k *expr.KeyCondition) { k.Eq("x") }}, errors.IsValidationError},
		{"begins_with on number range", storagemodels.QueryParams{Hash: "c-1", Range: func(k *expr.KeyCondition) { k.BeginsWith("1") }}, errors.IsValidationError},
		{"filter on key", storagemodels.QueryParams{Hash: "c-1", Filter: func(c expr.ConditionFactory) *expr.Fragment {
			return c().Field("orderId").Gt(1)
		}}, errors.IsValidationError},
		{"undeclared projection", storagemodels.QueryParams{Hash: "c-1", Projection: []string{"colour"}}, errors.IsValidationError},
		{"bad cursor", storagemodels.QueryParams{Hash: "c-1", Cursor: "!!!"}, errors.IsInvalidCursor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orders.Query(ctx, tt.params)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
	assert.Zero(t, client.CallCount(mock.OpQuery))
}

func TestQueryFilterComparesOneFieldTwice(t *testing.T) {
	orders, client := newOrders(t)
	_, err := orders.Query(context.Background(), storagemodels.QueryParams{
		Hash: "c-1",
		Filter: func(c expr.ConditionFactory) *expr.Fragment {
			b := c()
			return b.Field("status").Eq("open").Or(b.Field("status").Eq("shipped"))
		},
	})
	require.NoError(t, err)

	in := client.LastQuery()
	open, shipped := operand("status", "eq", "open"), operand("status", "eq", "shipped")
	assert.NotEqual(t, open, shipped)
	assert.Equal(t,
		fmt.Sprintf("(%s = %s) OR (%s = %s)", name("status"), open, name("status"), shipped),
		aws.ToString(in.FilterExpression))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "open"}, in.ExpressionAttributeValues[open])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "shipped"}, in.ExpressionAttributeValues[shipped])
	assert.Len(t, in.ExpressionAttributeValues, 3)
}

func TestQueryRangeOnHashOnlyTable(t *testing.T) {
	users := schema.Definition{
		Table:   "users",
		Schema:  schema.MustNew(schema.String("id"), schema.String("name")),
		HashKey: "id",
	}
	type user struct {
		ID   string `dynamodbav:"id"`
		Name string `dynamodbav:"name"`
	}
	table, err := ddb.NewTable[user](mock.New("id"), users)
	require.NoError(t, err)

	_, err = table.Query(context.Background(), storagemodels.QueryParams{
		Hash:  "u-1",
		Range: func(k *expr.KeyCondition) { k.Eq("x") },
	})
	assert.True(t, errors.IsValidationError(err))
}

func TestQueryEmptyFilterIsIgnored(t *testing.T) {
	orders, client := newOrders(t)
	_, err := orders.Query(context.Background(), storagemodels.QueryParams{
		Hash:   "c-1",
		Range:  func(k *expr.KeyCondition) {},
		Filter: func(c expr.ConditionFactory) *expr.Fragment { return nil },
	})
	require.NoError(t, err)
	in := client.LastQuery()
	assert.Nil(t, in.FilterExpression)
	assert.Equal(t, fmt.Sprintf("%s = %seq", name("customerId"), value("customerId")), aws.ToString(in.KeyConditionExpression))
}

func TestQueryCursorPassThrough(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	lastKey := map[string]types.AttributeValue{
		"customerId": &types.AttributeValueMemberS{Value: "c-1"},
		"orderId":    &types.AttributeValueMemberN{Value: "2"},
	}
	client.WithQueryPages(
		&sdk.QueryOutput{Items: []map[string]types.AttributeValue{orderItem(t, testmodels.Order{CustomerID: "c-1", OrderID: 2})}, LastEvaluatedKey: lastKey},
		&sdk.QueryOutput{},
	)

	first, err := orders.Query(ctx, storagemodels.QueryParams{Hash: "c-1"})
	require.NoError(t, err)
	require.True(t, first.HasMore())

	decoded, err := cursor.Decode(first.Next)
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)

	second, err := orders.Query(ctx, storagemodels.QueryParams{Hash: "c-1", Cursor: first.Next})
	require.NoError(t, err)
	assert.Equal(t, lastKey, client.LastQuery().ExclusiveStartKey)
	assert.False(t, second.HasMore())
	assert.Empty(t, second.Items)
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	orders, client := newOrders(t)

	for i := 1; i <= 3; i++ {
		_, err := orders.Put(ctx, testmodels.Order{CustomerID: "c-1", OrderID: i})
		require.NoError(t, err)
	}

	page, err := orders.Scan(ctx, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "", page.Next)

	in := client.LastScan()
	assert.Nil(t, in.FilterExpression)
	assert.Nil(t, in.ExpressionAttributeValues)
	assert.NotNil(t, in.ProjectionExpression)

	lastKey := map[string]types.AttributeValue{"customerId": &types.AttributeValueMemberS{Value: "c-9"}, "orderId": &types.AttributeValueMemberN{Value: "9"}}
	client.WithScanPages(&sdk.ScanOutput{LastEvaluatedKey: lastKey})
	next, err := cursor.Encode(lastKey)
	require.NoError(t, err)

	page, err = orders.Scan(ctx, next,
		datastore.WithScanLimit(10),
		datastore.WithScanFilter(func(c expr.ConditionFactory) *expr.Fragment {
			return c().BeginsWith("status", "op")
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, next, page.Next)

	in = client.LastScan()
	assert.Equal(t, lastKey, in.ExclusiveStartKey)
	assert.Equal(t, int32(10), aws.ToInt32(in.Limit))
	assert.Equal(t, fmt.Sprintf("begins_with(%s, :%s)", name("status"), expr.ValueFor("status", "begins", "op")), aws.ToString(in.FilterExpression))

	_, err = orders.Scan(ctx, "not a cursor")
	assert.True(t, errors.IsInvalidCursor(err))
}
