/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides a recording in-memory fake of the DynamoDB transport
// used by ddb tables, for testing.
package mock

import (
	"context"
	"encoding/hex"
	"maps"
	"sort"
	"strings"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operation names recorded in Calls.
const (
	OpGetItem    = "GetItem"
	OpPutItem    = "PutItem"
	OpDeleteItem = "DeleteItem"
	OpUpdateItem = "UpdateItem"
	OpScan       = "Scan"
	OpQuery      = "Query"
)

// Call is one recorded request.
type Call struct {
	Operation string
	Input     any
}

// Client is a fake DynamoDB client. GetItem, PutItem and DeleteItem work
// against an in-memory item set keyed by the key attribute names given to
// New. Query and Scan serve scripted pages in order; a Scan with no scripted
// pages returns every stored item in key order. UpdateItem returns its
// scripted output, or an empty one.
type Client struct {
	mu       sync.Mutex
	keyNames []string
	items    map[string]map[string]types.AttributeValue
	calls    []Call

	queryPages   []*sdk.QueryOutput
	scanPages    []*sdk.ScanOutput
	updateOutput *sdk.UpdateItemOutput

	getError    error
	putError    error
	deleteError error
	updateError error
	scanError   error
	queryError  error
}

// New creates a fake client whose stored items are identified by keyNames.
func New(keyNames ...string) *Client {
	return &Client{
		keyNames: keyNames,
		items:    make(map[string]map[string]types.AttributeValue),
	}
}

// WithQueryPages scripts the outputs of successive Query calls.
func (m *Client) WithQueryPages(pages ...*sdk.QueryOutput) *Client {
	m.queryPages = append(m.queryPages, pages...)
	return m
}

// WithScanPages scripts the outputs of successive Scan calls.
func (m *Client) WithScanPages(pages ...*sdk.ScanOutput) *Client {
	m.scanPages = append(m.scanPages, pages...)
	return m
}

// WithUpdateOutput sets what UpdateItem returns.
func (m *Client) WithUpdateOutput(out *sdk.UpdateItemOutput) *Client {
	m.updateOutput = out
	return m
}

// WithGetError makes GetItem operations return an error
func (m *Client) WithGetError(err error) *Client {
	m.getError = err
	return m
}

// WithPutError makes PutItem operations return an error
func (m *Client) WithPutError(err error) *Client {
	m.putError = err
	return m
}

// WithDeleteError makes DeleteItem operations return an error
func (m *Client) WithDeleteError(err error) *Client {
	m.deleteError = err
	return m
}

// WithUpdateError makes UpdateItem operations return an error
func (m *Client) WithUpdateError(err error) *Client {
	m.updateError = err
	return m
}

// WithScanError makes Scan operations return an error
func (m *Client) WithScanError(err error) *Client {
	m.scanError = err
	return m
}

// WithQueryError makes Query operations return an error
func (m *Client) WithQueryError(err error) *Client {
	m.queryError = err
	return m
}

// GetItem returns the stored item for the request key.
func (m *Client) GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpGetItem, params)

	if m.getError != nil {
		return nil, m.getError
	}
	item, ok := m.items[m.keyOf(params.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: maps.Clone(item)}, nil
}

// PutItem stores the item, replacing any item with the same key.
func (m *Client) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpPutItem, params)

	if m.putError != nil {
		return nil, m.putError
	}
	m.items[m.keyOf(params.Item)] = maps.Clone(params.Item)
	return &sdk.PutItemOutput{}, nil
}

// DeleteItem removes the stored item, if any.
func (m *Client) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpDeleteItem, params)

	if m.deleteError != nil {
		return nil, m.deleteError
	}
	delete(m.items, m.keyOf(params.Key))
	return &sdk.DeleteItemOutput{}, nil
}

// UpdateItem records the request and returns the scripted output.
func (m *Client) UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpUpdateItem, params)

	if m.updateError != nil {
		return nil, m.updateError
	}
	if m.updateOutput != nil {
		return m.updateOutput, nil
	}
	return &sdk.UpdateItemOutput{}, nil
}

// Scan serves the next scripted page, or every stored item when none were scripted.
func (m *Client) Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpScan, params)

	if m.scanError != nil {
		return nil, m.scanError
	}
	if len(m.scanPages) > 0 {
		page := m.scanPages[0]
		m.scanPages = m.scanPages[1:]
		return page, nil
	}

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &sdk.ScanOutput{}
	for _, k := range keys {
		out.Items = append(out.Items, maps.Clone(m.items[k]))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

// Query serves the next scripted page, or an empty page.
func (m *Client) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpQuery, params)

	if m.queryError != nil {
		return nil, m.queryError
	}
	if len(m.queryPages) > 0 {
		page := m.queryPages[0]
		m.queryPages = m.queryPages[1:]
		return page, nil
	}
	return &sdk.QueryOutput{}, nil
}

// Helper methods for testing

// Calls returns every recorded request in order.
func (m *Client) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many requests of the given operation were made.
func (m *Client) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Operation == op {
			n++
		}
	}
	return n
}

// Count returns the number of stored items.
func (m *Client) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Clear removes all stored items and recorded calls.
func (m *Client) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]map[string]types.AttributeValue)
	m.calls = nil
}

// LastGetItem returns the most recent GetItem request, or nil.
func (m *Client) LastGetItem() *sdk.GetItemInput { return last[*sdk.GetItemInput](m, OpGetItem) }

// LastPutItem returns the most recent PutItem request, or nil.
func (m *Client) LastPutItem() *sdk.PutItemInput { return last[*sdk.PutItemInput](m, OpPutItem) }

// LastDeleteItem returns the most recent DeleteItem request, or nil.
func (m *Client) LastDeleteItem() *sdk.DeleteItemInput {
	return last[*sdk.DeleteItemInput](m, OpDeleteItem)
}

// LastUpdateItem returns the most recent UpdateItem request, or nil.
func (m *Client) LastUpdateItem() *sdk.UpdateItemInput {
	return last[*sdk.UpdateItemInput](m, OpUpdateItem)
}

// LastScan returns the most recent Scan request, or nil.
func (m *Client) LastScan() *sdk.ScanInput { return last[*sdk.ScanInput](m, OpScan) }

// LastQuery returns the most recent Query request, or nil.
func (m *Client) LastQuery() *sdk.QueryInput { return last[*sdk.QueryInput](m, OpQuery) }

func last[In any](m *Client, op string) In {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero In
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Operation == op {
			if in, ok := m.calls[i].Input.(In); ok {
				return in
			}
			return zero
		}
	}
	return zero
}

func (m *Client) record(op string, input any) {
	m.calls = append(m.calls, Call{Operation: op, Input: input})
}

// keyOf renders the key attributes of item as a map key.
func (m *Client) keyOf(item map[string]types.AttributeValue) string {
	parts := make([]string, 0, len(m.keyNames))
	for _, name := range m.keyNames {
		var v string
		switch av := item[name].(type) {
		case *types.AttributeValueMemberS:
			v = "S:" + av.Value
		case *types.AttributeValueMemberN:
			v = "N:" + av.Value
		case *types.AttributeValueMemberB:
			v = "B:" + hex.EncodeToString(av.Value)
		}
		parts = append(parts, name+"="+v)
	}
	return strings.Join(parts, "|")
}
