/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbtable

import (
	"sort"
	"sync"

	"github.com/suparena/ddbtable/datastore/ddb"
	"github.com/suparena/ddbtable/errors"
)

// Catalog is a thread-safe collection of tables keyed by table name.
// Tables of different item types share one catalog; use TableOf to
// recover a typed handle.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]any
	client ddb.Client
	opts   []ddb.Option
}

// NewCatalog creates a catalog whose tables are opened on client with opts.
func NewCatalog(client ddb.Client, opts ...ddb.Option) *Catalog {
	return &Catalog{
		tables: make(map[string]any),
		client: client,
		opts:   opts,
	}
}

// Add stores table under name.
func (c *Catalog) Add(name string, table any) error {
	if name == "" {
		return errors.NewValidationError("name", "table name is required")
	}
	if table == nil {
		return errors.NewValidationError(name, "table is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return errors.NewAlreadyExistsError("table", name)
	}
	c.tables[name] = table
	return nil
}

// Lookup returns the untyped table stored under name.
func (c *Catalog) Lookup(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[name]
	if !exists {
		return nil, errors.NewNotFoundError("table", name)
	}
	return table, nil
}

// Remove drops the table stored under name.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; !exists {
		return errors.NewNotFoundError("table", name)
	}
	delete(c.tables, name)
	return nil
}

// Names returns the catalogued table names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
