/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbtable

import (
	"fmt"

	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/datastore/ddb"
	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/registry"
	"github.com/suparena/ddbtable/schema"
)

// Document is the item type of tables opened without a Go model.
type Document = map[string]any

// Open builds a table for T over def and adds it to the catalog under def.Table.
func Open[T any](c *Catalog, def schema.Definition) (*ddb.Table[T], error) {
	table, err := ddb.NewTable[T](c.client, def, c.opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Add(def.Table, table); err != nil {
		return nil, err
	}
	return table, nil
}

// OpenRegistered opens the table whose definition was registered for T.
func OpenRegistered[T any](c *Catalog) (*ddb.Table[T], error) {
	def, ok := registry.GetDefinition[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %T", errors.ErrNoDefinition, zero)
	}
	return Open[T](c, def)
}

// OpenDocuments opens a Document table for each definition. It stops at the
// first failure; tables opened before it stay in the catalog.
func OpenDocuments(c *Catalog, defs ...schema.Definition) error {
	for _, def := range defs {
		if _, err := Open[Document](c, def); err != nil {
			return fmt.Errorf("open %q: %w", def.Table, err)
		}
	}
	return nil
}

// TableOf returns the table stored under name as a datastore.Table[T].
func TableOf[T any](c *Catalog, name string) (datastore.Table[T], error) {
	raw, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	table, ok := raw.(datastore.Table[T])
	if !ok {
		var zero T
		return nil, errors.NewValidationError(name, fmt.Sprintf("table does not hold %T items", zero))
	}
	return table, nil
}
