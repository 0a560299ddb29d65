/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/ddbtable/errors"
	"github.com/suparena/ddbtable/schema"
)

// tableRegistry holds definitions by table name, for callers that only know
// the name (the CLI, definitions loaded from YAML).
var (
	tableRegistry = make(map[string]schema.Definition)
	tableMu       sync.RWMutex
)

// Register adds a definition under its table name. Registering the same
// name twice is an error, to prevent accidental overrides.
func Register(def schema.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	tableMu.Lock()
	defer tableMu.Unlock()
	if _, exists := tableRegistry[def.Table]; exists {
		return errors.NewAlreadyExistsError("table definition", def.Table)
	}
	tableRegistry[def.Table] = def
	return nil
}

// Lookup returns the definition registered under name.
func Lookup(name string) (schema.Definition, error) {
	tableMu.RLock()
	defer tableMu.RUnlock()
	def, ok := tableRegistry[name]
	if !ok {
		return schema.Definition{}, fmt.Errorf("%w: table %q", errors.ErrNoDefinition, name)
	}
	return def, nil
}

// Tables returns the registered table names in sorted order.
func Tables() []string {
	tableMu.RLock()
	defer tableMu.RUnlock()
	names := make([]string, 0, len(tableRegistry))
	for name := range tableRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a definition. It reports whether one was present.
func Unregister(name string) bool {
	tableMu.Lock()
	defer tableMu.Unlock()
	_, ok := tableRegistry[name]
	delete(tableRegistry, name)
	return ok
}
