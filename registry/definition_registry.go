/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"

	"github.com/suparena/ddbtable/schema"
)

// definitionRegistry associates Go item types with their table definitions.

var (
	definitionRegistry = make(map[reflect.Type]schema.Definition)
	mu                 sync.RWMutex
)

// RegisterDefinition associates a Go type T with a table definition. The
// definition is validated first; registering T again replaces it.
func RegisterDefinition[T any](def schema.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	t := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()
	definitionRegistry[t] = def
	return nil
}

// GetDefinition retrieves the definition registered for type T, if any.
func GetDefinition[T any]() (schema.Definition, bool) {
	t := reflect.TypeFor[T]()

	mu.RLock()
	defer mu.RUnlock()
	d, ok := definitionRegistry[t]
	return d, ok
}
