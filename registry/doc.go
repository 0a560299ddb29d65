/*
Package registry keeps table definitions so tables can be built from a Go
type or a table name instead of passing the definition around.

Definition registry:
Associates Go item types with their table definition:

	registry.RegisterDefinition[testmodels.Order](testmodels.OrderDefinition())

	orders, err := ddb.NewTableFor[testmodels.Order](client)

Table registry:
Holds definitions by table name, typically loaded from YAML:

	defs, err := schema.LoadFile("tables.yaml")
	for _, def := range defs {
	    if err := registry.Register(def); err != nil {
	        return err
	    }
	}
	def, err := registry.Lookup("orders")

Both registries validate a definition before accepting it. They are
thread-safe and should be populated during initialization.
*/
package registry
