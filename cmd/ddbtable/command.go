package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/suparena/ddbtable/datastore"
	"github.com/suparena/ddbtable/expr"
	"github.com/suparena/ddbtable/schema"
	"github.com/suparena/ddbtable/storagemodels"
)

// command holds the flags shared by the table subcommands.
type command struct {
	table      string
	hash       string
	op         string
	rangeVal   string
	rangeTo    string
	where      whereFlags
	project    string
	cursor     string
	limit      int
	desc       bool
	consistent bool
}

// whereFlags collects repeated -where field=value equality filters.
type whereFlags []string

func (w *whereFlags) String() string { return strings.Join(*w, ",") }

func (w *whereFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected field=value, got %q", v)
	}
	*w = append(*w, v)
	return nil
}

func parseCommand(name string, args []string) (*command, error) {
	cmd := &command{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cmd.table, "table", "", "Table name")
	fs.StringVar(&cmd.hash, "hash", "", "Hash key value")
	fs.StringVar(&cmd.op, "op", "eq", "Range key operator (eq, lt, le, gt, ge, between, begins)")
	fs.StringVar(&cmd.rangeVal, "range", "", "Range key value")
	fs.StringVar(&cmd.rangeTo, "range-to", "", "Upper bound for -op between")
	fs.Var(&cmd.where, "where", "Equality filter field=value (repeatable)")
	fs.StringVar(&cmd.project, "project", "", "Comma-separated attributes to return")
	fs.StringVar(&cmd.cursor, "cursor", "", "Cursor from a previous page")
	fs.IntVar(&cmd.limit, "limit", 0, "Maximum items to evaluate")
	fs.BoolVar(&cmd.desc, "desc", false, "Read the partition in descending range order")
	fs.BoolVar(&cmd.consistent, "consistent", false, "Use strongly consistent reads")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cmd.table == "" {
		return nil, fmt.Errorf("%s: -table is required", name)
	}
	if name == "get" && cmd.hash == "" {
		return nil, fmt.Errorf("get: -hash is required")
	}
	return cmd, nil
}

func (c *command) key(def schema.Definition) (schema.Key, error) {
	hash, err := keyValue(def, def.HashKey, c.hash)
	if err != nil {
		return schema.Key{}, err
	}
	if !def.HasRange() {
		return schema.HashKey(hash), nil
	}
	rng, err := keyValue(def, def.RangeKey, c.rangeVal)
	if err != nil {
		return schema.Key{}, err
	}
	return schema.CompositeKey(hash, rng), nil
}

func (c *command) queryParams(def schema.Definition) (storagemodels.QueryParams, error) {
	hash, err := keyValue(def, def.HashKey, c.hash)
	if err != nil {
		return storagemodels.QueryParams{}, err
	}
	params := storagemodels.QueryParams{
		Hash:       hash,
		Projection: c.projection(),
		Cursor:     c.cursor,
		Options: storagemodels.QueryOptions{
			Limit:          int32(c.limit),
			ConsistentRead: c.consistent,
		},
	}
	if c.desc {
		forward := false
		params.Options.ScanIndexForward = &forward
	}
	if c.rangeVal != "" {
		if !def.HasRange() {
			return params, fmt.Errorf("table %q has no range key", def.Table)
		}
		params.Range, err = c.rangeCondition(def)
		if err != nil {
			return params, err
		}
	}
	params.Filter, err = c.filter(def)
	return params, err
}

func (c *command) rangeCondition(def schema.Definition) (func(*expr.KeyCondition), error) {
	lo, err := keyValue(def, def.RangeKey, c.rangeVal)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case "eq":
		return func(k *expr.KeyCondition) { k.Eq(lo) }, nil
	case "lt":
		return func(k *expr.KeyCondition) { k.Lt(lo) }, nil
	case "le":
		return func(k *expr.KeyCondition) { k.Lte(lo) }, nil
	case "gt":
		return func(k *expr.KeyCondition) { k.Gt(lo) }, nil
	case "ge":
		return func(k *expr.KeyCondition) { k.Gte(lo) }, nil
	case "begins":
		return func(k *expr.KeyCondition) { k.BeginsWith(c.rangeVal) }, nil
	case "between":
		hi, err := keyValue(def, def.RangeKey, c.rangeTo)
		if err != nil {
			return nil, err
		}
		return func(k *expr.KeyCondition) { k.Between(lo, hi) }, nil
	}
	return nil, fmt.Errorf("unknown range operator %q", c.op)
}

func (c *command) filter(def schema.Definition) (func(expr.ConditionFactory) *expr.Fragment, error) {
	if len(c.where) == 0 {
		return nil, nil
	}
	type clause struct {
		field string
		value any
	}
	clauses := make([]clause, 0, len(c.where))
	for _, w := range c.where {
		name, raw, _ := strings.Cut(w, "=")
		field, ok := def.Schema.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("field %q is not declared on %q", name, def.Table)
		}
		v, err := parseValue(field, raw)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause{field: name, value: v})
	}
	return func(cf expr.ConditionFactory) *expr.Fragment {
		var out *expr.Fragment
		for _, cl := range clauses {
			f := cf().Field(cl.field).Eq(cl.value)
			if out == nil {
				out = f
				continue
			}
			out = out.And(f)
		}
		return out
	}, nil
}

func (c *command) scanOptions(def schema.Definition) ([]datastore.ScanOption, error) {
	opts := []datastore.ScanOption{datastore.WithScanLimit(int32(c.limit))}
	filter, err := c.filter(def)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		opts = append(opts, datastore.WithScanFilter(filter))
	}
	return opts, nil
}

func (c *command) projection() []string {
	if c.project == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(c.project, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func keyValue(def schema.Definition, name, raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("a value for key %q is required", name)
	}
	field, _ := def.Schema.Lookup(name)
	return parseValue(field, raw)
}

// parseValue converts a command-line string to the Go value a field declares.
func parseValue(field schema.Field, raw string) (any, error) {
	switch field.Kind {
	case schema.KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a number", field.Name, raw)
		}
		return n, nil
	case schema.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %q is not a boolean", field.Name, raw)
		}
		return b, nil
	case schema.KindNested:
		return nil, fmt.Errorf("field %q is nested and cannot be given on the command line", field.Name)
	case schema.KindNull:
		return nil, nil
	default:
		return raw, nil
	}
}

// offlineClient backs explain, which builds requests but never sends them.
type offlineClient struct{}

var errOffline = fmt.Errorf("explain does not send requests")

func (offlineClient) GetItem(context.Context, *sdk.GetItemInput, ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	return nil, errOffline
}

func (offlineClient) PutItem(context.Context, *sdk.PutItemInput, ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	return nil, errOffline
}

func (offlineClient) DeleteItem(context.Context, *sdk.DeleteItemInput, ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	return nil, errOffline
}

func (offlineClient) UpdateItem(context.Context, *sdk.UpdateItemInput, ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	return nil, errOffline
}

func (offlineClient) Scan(context.Context, *sdk.ScanInput, ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	return nil, errOffline
}

func (offlineClient) Query(context.Context, *sdk.QueryInput, ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	return nil, errOffline
}
