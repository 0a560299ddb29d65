package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/suparena/ddbtable"
	"github.com/suparena/ddbtable/datastore/ddb"
	"github.com/suparena/ddbtable/registry"
	"github.com/suparena/ddbtable/schema"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	defsFlag    = flag.String("defs", "tables.yaml", "YAML file with table definitions")
	envFlag     = flag.String("env", ".env", "dotenv file with AWS settings")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

const usage = `usage: ddbtable [flags] <command> [command flags]

commands:
  tables    list the defined tables
  explain   print the request a query would send, without sending it
  get       fetch one item by key
  query     read one page of a partition
  scan      read one page of the whole table
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag || *vFlag {
		info := ddbtable.GetVersionInfo()
		fmt.Printf("ddbtable version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := newLogger(*logLevel)
	if err := run(context.Background(), logger, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		logger.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func run(ctx context.Context, logger zerolog.Logger, command string, args []string, out io.Writer) error {
	switch command {
	case "tables", "explain", "get", "query", "scan":
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	defs, err := schema.LoadFile(*defsFlag)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}

	if command == "tables" {
		return listTables(out)
	}

	cmd, err := parseCommand(command, args)
	if err != nil {
		return err
	}
	def, err := registry.Lookup(cmd.table)
	if err != nil {
		return err
	}

	if command == "explain" {
		table, err := ddb.NewTable[ddbtable.Document](offlineClient{}, def)
		if err != nil {
			return err
		}
		return explain(table, cmd, out)
	}

	client, err := ddb.NewDynamoDBClient(ctx, ddb.LoadClientConfig(*envFlag))
	if err != nil {
		return err
	}
	catalog := ddbtable.NewCatalog(client, ddb.WithLogger(logger))
	if err := ddbtable.OpenDocuments(catalog, def); err != nil {
		return err
	}
	table, err := ddbtable.TableOf[ddbtable.Document](catalog, def.Table)
	if err != nil {
		return err
	}

	switch command {
	case "get":
		key, err := cmd.key(def)
		if err != nil {
			return err
		}
		item, err := table.Get(ctx, key)
		if err != nil {
			return err
		}
		if item == nil {
			logger.Info().Str("table", def.Table).Msg("item not found")
			return nil
		}
		return writeJSON(out, item)
	case "query":
		params, err := cmd.queryParams(def)
		if err != nil {
			return err
		}
		page, err := table.Query(ctx, params)
		if err != nil {
			return err
		}
		return writeJSON(out, page)
	case "scan":
		opts, err := cmd.scanOptions(def)
		if err != nil {
			return err
		}
		page, err := table.Scan(ctx, cmd.cursor, opts...)
		if err != nil {
			return err
		}
		return writeJSON(out, page)
	}
	return fmt.Errorf("unknown command %q", command)
}

func listTables(out io.Writer) error {
	for _, name := range registry.Tables() {
		def, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		key := def.HashKey
		if def.HasRange() {
			key += ", " + def.RangeKey
		}
		fmt.Fprintf(out, "%s\tkey(%s)\t%s\n", name, key, strings.Join(def.Schema.Names(), " "))
	}
	return nil
}

type explained struct {
	Operation  string            `json:"operation"`
	KeyExpr    string            `json:"keyConditionExpression,omitempty"`
	Filter     string            `json:"filterExpression,omitempty"`
	Projection string            `json:"projectionExpression,omitempty"`
	Names      map[string]string `json:"names,omitempty"`
	Values     map[string]any    `json:"values,omitempty"`
}

func explain(table *ddb.Table[ddbtable.Document], cmd *command, out io.Writer) error {
	def := table.Definition()
	var (
		e      explained
		values map[string]types.AttributeValue
	)
	if cmd.hash == "" {
		opts, err := cmd.scanOptions(def)
		if err != nil {
			return err
		}
		in, err := table.BuildScanInput(cmd.cursor, opts...)
		if err != nil {
			return err
		}
		e = explained{Operation: "Scan", Filter: deref(in.FilterExpression),
			Projection: deref(in.ProjectionExpression), Names: in.ExpressionAttributeNames}
		values = in.ExpressionAttributeValues
	} else {
		params, err := cmd.queryParams(def)
		if err != nil {
			return err
		}
		in, err := table.BuildQueryInput(params)
		if err != nil {
			return err
		}
		e = explained{Operation: "Query", KeyExpr: deref(in.KeyConditionExpression),
			Filter: deref(in.FilterExpression), Projection: deref(in.ProjectionExpression),
			Names: in.ExpressionAttributeNames}
		values = in.ExpressionAttributeValues
	}
	if len(values) > 0 {
		if err := attributevalue.UnmarshalMap(values, &e.Values); err != nil {
			return err
		}
	}
	return writeJSON(out, e)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
