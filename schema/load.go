/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/suparena/ddbtable/errors"
	"gopkg.in/yaml.v3"
)

type definitionsFile struct {
	Tables []tableDoc `yaml:"tables"`
}

type tableDoc struct {
	Name     string    `yaml:"name"`
	HashKey  string    `yaml:"hashKey"`
	RangeKey string    `yaml:"rangeKey"`
	Fields   yaml.Node `yaml:"fields"`
}

// LoadFile reads table definitions from a YAML file.
func LoadFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definitions: %w", err)
	}
	defer f.Close()
	return LoadDefinitions(f)
}

// LoadDefinitions decodes table definitions from YAML. Field order in the
// document becomes the schema's declaration order.
//
//	tables:
//	  - name: orders
//	    hashKey: customerId
//	    rangeKey: orderId
//	    fields:
//	      customerId: string
//	      orderId: number
//	      placedAt: string:date-time
//	      shipping:
//	        city: string
func LoadDefinitions(r io.Reader) ([]Definition, error) {
	var doc definitionsFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}

	defs := make([]Definition, 0, len(doc.Tables))
	for _, t := range doc.Tables {
		s, err := parseFields(&t.Fields, t.Name)
		if err != nil {
			return nil, err
		}
		def := Definition{
			Table:    t.Name,
			Schema:   s,
			HashKey:  t.HashKey,
			RangeKey: t.RangeKey,
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseFields(node *yaml.Node, path string) (Schema, error) {
	if node.Kind != yaml.MappingNode {
		return Schema{}, errors.NewValidationError(path, fmt.Sprintf("fields must be a mapping (line %d)", node.Line))
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := node.Content[i+1]
		fieldPath := path + "." + name

		switch value.Kind {
		case yaml.ScalarNode:
			f, err := parseScalarField(name, value.Value)
			if err != nil {
				return Schema{}, errors.NewValidationError(fieldPath, fmt.Sprintf("%v (line %d)", err, value.Line))
			}
			fields = append(fields, f)
		case yaml.MappingNode:
			nested, err := parseFields(value, fieldPath)
			if err != nil {
				return Schema{}, err
			}
			fields = append(fields, Nested(name, nested))
		default:
			return Schema{}, errors.NewValidationError(fieldPath, fmt.Sprintf("expected a type tag or a mapping (line %d)", value.Line))
		}
	}
	return New(fields...)
}

// parseScalarField accepts "<tag>" or "string:<format>".
func parseScalarField(name, tag string) (Field, error) {
	kindTag, format, _ := strings.Cut(tag, ":")
	kind, err := ParseKind(kindTag)
	if err != nil {
		return Field{}, err
	}
	if format != "" && kind != KindString {
		return Field{}, fmt.Errorf("format %q on non-string field", format)
	}
	return Field{Name: name, Kind: kind, Format: strings.TrimSpace(format)}, nil
}
