/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cursor converts a DynamoDB LastEvaluatedKey into an opaque string
// and back. The string is base64 over a JSON document that tags each
// attribute with its DynamoDB type, so decoding restores the exact key the
// service returned.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbtable/errors"
)

type wireValue struct {
	S    *string               `json:"S,omitempty"`
	N    *string               `json:"N,omitempty"`
	B    *[]byte               `json:"B,omitempty"`
	BOOL *bool                 `json:"BOOL,omitempty"`
	NULL *bool                 `json:"NULL,omitempty"`
	SS   *[]string             `json:"SS,omitempty"`
	NS   *[]string             `json:"NS,omitempty"`
	BS   *[][]byte             `json:"BS,omitempty"`
	L    *[]wireValue          `json:"L,omitempty"`
	M    *map[string]wireValue `json:"M,omitempty"`
}

// Encode renders a LastEvaluatedKey as a cursor. An empty key means there is
// no further page and yields "".
func Encode(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	wire, err := toWireMap(key)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a cursor produced by Encode. The empty cursor decodes to a
// nil key, meaning "start from the beginning".
func Decode(c string) (map[string]types.AttributeValue, error) {
	if c == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(c)
	if err != nil {
		return nil, errors.NewCursorError(c, err)
	}
	var wire map[string]wireValue
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.NewCursorError(c, err)
	}
	if len(wire) == 0 {
		return nil, errors.NewCursorError(c, fmt.Errorf("cursor holds no key attributes"))
	}
	key, err := fromWireMap(wire)
	if err != nil {
		return nil, errors.NewCursorError(c, err)
	}
	return key, nil
}

func toWireMap(m map[string]types.AttributeValue) (map[string]wireValue, error) {
	out := make(map[string]wireValue, len(m))
	for k, av := range m {
		w, err := toWire(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = w
	}
	return out, nil
}

func toWire(av types.AttributeValue) (wireValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return wireValue{S: &v.Value}, nil
	case *types.AttributeValueMemberN:
		return wireValue{N: &v.Value}, nil
	case *types.AttributeValueMemberB:
		return wireValue{B: &v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return wireValue{BOOL: &v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return wireValue{NULL: &v.Value}, nil
	case *types.AttributeValueMemberSS:
		return wireValue{SS: &v.Value}, nil
	case *types.AttributeValueMemberNS:
		return wireValue{NS: &v.Value}, nil
	case *types.AttributeValueMemberBS:
		return wireValue{BS: &v.Value}, nil
	case *types.AttributeValueMemberL:
		list := make([]wireValue, len(v.Value))
		for i, item := range v.Value {
			w, err := toWire(item)
			if err != nil {
				return wireValue{}, err
			}
			list[i] = w
		}
		return wireValue{L: &list}, nil
	case *types.AttributeValueMemberM:
		m, err := toWireMap(v.Value)
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{M: &m}, nil
	default:
		return wireValue{}, fmt.Errorf("unsupported attribute value %T", av)
	}
}

func fromWireMap(m map[string]wireValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, w := range m {
		av, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func fromWire(w wireValue) (types.AttributeValue, error) {
	var (
		av    types.AttributeValue
		count int
	)
	set := func(v types.AttributeValue) {
		av = v
		count++
	}
	if w.S != nil {
		set(&types.AttributeValueMemberS{Value: *w.S})
	}
	if w.N != nil {
		set(&types.AttributeValueMemberN{Value: *w.N})
	}
	if w.B != nil {
		set(&types.AttributeValueMemberB{Value: *w.B})
	}
	if w.BOOL != nil {
		set(&types.AttributeValueMemberBOOL{Value: *w.BOOL})
	}
	if w.NULL != nil {
		set(&types.AttributeValueMemberNULL{Value: *w.NULL})
	}
	if w.SS != nil {
		set(&types.AttributeValueMemberSS{Value: *w.SS})
	}
	if w.NS != nil {
		set(&types.AttributeValueMemberNS{Value: *w.NS})
	}
	if w.BS != nil {
		set(&types.AttributeValueMemberBS{Value: *w.BS})
	}
	if w.L != nil {
		list := make([]types.AttributeValue, len(*w.L))
		for i, item := range *w.L {
			v, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		set(&types.AttributeValueMemberL{Value: list})
	}
	if w.M != nil {
		m, err := fromWireMap(*w.M)
		if err != nil {
			return nil, err
		}
		set(&types.AttributeValueMemberM{Value: m})
	}
	if count != 1 {
		return nil, fmt.Errorf("attribute must carry exactly one type tag, found %d", count)
	}
	return av, nil
}
