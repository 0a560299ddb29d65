/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cespare/xxhash/v2"
)

// aliasWidth is the base-36 width of a 64-bit hash; fixed width keeps an
// alias from ever being a prefix of another one.
const aliasWidth = 13

// NameFor returns the alias token for a field name. It is a pure function of
// the name, so every comparison on the same field inside one expression uses
// the same placeholder.
func NameFor(field string) string {
	s := strconv.FormatUint(xxhash.Sum64String(field), 36)
	if len(s) < aliasWidth {
		s = strings.Repeat("0", aliasWidth-len(s)) + s
	}
	return s
}

// NameForOp returns the alias token for a value bound by a path operator
// (attribute_type, begins_with, contains). It depends on both the path and
// the operator.
func NameForOp(path, op string) string {
	return NameFor(op + "\x00" + path)
}

// ValueFor returns the alias token for operand v compared against field (or
// document path) with operator op. Equal operands share a token; distinct
// operands on the same field and operator get distinct tokens.
func ValueFor(field, op string, v any) string {
	return NameForOp(field, op+"\x00"+canonical(v))
}

func nameToken(field string) string {
	return "#" + NameFor(field)
}

func valueToken(field, tag string) string {
	return ":" + NameFor(field) + tag
}

func operandToken(field, op string, v any) string {
	return ":" + ValueFor(field, op, v)
}

// canonical renders v as its DynamoDB attribute value, so operands that
// marshal identically (int 5 and float64 5) render identically.
func canonical(v any) string {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	var b strings.Builder
	writeCanonical(&b, av)
	return b.String()
}

func writeCanonical(b *strings.Builder, av types.AttributeValue) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		b.WriteString("S:" + strconv.Quote(v.Value))
	case *types.AttributeValueMemberN:
		b.WriteString("N:" + v.Value)
	case *types.AttributeValueMemberB:
		b.WriteString("B:" + hex.EncodeToString(v.Value))
	case *types.AttributeValueMemberBOOL:
		b.WriteString("BOOL:" + strconv.FormatBool(v.Value))
	case *types.AttributeValueMemberNULL:
		b.WriteString("NULL")
	case *types.AttributeValueMemberSS:
		quoted := make([]string, len(v.Value))
		for i, s := range v.Value {
			quoted[i] = strconv.Quote(s)
		}
		b.WriteString("SS[" + strings.Join(quoted, ",") + "]")
	case *types.AttributeValueMemberNS:
		b.WriteString("NS[" + strings.Join(v.Value, ",") + "]")
	case *types.AttributeValueMemberBS:
		encoded := make([]string, len(v.Value))
		for i, bs := range v.Value {
			encoded[i] = hex.EncodeToString(bs)
		}
		b.WriteString("BS[" + strings.Join(encoded, ",") + "]")
	case *types.AttributeValueMemberL:
		b.WriteString("L[")
		for i, item := range v.Value {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case *types.AttributeValueMemberM:
		keys := make([]string, 0, len(v.Value))
		for k := range v.Value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("M{")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k) + ":")
			writeCanonical(b, v.Value[k])
		}
		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%T", av)
	}
}

// pathTokens aliases every segment of a document path such as
// "shipping.lines[0].sku" and returns the rewritten path with its name map.
func pathTokens(path string) (string, map[string]string) {
	names := make(map[string]string)
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		name, index := seg, ""
		if at := strings.IndexByte(seg, '['); at >= 0 {
			name, index = seg[:at], seg[at:]
		}
		token := nameToken(name)
		names[token] = name
		segments[i] = token + index
	}
	return strings.Join(segments, "."), names
}

// pathRoot returns the top-level attribute of a document path.
func pathRoot(path string) string {
	root := path
	if at := strings.IndexAny(root, ".["); at >= 0 {
		root = root[:at]
	}
	return root
}
