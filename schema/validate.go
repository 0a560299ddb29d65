/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/suparena/ddbtable/errors"
)

// ValidateItem checks a marshalled item against the definition: key fields
// must be present, and every declared field that is present must carry an
// attribute of the declared kind. Undeclared attributes are tolerated.
func (d Definition) ValidateItem(item map[string]types.AttributeValue) error {
	for _, k := range d.KeyNames() {
		av, ok := item[k]
		if !ok {
			return errors.NewValidationError(k, "key attribute missing from item")
		}
		if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
			return errors.NewValidationError(k, "key attribute must not be null")
		}
	}
	return validateAttributes(d.Schema, item, "")
}

func validateAttributes(s Schema, item map[string]types.AttributeValue, prefix string) error {
	for _, f := range s.fields {
		av, ok := item[f.Name]
		if !ok {
			continue
		}
		path := prefix + f.Name
		if err := validateAttribute(f, av, path); err != nil {
			return err
		}
	}
	return nil
}

func validateAttribute(f Field, av types.AttributeValue, path string) error {
	mismatch := func() error {
		return errors.NewValidationError(path, fmt.Sprintf("expected %s, got %s", f.Kind, attributeKind(av)))
	}

	switch f.Kind {
	case KindString:
		v, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return mismatch()
		}
		if f.Format != "" && !strfmt.Default.Validates(f.Format, v.Value) {
			return errors.NewValidationError(path, fmt.Sprintf("value %q is not a valid %s", v.Value, f.Format))
		}
	case KindNumber:
		if _, ok := av.(*types.AttributeValueMemberN); !ok {
			return mismatch()
		}
	case KindBoolean:
		if _, ok := av.(*types.AttributeValueMemberBOOL); !ok {
			return mismatch()
		}
	case KindNull:
		if _, ok := av.(*types.AttributeValueMemberNULL); !ok {
			return mismatch()
		}
	case KindNested:
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			return mismatch()
		}
		return validateAttributes(*f.Nested, m.Value, path+".")
	}
	return nil
}

// attributeKind names the wire type of av for error messages.
func attributeKind(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	default:
		return fmt.Sprintf("%T", av)
	}
}
