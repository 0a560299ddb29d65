/*
Package expr builds DynamoDB expression strings together with their
ExpressionAttributeNames and ExpressionAttributeValues maps.

Every attribute name is replaced by a "#token" placeholder derived from a hash
of the name (NameFor), so reserved words and dotted paths never reach the
expression text. Condition operands are bound to ":token" placeholders
derived from the field, the operator and the operand itself (ValueFor), so one
expression can compare a field against any number of values.

A Fragment is the unit of composition:

	b := expr.NewConditionBuilder(def.Schema, def.HashKey, def.RangeKey)
	f := b.Field("status").Eq("shipped").
	    And(b.Field("total").Gte(100)).
	    Or(b.Exists("giftNote"))

	f.Expression() // "((#… = :…) AND (#… >= :…)) OR (attribute_exists(#…))"

And and Or return new fragments and leave their operands alone, so a fragment
can be reused in several combinations. Invalid input (an undeclared field, a
key field in a filter, a value of the wrong type) does not panic: the fragment
carries the error and Err reports it.

KeyCondition builds the key part of a Query, and CompileUpdate compiles a
field→value map into a SET/REMOVE UpdateExpression.
*/
package expr
