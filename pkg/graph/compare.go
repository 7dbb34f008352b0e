package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// Operator is a source-level comparison operator.
type Operator string

const (
	OpEq          Operator = "=="
	OpStrictEq    Operator = "==="
	OpNotEq       Operator = "!="
	OpStrictNotEq Operator = "!=="
	OpLt          Operator = "<"
	OpLte         Operator = "<="
	OpGt          Operator = ">"
	OpGte         Operator = ">="
)

// Valid reports whether o is one of the eight supported operators.
func (o Operator) Valid() bool {
	switch o {
	case OpEq, OpStrictEq, OpNotEq, OpStrictNotEq, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Swap returns the operator that gives the same result with the operands
// exchanged.
func (o Operator) Swap() Operator {
	switch o {
	case OpLt:
		return OpGt
	case OpLte:
		return OpGte
	case OpGt:
		return OpLt
	case OpGte:
		return OpLte
	}
	return o
}

func (o Operator) negated() Operator {
	switch o {
	case OpNotEq:
		return OpEq
	case OpStrictNotEq:
		return OpStrictEq
	}
	return o
}

func (o Operator) isEquality() bool { return o == OpEq || o == OpStrictEq }

// matchesNull reports whether null op null holds.
func (o Operator) matchesNull() bool { return o.isEquality() || o == OpLte || o == OpGte }

// CompareOutputs builds the condition for left op right. Two literals are
// compared here, at compile time, into a constant condition; in every
// other case the operands are arranged so the left one is a path or
// condition and Compare expands the comparison.
func CompareOutputs(left, right Output, op Operator) (*asl.Condition, error) {
	if !op.Valid() {
		return nil, synthErrorf(ErrInvalidOperator, string(op), "unsupported comparison")
	}
	l, leftLiteral := left.(*LiteralValue)
	if leftLiteral {
		if r, ok := right.(*LiteralValue); ok {
			if compareLiterals(l.Value, r.Value, op) {
				return asl.True(), nil
			}
			return asl.False(), nil
		}
		return Compare(right, left, op.Swap())
	}
	return Compare(left, right, op)
}

// Compare expands left op right into type-guarded choice rules. left must
// be a PathReference or ConditionOutput. The result holds when both sides
// are undefined (equality only), or both are present and either both are
// null or both share a primitive type and satisfy op. Equality is strict:
// values of different types are never equal.
func Compare(left, right Output, op Operator) (*asl.Condition, error) {
	if !op.Valid() {
		return nil, synthErrorf(ErrInvalidOperator, string(op), "unsupported comparison")
	}
	if op == OpNotEq || op == OpStrictNotEq {
		eq, err := Compare(left, right, op.negated())
		if err != nil {
			return nil, err
		}
		return asl.Not(eq), nil
	}

	return MatchOutput(left, OutputMatcher[*asl.Condition]{
		Condition: func(l *ConditionOutput) (*asl.Condition, error) {
			return BooleanCompare(l, right, op)
		},
		Path: func(l *PathReference) (*asl.Condition, error) {
			return MatchOutput(right, OutputMatcher[*asl.Condition]{
				Literal: func(r *LiteralValue) (*asl.Condition, error) {
					return expandCompare(pathOperand(l.Path), literalOperand(r.Value), op), nil
				},
				Path: func(r *PathReference) (*asl.Condition, error) {
					return expandCompare(pathOperand(l.Path), pathOperand(r.Path), op), nil
				},
				Condition: func(r *ConditionOutput) (*asl.Condition, error) {
					return BooleanCompare(r, l, op.Swap())
				},
			})
		},
		Literal: func(l *LiteralValue) (*asl.Condition, error) {
			return nil, synthErrorf(ErrStructural, fmt.Sprint(l.Value), "left operand of Compare must be a path or condition")
		},
	})
}

// BooleanCompare compares a condition against another condition, a
// literal, or a path. A condition only equals booleans.
func BooleanCompare(left *ConditionOutput, right Output, op Operator) (*asl.Condition, error) {
	if !op.Valid() {
		return nil, synthErrorf(ErrInvalidOperator, string(op), "unsupported comparison")
	}
	if op == OpNotEq || op == OpStrictNotEq {
		eq, err := BooleanCompare(left, right, op.negated())
		if err != nil {
			return nil, err
		}
		return asl.Not(eq), nil
	}

	lTrue, lFalse := left.Condition, asl.Not(left.Condition)
	return MatchOutput(right, OutputMatcher[*asl.Condition]{
		Condition: func(r *ConditionOutput) (*asl.Condition, error) {
			return booleanRelation(lTrue, lFalse, r.Condition, asl.Not(r.Condition), op), nil
		},
		Literal: func(r *LiteralValue) (*asl.Condition, error) {
			b, ok := r.Value.(bool)
			if !ok {
				return asl.False(), nil
			}
			return booleanRelation(lTrue, lFalse, constant(b), constant(!b), op), nil
		},
		Path: func(r *PathReference) (*asl.Condition, error) {
			return asl.And(
				asl.IsPresent(r.Path, true),
				asl.IsBoolean(r.Path),
				booleanRelation(lTrue, lFalse, asl.BooleanEquals(r.Path, true), asl.BooleanEquals(r.Path, false), op),
			), nil
		},
	})
}

// booleanRelation orders booleans as false < true given conditions for
// each side being true or false.
func booleanRelation(lTrue, lFalse, rTrue, rFalse *asl.Condition, op Operator) *asl.Condition {
	switch op {
	case OpLt:
		return asl.And(lFalse, rTrue)
	case OpLte:
		return asl.Or(lFalse, rTrue)
	case OpGt:
		return asl.And(lTrue, rFalse)
	case OpGte:
		return asl.Or(lTrue, rFalse)
	}
	return asl.Or(asl.And(lTrue, rTrue), asl.And(lFalse, rFalse))
}

func constant(b bool) *asl.Condition {
	if b {
		return asl.True()
	}
	return asl.False()
}

// operand is one side of an expanded comparison. Literal sides turn every
// predicate into a constant, which And/Or then fold away.
type operand struct {
	path   string
	value  any
	isPath bool
}

func pathOperand(p string) operand { return operand{path: p, isPath: true} }
func literalOperand(v any) operand { return operand{value: v} }

func (o operand) present() *asl.Condition {
	if o.isPath {
		return asl.IsPresent(o.path, true)
	}
	return constant(!IsUndefined(o.value))
}

func (o operand) absent() *asl.Condition {
	if o.isPath {
		return asl.IsPresent(o.path, false)
	}
	return constant(IsUndefined(o.value))
}

func (o operand) null() *asl.Condition {
	if o.isPath {
		return asl.IsNull(o.path, true)
	}
	return constant(o.value == nil)
}

func (o operand) notNull() *asl.Condition {
	if o.isPath {
		return asl.IsNull(o.path, false)
	}
	return constant(o.value != nil)
}

type primitive int

const (
	primString primitive = iota
	primBoolean
	primNumber
)

func (o operand) is(p primitive) *asl.Condition {
	if o.isPath {
		switch p {
		case primString:
			return asl.IsString(o.path)
		case primBoolean:
			return asl.IsBoolean(o.path)
		default:
			return asl.IsNumeric(o.path)
		}
	}
	return constant(primitiveOf(o.value) == p)
}

func primitiveOf(v any) primitive {
	switch v.(type) {
	case string:
		return primString
	case bool:
		return primBoolean
	}
	if _, ok := asl.Number(v); ok {
		return primNumber
	}
	return -1
}

func expandCompare(l, r operand, op Operator) *asl.Condition {
	// The both-undefined term only holds for equality and the both-null
	// term only for operators that accept equal operands, so that
	// undefined <= undefined and null < null are false, as in JavaScript.
	var bothUndefined, bothNull *asl.Condition
	if op.isEquality() {
		bothUndefined = asl.And(l.absent(), r.absent())
	}
	if op.matchesNull() {
		bothNull = asl.And(l.null(), r.null())
	}
	return asl.Or(
		bothUndefined,
		asl.And(l.present(), r.present(), asl.Or(
			bothNull,
			asl.And(l.notNull(), r.notNull(), asl.Or(
				asl.And(l.is(primString), r.is(primString), typedCompare(primString, l, r, op)),
				asl.And(l.is(primBoolean), r.is(primBoolean), typedCompare(primBoolean, l, r, op)),
				asl.And(l.is(primNumber), r.is(primNumber), typedCompare(primNumber, l, r, op)),
			)),
		)),
	)
}

var orderSuffix = map[Operator]string{
	OpEq:       "Equals",
	OpStrictEq: "Equals",
	OpLt:       "LessThan",
	OpLte:      "LessThanEquals",
	OpGt:       "GreaterThan",
	OpGte:      "GreaterThanEquals",
}

// typedCompare emits the comparison leaf for l op r once both are known to
// be of type p. l is always a path.
func typedCompare(p primitive, l, r operand, op Operator) *asl.Condition {
	if !r.isPath && primitiveOf(r.value) != p {
		return asl.False()
	}
	if p == primBoolean {
		if op.isEquality() && r.isPath {
			return asl.Compare(l.path, asl.OpBooleanEqualsPath, r.path)
		}
		var rTrue, rFalse *asl.Condition
		if r.isPath {
			rTrue, rFalse = asl.BooleanEquals(r.path, true), asl.BooleanEquals(r.path, false)
		} else {
			b := r.value.(bool)
			rTrue, rFalse = constant(b), constant(!b)
		}
		return booleanRelation(asl.BooleanEquals(l.path, true), asl.BooleanEquals(l.path, false), rTrue, rFalse, op)
	}

	prefix := "String"
	if p == primNumber {
		prefix = "Numeric"
	}
	name := prefix + orderSuffix[op]
	if r.isPath {
		return asl.Compare(l.path, asl.Operator(name+"Path"), r.path)
	}
	value := r.value
	if p == primNumber {
		value, _ = asl.Number(r.value)
	}
	return asl.Compare(l.path, asl.Operator(name), value)
}

// compareLiterals evaluates op on two compile-time values with the same
// strict semantics Compare expands to.
func compareLiterals(l, r any, op Operator) bool {
	switch op {
	case OpEq, OpStrictEq:
		return strictEquals(l, r)
	case OpNotEq, OpStrictNotEq:
		return !strictEquals(l, r)
	}
	if IsUndefined(l) || IsUndefined(r) {
		return false
	}
	if l == nil && r == nil {
		return op.matchesNull()
	}
	cmp, ok := orderLiterals(l, r)
	if !ok {
		return false
	}
	switch op {
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

func strictEquals(l, r any) bool {
	switch {
	case IsUndefined(l) || IsUndefined(r):
		return IsUndefined(l) && IsUndefined(r)
	case l == nil || r == nil:
		return l == nil && r == nil
	}
	cmp, ok := orderLiterals(l, r)
	return ok && cmp == 0
}

// orderLiterals compares two primitives of the same type. Objects and
// arrays have no order and are never equal to another literal.
func orderLiterals(l, r any) (int, bool) {
	if primitiveOf(l) != primitiveOf(r) {
		return 0, false
	}
	switch lv := l.(type) {
	case string:
		return strings.Compare(lv, r.(string)), true
	case bool:
		rv := r.(bool)
		switch {
		case lv == rv:
			return 0, true
		case !lv:
			return -1, true
		}
		return 1, true
	}
	lf, lok := asl.Number(l)
	rf, rok := asl.Number(r)
	if !lok || !rok {
		return 0, false
	}
	switch {
	case lf < rf:
		return -1, true
	case lf > rf:
		return 1, true
	}
	return 0, true
}
