package asl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Operator names a leaf choice-rule comparison. The value is the JSON key
// used by the States Language document.
type Operator string

const (
	OpStringEquals                  Operator = "StringEquals"
	OpStringEqualsPath              Operator = "StringEqualsPath"
	OpStringLessThan                Operator = "StringLessThan"
	OpStringLessThanPath            Operator = "StringLessThanPath"
	OpStringLessThanEquals          Operator = "StringLessThanEquals"
	OpStringLessThanEqualsPath      Operator = "StringLessThanEqualsPath"
	OpStringGreaterThan             Operator = "StringGreaterThan"
	OpStringGreaterThanPath         Operator = "StringGreaterThanPath"
	OpStringGreaterThanEquals       Operator = "StringGreaterThanEquals"
	OpStringGreaterThanEqualsPath   Operator = "StringGreaterThanEqualsPath"
	OpNumericEquals                 Operator = "NumericEquals"
	OpNumericEqualsPath             Operator = "NumericEqualsPath"
	OpNumericLessThan               Operator = "NumericLessThan"
	OpNumericLessThanPath           Operator = "NumericLessThanPath"
	OpNumericLessThanEquals         Operator = "NumericLessThanEquals"
	OpNumericLessThanEqualsPath     Operator = "NumericLessThanEqualsPath"
	OpNumericGreaterThan            Operator = "NumericGreaterThan"
	OpNumericGreaterThanPath        Operator = "NumericGreaterThanPath"
	OpNumericGreaterThanEquals      Operator = "NumericGreaterThanEquals"
	OpNumericGreaterThanEqualsPath  Operator = "NumericGreaterThanEqualsPath"
	OpBooleanEquals                 Operator = "BooleanEquals"
	OpBooleanEqualsPath             Operator = "BooleanEqualsPath"
	OpIsPresent                     Operator = "IsPresent"
	OpIsNull                        Operator = "IsNull"
	OpIsString                      Operator = "IsString"
	OpIsNumeric                     Operator = "IsNumeric"
	OpIsBoolean                     Operator = "IsBoolean"
)

var operators = map[Operator]struct{}{
	OpStringEquals: {}, OpStringEqualsPath: {},
	OpStringLessThan: {}, OpStringLessThanPath: {},
	OpStringLessThanEquals: {}, OpStringLessThanEqualsPath: {},
	OpStringGreaterThan: {}, OpStringGreaterThanPath: {},
	OpStringGreaterThanEquals: {}, OpStringGreaterThanEqualsPath: {},
	OpNumericEquals: {}, OpNumericEqualsPath: {},
	OpNumericLessThan: {}, OpNumericLessThanPath: {},
	OpNumericLessThanEquals: {}, OpNumericLessThanEqualsPath: {},
	OpNumericGreaterThan: {}, OpNumericGreaterThanPath: {},
	OpNumericGreaterThanEquals: {}, OpNumericGreaterThanEqualsPath: {},
	OpBooleanEquals: {}, OpBooleanEqualsPath: {},
	OpIsPresent: {}, OpIsNull: {}, OpIsString: {}, OpIsNumeric: {}, OpIsBoolean: {},
}

// IsPathOperator reports whether the operator compares against another
// reference path instead of a literal.
func (o Operator) IsPathOperator() bool {
	return strings.HasSuffix(string(o), "Path")
}

// IsTypeTest reports whether the operator is one of the Is* predicates.
func (o Operator) IsTypeTest() bool {
	return strings.HasPrefix(string(o), "Is")
}

// Condition is a choice rule: either a leaf comparison on Variable or one of
// the And/Or/Not combinators. Exactly one shape is populated.
type Condition struct {
	Variable string
	Operator Operator
	Value    any

	And []*Condition
	Or  []*Condition
	Not *Condition
}

// ExecutionIDPath is always present while a machine runs and backs the
// constant conditions.
const ExecutionIDPath = "$$.Execution.Id"

// True returns a condition that always holds.
func True() *Condition { return IsPresent(ExecutionIDPath, true) }

// False returns a condition that never holds.
func False() *Condition { return IsPresent(ExecutionIDPath, false) }

// IsConstant reports whether c is True() or False() and which one.
func IsConstant(c *Condition) (value bool, ok bool) {
	if c == nil || c.Variable != ExecutionIDPath || c.Operator != OpIsPresent {
		return false, false
	}
	b, isBool := c.Value.(bool)
	return b, isBool
}

// And joins conditions with a conjunction. Constant operands are folded.
func And(conds ...*Condition) *Condition {
	out := make([]*Condition, 0, len(conds))
	for _, c := range conds {
		if c == nil {
			continue
		}
		if v, ok := IsConstant(c); ok {
			if !v {
				return False()
			}
			continue
		}
		out = append(out, c)
	}
	switch len(out) {
	case 0:
		return True()
	case 1:
		return out[0]
	}
	return &Condition{And: out}
}

// Or joins conditions with a disjunction. Constant operands are folded.
func Or(conds ...*Condition) *Condition {
	out := make([]*Condition, 0, len(conds))
	for _, c := range conds {
		if c == nil {
			continue
		}
		if v, ok := IsConstant(c); ok {
			if v {
				return True()
			}
			continue
		}
		out = append(out, c)
	}
	switch len(out) {
	case 0:
		return False()
	case 1:
		return out[0]
	}
	return &Condition{Or: out}
}

// Not negates c, never producing a double negative.
func Not(c *Condition) *Condition {
	if v, ok := IsConstant(c); ok {
		if v {
			return False()
		}
		return True()
	}
	if c.Not != nil {
		return c.Not
	}
	return &Condition{Not: c}
}

// Compare builds a leaf comparison.
func Compare(variable string, op Operator, value any) *Condition {
	return &Condition{Variable: variable, Operator: op, Value: value}
}

func IsPresent(variable string, present bool) *Condition {
	return Compare(variable, OpIsPresent, present)
}

func IsNull(variable string, null bool) *Condition { return Compare(variable, OpIsNull, null) }

func IsString(variable string) *Condition { return Compare(variable, OpIsString, true) }

func IsNumeric(variable string) *Condition { return Compare(variable, OpIsNumeric, true) }

func IsBoolean(variable string) *Condition { return Compare(variable, OpIsBoolean, true) }

func StringEquals(variable, value string) *Condition {
	return Compare(variable, OpStringEquals, value)
}

func NumericEquals(variable string, value float64) *Condition {
	return Compare(variable, OpNumericEquals, value)
}

func BooleanEquals(variable string, value bool) *Condition {
	return Compare(variable, OpBooleanEquals, value)
}

// Validate checks that the condition tree is well formed.
func (c *Condition) Validate() error {
	if c == nil {
		return fmt.Errorf("condition is nil")
	}
	shapes := 0
	if c.And != nil {
		shapes++
	}
	if c.Or != nil {
		shapes++
	}
	if c.Not != nil {
		shapes++
	}
	if c.Operator != "" {
		shapes++
	}
	if shapes != 1 {
		return fmt.Errorf("condition must have exactly one of And, Or, Not or a comparison")
	}
	for _, sub := range append(append([]*Condition{}, c.And...), c.Or...) {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	if c.Not != nil {
		return c.Not.Validate()
	}
	if c.Operator == "" {
		return nil
	}
	if _, ok := operators[c.Operator]; !ok {
		return fmt.Errorf("unknown comparison operator %q", c.Operator)
	}
	if c.Variable == "" {
		return fmt.Errorf("%s: missing Variable", c.Operator)
	}
	return validateOperand(c.Operator, c.Value)
}

func validateOperand(op Operator, value any) error {
	switch {
	case op.IsPathOperator():
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected a path string, got %T", op, value)
		}
	case op.IsTypeTest(), op == OpBooleanEquals:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected bool, got %T", op, value)
		}
	case strings.HasPrefix(string(op), "String"):
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", op, value)
		}
	case strings.HasPrefix(string(op), "Numeric"):
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("%s: expected number, got %T", op, value)
		}
	}
	return nil
}

// MarshalJSON renders the rule in States Language form.
func (c *Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toMap())
}

func (c *Condition) toMap() map[string]any {
	switch {
	case c.And != nil:
		return map[string]any{"And": c.And}
	case c.Or != nil:
		return map[string]any{"Or": c.Or}
	case c.Not != nil:
		return map[string]any{"Not": c.Not}
	}
	return map[string]any{
		"Variable":         c.Variable,
		string(c.Operator): c.Value,
	}
}

// UnmarshalJSON parses a States Language choice rule.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCondition(raw)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// ParseCondition builds a Condition from a decoded JSON/YAML object.
func ParseCondition(raw map[string]any) (*Condition, error) {
	if v, ok := raw["And"]; ok {
		subs, err := parseConditionList("And", v)
		if err != nil {
			return nil, err
		}
		return &Condition{And: subs}, nil
	}
	if v, ok := raw["Or"]; ok {
		subs, err := parseConditionList("Or", v)
		if err != nil {
			return nil, err
		}
		return &Condition{Or: subs}, nil
	}
	if v, ok := raw["Not"]; ok {
		m, ok := asObject(v)
		if !ok {
			return nil, fmt.Errorf("Not: expected an object, got %T", v)
		}
		sub, err := ParseCondition(m)
		if err != nil {
			return nil, fmt.Errorf("Not: %w", err)
		}
		return &Condition{Not: sub}, nil
	}

	variable, _ := raw["Variable"].(string)
	var found []string
	for key := range raw {
		if _, ok := operators[Operator(key)]; ok {
			found = append(found, key)
		}
	}
	if len(found) != 1 {
		sort.Strings(found)
		return nil, fmt.Errorf("choice rule must carry exactly one comparison operator, found %v", found)
	}
	op := Operator(found[0])
	value := raw[found[0]]
	if f, ok := toFloat(value); ok && strings.HasPrefix(string(op), "Numeric") && !op.IsPathOperator() {
		value = f
	}
	cond := &Condition{Variable: variable, Operator: op, Value: value}
	if err := cond.Validate(); err != nil {
		return nil, err
	}
	return cond, nil
}

func parseConditionList(name string, v any) ([]*Condition, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", name, v)
	}
	out := make([]*Condition, 0, len(items))
	for i, item := range items {
		m, ok := asObject(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected an object, got %T", name, i, item)
		}
		sub, err := ParseCondition(m)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// String renders a compact human-readable form, used for graph labels.
func (c *Condition) String() string {
	if c == nil {
		return "<nil>"
	}
	if v, ok := IsConstant(c); ok {
		return fmt.Sprint(v)
	}
	join := func(op string, subs []*Condition) string {
		parts := make([]string, len(subs))
		for i, s := range subs {
			parts[i] = s.String()
		}
		return "(" + strings.Join(parts, " "+op+" ") + ")"
	}
	switch {
	case c.And != nil:
		return join("&&", c.And)
	case c.Or != nil:
		return join("||", c.Or)
	case c.Not != nil:
		return "!" + c.Not.String()
	}
	if s, ok := c.Value.(string); ok && !c.Operator.IsPathOperator() {
		return fmt.Sprintf("%s %s %q", c.Variable, c.Operator, s)
	}
	return fmt.Sprintf("%s %s %v", c.Variable, c.Operator, c.Value)
}
