package asl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned when a comparison reads an absent path.
var ErrPathNotFound = errors.New("path not found")

// DefaultContext is the "$$" object used by Evaluate.
func DefaultContext() map[string]any {
	return map[string]any{
		"Execution": map[string]any{"Id": "local-execution"},
	}
}

// Evaluate decides a choice rule against decoded JSON input.
func Evaluate(c *Condition, input any) (bool, error) {
	return EvaluateWithContext(c, input, DefaultContext())
}

// EvaluateWithContext decides a choice rule with an explicit "$$" object.
// And and Or short-circuit left to right; comparisons of mismatched types
// are false.
func EvaluateWithContext(c *Condition, input, context any) (bool, error) {
	e := evaluator{input: input, context: context}
	return e.eval(c)
}

type evaluator struct {
	input   any
	context any
}

func (e evaluator) lookup(path string) (any, bool, error) {
	if strings.HasPrefix(path, "$$") {
		return Lookup(e.context, "$"+strings.TrimPrefix(path, "$$"))
	}
	return Lookup(e.input, path)
}

func (e evaluator) eval(c *Condition) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("condition is nil")
	}
	switch {
	case c.And != nil:
		for _, sub := range c.And {
			ok, err := e.eval(sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case c.Or != nil:
		for _, sub := range c.Or {
			ok, err := e.eval(sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case c.Not != nil:
		ok, err := e.eval(c.Not)
		return !ok, err
	}

	value, present, err := e.lookup(c.Variable)
	if err != nil {
		return false, err
	}
	if c.Operator.IsTypeTest() {
		want, _ := c.Value.(bool)
		return typeTest(c.Operator, value, present) == want, nil
	}
	if !present {
		return false, fmt.Errorf("%w: %s", ErrPathNotFound, c.Variable)
	}

	operand := c.Value
	if c.Operator.IsPathOperator() {
		ref, _ := c.Value.(string)
		v, ok, err := e.lookup(ref)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrPathNotFound, ref)
		}
		operand = v
	}
	return compareValues(strings.TrimSuffix(string(c.Operator), "Path"), value, operand), nil
}

func typeTest(op Operator, value any, present bool) bool {
	switch op {
	case OpIsPresent:
		return present
	}
	if !present {
		return false
	}
	switch op {
	case OpIsNull:
		return value == nil
	case OpIsString:
		_, ok := value.(string)
		return ok
	case OpIsBoolean:
		_, ok := value.(bool)
		return ok
	case OpIsNumeric:
		_, ok := toFloat(value)
		return ok
	}
	return false
}

func compareValues(op string, left, right any) bool {
	switch {
	case strings.HasPrefix(op, "String"):
		l, lok := left.(string)
		r, rok := right.(string)
		if !lok || !rok {
			return false
		}
		return ordered(strings.TrimPrefix(op, "String"), strings.Compare(l, r))
	case strings.HasPrefix(op, "Numeric"):
		l, lok := toFloat(left)
		r, rok := toFloat(right)
		if !lok || !rok {
			return false
		}
		cmp := 0
		if l < r {
			cmp = -1
		} else if l > r {
			cmp = 1
		}
		return ordered(strings.TrimPrefix(op, "Numeric"), cmp)
	case op == "BooleanEquals":
		l, lok := left.(bool)
		r, rok := right.(bool)
		return lok && rok && l == r
	}
	return false
}

func ordered(suffix string, cmp int) bool {
	switch suffix {
	case "Equals":
		return cmp == 0
	case "LessThan":
		return cmp < 0
	case "LessThanEquals":
		return cmp <= 0
	case "GreaterThan":
		return cmp > 0
	case "GreaterThanEquals":
		return cmp >= 0
	}
	return false
}

// Number converts any Go or JSON numeric value to float64.
func Number(v any) (float64, bool) { return toFloat(v) }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Segment is one step of a reference path: a field name or an array index.
type Segment struct {
	Field string
	Index int
	// IsIndex distinguishes [0] from a field named "0".
	IsIndex bool
}

// ParsePath splits a reference path such as $.a['b c'][0] into segments.
func ParsePath(path string) ([]Segment, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("path %q must start with $", path)
	}
	rest := strings.TrimPrefix(path, "$")
	var segs []Segment
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end == -1 {
				end = len(rest)
			}
			if end == 0 {
				return nil, fmt.Errorf("path %q: empty field name", path)
			}
			segs = append(segs, Segment{Field: rest[:end]})
			rest = rest[end:]
		case '[':
			if len(rest) > 1 && (rest[1] == '\'' || rest[1] == '"') {
				name, n, err := quotedName(rest[1:])
				if err != nil {
					return nil, fmt.Errorf("path %q: %w", path, err)
				}
				rest = rest[1+n:]
				if !strings.HasPrefix(rest, "]") {
					return nil, fmt.Errorf("path %q: expected ] after quoted name", path)
				}
				rest = rest[1:]
				segs = append(segs, Segment{Field: name})
				continue
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("path %q: unterminated [", path)
			}
			inner := rest[1:end]
			rest = rest[end+1:]
			idx, err := strconv.Atoi(inner)
			if err != nil {
				return nil, fmt.Errorf("path %q: invalid index %q", path, inner)
			}
			segs = append(segs, Segment{Index: idx, IsIndex: true})
		default:
			return nil, fmt.Errorf("path %q: unexpected %q", path, rest[0])
		}
	}
	return segs, nil
}

// quotedName reads a quoted field name at the start of s, returning the
// unescaped name and the number of bytes consumed including both quotes.
// A backslash escapes the next byte.
func quotedName(s string) (string, int, error) {
	quote := s[0]
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 == len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			i++
			sb.WriteByte(s[i])
		case quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(s[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted name")
}

// Lookup resolves a reference path inside decoded JSON. The boolean is
// false when any step is absent.
func Lookup(doc any, path string) (any, bool, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, false, err
	}
	cur := doc
	for _, seg := range segs {
		if seg.IsIndex {
			arr, ok := cur.([]any)
			if !ok || seg.Index < 0 || seg.Index >= len(arr) {
				return nil, false, nil
			}
			cur = arr[seg.Index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		cur, ok = obj[seg.Field]
		if !ok {
			return nil, false, nil
		}
	}
	return cur, true, nil
}
