package graph

import (
	"fmt"
	"math"
	"strings"
)

// AccessConstant reads a constant field or index out of value. Paths gain
// a segment, subscript style ([0], ['name']) when elementStyle is set or
// the name needs quoting, dot style otherwise. Literal arrays only accept
// integer indexes; literal objects accept any field. A missing element
// yields an undefined literal.
func AccessConstant(value Output, field any, elementStyle bool) (Output, error) {
	return MatchOutput(value, OutputMatcher[Output]{
		Path: func(p *PathReference) (Output, error) {
			if idx, ok := integerField(field); ok {
				return Path(fmt.Sprintf("%s[%d]", p.Path, idx)), nil
			}
			name, ok := field.(string)
			if !ok {
				return nil, synthErrorf(ErrInvalidCollectionAccess, p.Path, "field must be a string or integer, got %T", field)
			}
			if elementStyle || needsBracket(name) {
				return Path(fmt.Sprintf("%s['%s']", p.Path, bracketEscaper.Replace(name))), nil
			}
			return Path(p.Path + "." + name), nil
		},
		Literal: func(l *LiteralValue) (Output, error) {
			accessed, err := accessLiteral(l.Value, field)
			if err != nil {
				return nil, err
			}
			if s, ok := accessed.(string); ok && isPathString(s) {
				return Path(s), nil
			}
			return Literal(accessed), nil
		},
		Condition: func(c *ConditionOutput) (Output, error) {
			return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(field), "a boolean condition has no fields")
		},
	})
}

func accessLiteral(v, field any) (any, error) {
	switch container := v.(type) {
	case []any:
		idx, ok := integerField(field)
		if !ok {
			return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(field), "accessor to an array must be a constant number")
		}
		if idx < 0 || idx >= len(container) {
			return Undefined, nil
		}
		return container[idx], nil
	case map[string]any:
		key := fmt.Sprint(field)
		if f, ok := field.(float64); ok && f == math.Trunc(f) {
			key = fmt.Sprint(int64(f))
		}
		child, ok := container[key]
		if !ok {
			return Undefined, nil
		}
		return child, nil
	case nil:
		return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(field), "cannot access a field of null")
	}
	if IsUndefined(v) {
		return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(field), "cannot access a field of undefined")
	}
	return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(field), "only a constant object or array may be accessed, got %T", v)
}

func integerField(field any) (int, bool) {
	switch f := field.(type) {
	case int:
		return f, true
	case int64:
		return int(f), true
	case float64:
		if f == math.Trunc(f) {
			return int(f), true
		}
	}
	return 0, false
}

var bracketEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func needsBracket(name string) bool {
	if name == "" {
		return true
	}
	return strings.ContainsAny(name, ".[]' $@*\\\"")
}
