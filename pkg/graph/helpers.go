package graph

import (
	"fmt"
	"math"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// IsTruthyOutput returns the condition under which out is truthy: present,
// not null, and not false, 0 or the empty string.
func IsTruthyOutput(out Output) (*asl.Condition, error) {
	return MatchOutput(out, OutputMatcher[*asl.Condition]{
		Literal: func(l *LiteralValue) (*asl.Condition, error) {
			return constant(truthy(l.Value)), nil
		},
		Path: func(p *PathReference) (*asl.Condition, error) {
			v := p.Path
			return asl.And(
				asl.IsPresent(v, true),
				asl.IsNull(v, false),
				asl.Or(
					asl.And(asl.IsString(v), asl.Not(asl.StringEquals(v, ""))),
					asl.And(asl.IsNumeric(v), asl.Not(asl.NumericEquals(v, 0))),
					asl.And(asl.IsBoolean(v), asl.BooleanEquals(v, true)),
					asl.Not(asl.Or(asl.IsString(v), asl.IsNumeric(v), asl.IsBoolean(v))),
				),
			), nil
		},
		Condition: func(c *ConditionOutput) (*asl.Condition, error) {
			return c.Condition, nil
		},
	})
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if IsUndefined(v) {
		return false
	}
	if f, ok := asl.Number(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// ElementIn is the condition for `element in target`: the key or index is
// present in the object or array.
func ElementIn(element any, target Output) (*asl.Condition, error) {
	return MatchOutput(target, OutputMatcher[*asl.Condition]{
		Path: func(p *PathReference) (*asl.Condition, error) {
			accessed, err := AccessConstant(p, element, true)
			if err != nil {
				return nil, err
			}
			return asl.IsPresent(accessed.(*PathReference).Path, true), nil
		},
		Literal: func(l *LiteralValue) (*asl.Condition, error) {
			switch l.Value.(type) {
			case map[string]any, []any:
				accessed, err := accessLiteral(l.Value, element)
				if err != nil {
					return nil, err
				}
				return constant(!IsUndefined(accessed)), nil
			}
			return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(element), "'in' requires an object or array, got %T", l.Value)
		},
		Condition: func(c *ConditionOutput) (*asl.Condition, error) {
			return nil, synthErrorf(ErrInvalidCollectionAccess, fmt.Sprint(element), "'in' cannot search a boolean condition")
		},
	})
}

// JSONAssignment returns the parameter-map entry assigning out to key.
// Path values take the "key.$" form so the runtime resolves them.
func JSONAssignment(key string, out Output) (string, any, error) {
	type entry struct {
		key   string
		value any
	}
	e, err := MatchOutput(out, OutputMatcher[entry]{
		Path: func(p *PathReference) (entry, error) {
			return entry{key + ".$", p.Path}, nil
		},
		Literal: func(l *LiteralValue) (entry, error) {
			if IsUndefined(l.Value) {
				return entry{}, synthErrorf(ErrInvalidCollectionAccess, key, "cannot assign undefined")
			}
			return entry{key, l.Value}, nil
		},
		Condition: func(c *ConditionOutput) (entry, error) {
			return entry{}, synthErrorf(ErrUnmaterialized, key, "assign the condition through Materialize first")
		},
	})
	if err != nil {
		return "", nil, err
	}
	return e.key, e.value, nil
}

// Materialize stores out at resultPath so it can be used where a literal
// or path is structurally required. Paths need no state; literals become a
// Pass state; conditions become a Choice writing true or false. The
// returned fragment leaves its transitions deferred.
func Materialize(out Output, resultPath string) (Fragment, *PathReference, error) {
	type result struct {
		fragment Fragment
		path     *PathReference
	}
	r, err := MatchOutput(out, OutputMatcher[result]{
		Path: func(p *PathReference) (result, error) {
			return result{nil, p}, nil
		},
		Literal: func(l *LiteralValue) (result, error) {
			ref := Path(resultPath)
			pass := &asl.Pass{ResultPath: resultPath, Next: asl.DeferNext}
			switch {
			case IsUndefined(l.Value):
				return result{}, synthErrorf(ErrUnmaterialized, resultPath, "cannot store undefined")
			case l.Value == nil:
				pass.Parameters = map[string]any{"value.$": "States.StringToJson('null')"}
				ref = Path(resultPath + ".value")
			case l.ContainsNestedPath:
				obj, ok := l.Value.(map[string]any)
				if !ok {
					return result{}, synthErrorf(ErrUnmaterialized, resultPath, "nested paths are only supported inside objects")
				}
				pass.Parameters = obj
			default:
				pass.Result = l.Value
			}
			return result{&StateNode{State: pass, Output: ref}, ref}, nil
		},
		Condition: func(c *ConditionOutput) (result, error) {
			ref := Path(resultPath)
			sub := &SubState{
				StartAt: "check",
				States: map[string]Fragment{
					"check": Leaf(&asl.Choice{
						Choices: []asl.ChoiceRule{{Condition: c.Condition, Next: "true"}},
						Default: "false",
					}),
					"true":  Leaf(&asl.Pass{Result: true, ResultPath: resultPath, Next: asl.DeferNext}),
					"false": Leaf(&asl.Pass{Result: false, ResultPath: resultPath, Next: asl.DeferNext}),
				},
				Output: ref,
			}
			return result{sub, ref}, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return r.fragment, r.path, nil
}
