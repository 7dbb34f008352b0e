package graph

import (
	"strings"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// Output is the value computed by a fragment: a literal, a reference into
// the running execution's data, or an unresolved boolean condition.
type Output interface {
	Fragment
	output()
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the absent value. JSON null is represented by nil.
var Undefined any = undefined{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// LiteralValue is a value known at compile time.
type LiteralValue struct {
	Value any
	// ContainsNestedPath is set when a leaf of an object or array value is
	// a path reference ("key.$" field), so the value must be emitted as a
	// parameter map instead of a Result.
	ContainsNestedPath bool
}

// PathReference points into the execution's data, e.g. $.input.items[0].
type PathReference struct {
	Path string
}

// ConditionOutput is a boolean expression not yet stored anywhere.
type ConditionOutput struct {
	Condition *asl.Condition
}

func (*LiteralValue) output()    {}
func (*PathReference) output()   {}
func (*ConditionOutput) output() {}

func (*LiteralValue) fragment()    {}
func (*PathReference) fragment()   {}
func (*ConditionOutput) fragment() {}

// Literal builds a LiteralValue, detecting nested path references.
func Literal(v any) *LiteralValue {
	return &LiteralValue{Value: v, ContainsNestedPath: containsNestedPath(v)}
}

// Path builds a PathReference.
func Path(p string) *PathReference { return &PathReference{Path: p} }

// Cond builds a ConditionOutput.
func Cond(c *asl.Condition) *ConditionOutput { return &ConditionOutput{Condition: c} }

// OutputMatcher holds one handler per Output variant.
type OutputMatcher[T any] struct {
	Literal   func(*LiteralValue) (T, error)
	Path      func(*PathReference) (T, error)
	Condition func(*ConditionOutput) (T, error)
}

// MatchOutput dispatches out to the handler for its variant. Every
// operation over outputs goes through here so a missing variant surfaces
// as ErrImpossible instead of a silent zero value.
func MatchOutput[T any](out Output, m OutputMatcher[T]) (T, error) {
	var zero T
	switch o := out.(type) {
	case *LiteralValue:
		if m.Literal != nil {
			return m.Literal(o)
		}
	case *PathReference:
		if m.Path != nil {
			return m.Path(o)
		}
	case *ConditionOutput:
		if m.Condition != nil {
			return m.Condition(o)
		}
	}
	return zero, impossible(out)
}

func containsNestedPath(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if strings.HasSuffix(k, ".$") || containsNestedPath(child) {
				return true
			}
		}
	case []any:
		for _, child := range val {
			if containsNestedPath(child) {
				return true
			}
		}
	}
	return false
}

// isPathString reports whether a literal string is really a reference or
// intrinsic function call.
func isPathString(s string) bool {
	return strings.HasPrefix(s, "$") || strings.HasPrefix(s, "States.")
}
