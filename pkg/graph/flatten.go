package graph

import (
	"fmt"

	"github.com/aretw0/aslgraph/pkg/asl"
)

// Flatten lowers the fragment tree into one map of globally named states.
// root is named entry; each sub-state's members are named by naming and
// every transition is resolved through the chain of enclosing scopes.
func Flatten(entry string, root Fragment, naming NamingStrategy) (asl.States, error) {
	if naming == nil {
		return nil, synthErrorf(ErrStructural, entry, "no naming strategy")
	}
	out := make(asl.States)
	if err := flatten(entry, root, &NameMap{}, naming, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(name string, node Fragment, scope *NameMap, naming NamingStrategy, out asl.States) error {
	switch v := node.(type) {
	case *StateNode:
		if _, taken := out[name]; taken {
			return synthErrorf(ErrStructural, name, "global name assigned twice")
		}
		st, err := rewriteStateTransitions(v.State, scope)
		if err != nil {
			return err
		}
		out[name] = st
		return nil
	case *SubState:
		if _, ok := v.States[v.StartAt]; !ok {
			return synthErrorf(ErrStructural, name, "entry member %q does not exist", v.StartAt)
		}
		names := naming(name, v)
		if names[v.StartAt] != name {
			return synthErrorf(ErrStructural, name, "entry member %q must be named %q, got %q", v.StartAt, name, names[v.StartAt])
		}
		child := scope.Child(names)
		for _, local := range v.MemberNames() {
			global, ok := names[local]
			if !ok || global == "" {
				return synthErrorf(ErrStructural, name, "member %q has no global name", local)
			}
			if err := flatten(global, v.States[local], child, naming, out); err != nil {
				return err
			}
		}
		return nil
	case Output:
		return synthErrorf(ErrStructural, name, "an output has no control flow to flatten")
	case nil:
		return synthErrorf(ErrStructural, name, "fragment is nil")
	}
	return impossible(node)
}

// rewriteStateTransitions resolves every target of s in scope. Fragment
// metadata does not survive: the result is a bare state.
func rewriteStateTransitions(s asl.State, scope *NameMap) (asl.State, error) {
	st, err := asl.MapTransitions(s, scope.Resolve)
	if err != nil {
		return nil, &SynthError{Kind: ErrImpossible, Msg: fmt.Sprintf("%T", s)}
	}
	return st, nil
}

// ToStates flattens root, removes no-op Pass states, joins chained Choice
// states and drops whatever is no longer reachable from entry.
func ToStates(entry string, root Fragment, naming NamingStrategy) (asl.States, error) {
	states, err := Flatten(entry, root, naming)
	if err != nil {
		return nil, err
	}
	return Optimize(entry, states)
}

// Optimize runs the post-flattening passes over a flat map.
func Optimize(entry string, states asl.States) (asl.States, error) {
	states, err := RemoveEmptyStates(entry, states)
	if err != nil {
		return nil, err
	}
	states, err = JoinChainedChoices(entry, states)
	if err != nil {
		return nil, err
	}
	return PruneUnreachable(entry, states), nil
}
